// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"strings"
	"time"
)

// User is a stored user account.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the view of a User that may leave the service.
// It never carries the password hash.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Public returns the public view of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NewUser holds the fields of a user that has not been stored yet.
// The store assigns the ID on insert.
type NewUser struct {
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail lowercases and trims an email so it can be used as a
// lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserStore manages user persistence.
type UserStore interface {
	// FindByEmail retrieves a user by normalized email.
	// Returns ErrNotFound if no user has the given email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Insert stores a new user and returns it with its assigned ID.
	// Returns ErrDuplicateEmail if the email is already taken.
	Insert(ctx context.Context, user NewUser) (*User, error)
}
