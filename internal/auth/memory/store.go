// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package memory provides an in-process auth.UserStore for tests and local
// development.
package memory

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authd/internal/auth"
)

// Store implements auth.UserStore in memory. Email uniqueness is enforced
// under the store's lock.
type Store struct {
	mu      sync.RWMutex
	byEmail map[string]*auth.User
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{byEmail: make(map[string]*auth.User)}
}

// FindByEmail retrieves a user by email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.Code("USER_FIND_FAILED").
			With("email", email).
			Wrap(auth.StoreUnavailable(err))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byEmail[email]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	userCopy := *user
	return &userCopy, nil
}

// Insert stores a new user and assigns its ID.
func (s *Store) Insert(ctx context.Context, fields auth.NewUser) (*auth.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.Code("USER_INSERT_FAILED").
			With("email", fields.Email).
			Wrap(auth.StoreUnavailable(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[fields.Email]; exists {
		return nil, oops.Code("USER_DUPLICATE_EMAIL").
			With("email", fields.Email).
			Wrap(auth.ErrDuplicateEmail)
	}

	user := &auth.User{
		ID:           ulid.Make().String(),
		Email:        fields.Email,
		Name:         fields.Name,
		PasswordHash: fields.PasswordHash,
		CreatedAt:    fields.CreatedAt,
		UpdatedAt:    fields.UpdatedAt,
	}
	s.byEmail[user.Email] = user

	userCopy := *user
	return &userCopy, nil
}

// Len returns the number of stored users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEmail)
}

// Compile-time interface check.
var _ auth.UserStore = (*Store)(nil)
