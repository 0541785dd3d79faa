// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres implements auth.UserStore on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authd/internal/auth"
)

// emailConstraint is the unique constraint on users.email.
const emailConstraint = "users_email_key"

// Querier is the subset of *pgxpool.Pool used by UserStore.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserStore implements auth.UserStore using PostgreSQL.
type UserStore struct {
	db Querier
}

// NewUserStore creates a new UserStore.
func NewUserStore(db Querier) *UserStore {
	return &UserStore{db: db}
}

// FindByEmail retrieves a user by email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_FIND_FAILED").
			With("operation", "find user by email").
			With("email", email).
			Wrap(classify(err))
	}
	return user, nil
}

// Insert stores a new user. The ID is a fresh ULID.
func (s *UserStore) Insert(ctx context.Context, fields auth.NewUser) (*auth.User, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, email, name, password_hash, created_at, updated_at
	`,
		ulid.Make().String(),
		fields.Email,
		fields.Name,
		fields.PasswordHash,
		fields.CreatedAt,
		fields.UpdatedAt,
	)

	user, err := scanUser(row)
	if err != nil {
		return nil, oops.Code("USER_INSERT_FAILED").
			With("operation", "insert user").
			With("email", fields.Email).
			Wrap(classify(err))
	}
	return user, nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var user auth.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return &user, nil
}

// classify marks driver errors with the store error kinds Service understands.
// Errors that fit no kind are returned unchanged.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == emailConstraint:
			return auth.DuplicateEmail(err)
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsInvalidAuthorizationSpecification(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code),
			pgerrcode.IsOperatorIntervention(pgErr.Code):
			return auth.StoreUnavailable(err)
		}
		return err
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connectErr),
		errors.As(err, &netErr),
		pgconn.Timeout(err),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return auth.StoreUnavailable(err)
	}
	return err
}

// Compile-time interface check.
var _ auth.UserStore = (*UserStore)(nil)
