// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"fmt"
)

// Store-level errors. UserStore implementations return these (wrapped) so
// that Service never needs to inspect driver errors.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned by UserStore.Insert when the email is taken.
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrStoreUnavailable is returned when the backing store cannot be reached,
	// rejects authentication, or times out. Service also returns it as a
	// workflow error kind.
	ErrStoreUnavailable = errors.New("user store unavailable")
)

// ErrInvalidToken is returned by TokenCodec.Decode for malformed, expired, or
// wrongly signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// Workflow error kinds returned by Service.
var (
	ErrDuplicateUser      = errors.New("email already registered")
	ErrHashingFailure     = errors.New("password hashing failed")
	ErrInvalidCredentials = errors.New("could not validate credentials")
)

// Error codes attached to workflow errors.
const (
	CodeDuplicateUser      = "AUTH_DUPLICATE_USER"
	CodeHashingFailed      = "AUTH_HASHING_FAILED"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeStoreUnavailable   = "AUTH_STORE_UNAVAILABLE"
)

// StoreUnavailable marks err as a store availability failure while keeping
// the original error in the chain for logging.
func StoreUnavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// DuplicateEmail marks err as a uniqueness violation on the email key.
func DuplicateEmail(err error) error {
	return fmt.Errorf("%w: %w", ErrDuplicateEmail, err)
}

// Kind returns the error code of a workflow error, or "" if err is nil or
// not one of the workflow kinds.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateUser):
		return CodeDuplicateUser
	case errors.Is(err, ErrHashingFailure):
		return CodeHashingFailed
	case errors.Is(err, ErrInvalidCredentials):
		return CodeInvalidCredentials
	case errors.Is(err, ErrStoreUnavailable):
		return CodeStoreUnavailable
	default:
		return ""
	}
}
