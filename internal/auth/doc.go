// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth provides the authentication core of authd.
//
// # Components
//
// The core is built from three leaf components and one workflow:
//   - PasswordHasher - one-way password hashing (bcrypt by default, argon2id optional)
//   - TokenCodec - signs and verifies expiring bearer tokens (JWT, HMAC)
//   - UserStore - narrow persistence contract (FindByEmail, Insert)
//   - Service - Register, Login and ResolveCurrentUser
//
// Store backends live in the postgres, mongo and memory subpackages.
//
// # Errors
//
// Service only ever returns one of four error kinds, matchable with errors.Is:
//   - ErrDuplicateUser - email already registered
//   - ErrHashingFailure - hashing subsystem failed, not retried
//   - ErrInvalidCredentials - unknown email, wrong password, or bad token
//   - ErrStoreUnavailable - the backing store could not serve the request
//
// Unknown email and wrong password produce the same error value shape so
// callers cannot enumerate accounts.
package auth
