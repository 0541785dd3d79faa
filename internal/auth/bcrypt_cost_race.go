// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

func defaultBcryptCost() int {
	// Race-enabled builds run an order of magnitude slower.
	return bcrypt.MinCost
}
