// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxInput is the longest input bcrypt accepts.
const bcryptMaxInput = 72

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher. A zero cost selects the default.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = defaultBcryptCost()
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, oops.Code("AUTH_INVALID_COST").
			With("cost", cost).
			With("min", bcrypt.MinCost).
			With("max", bcrypt.MaxCost).
			Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Algorithm returns AlgorithmBcrypt.
func (h *BcryptHasher) Algorithm() string {
	return AlgorithmBcrypt
}

// Cost returns the configured cost factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash produces a bcrypt hash of the password. Any string is accepted,
// including the empty one and those longer than 72 bytes.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(bcryptInput(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_BCRYPT_FAILED").
			With("cost", h.cost).
			Wrap(err)
	}
	return string(hash), nil
}

// Verify checks if the password matches the bcrypt hash.
func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password)) == nil
}

// bcryptInput returns the bytes fed to bcrypt. Passwords over the bcrypt
// limit are reduced to base64(SHA-256(password)) so every byte counts.
func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxInput {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
