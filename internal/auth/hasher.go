// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// Supported hashing algorithms.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// Limits on parameters read back from a stored hash. Anything outside them
// is treated as a corrupt hash rather than derived.
const (
	argon2MaxMemory  = 1 << 20 // KiB, 1 GiB
	argon2MaxTime    = 10
	argon2MinSaltLen = 8
	argon2MaxSaltLen = 64
	argon2MaxKeyLen  = 1 << 10
)

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the password. Every string,
	// including "", is hashable; errors mean the host ran out of entropy
	// or memory.
	Hash(password string) (string, error)

	// Verify reports whether the password matches the hash.
	// A malformed or foreign hash is reported as a mismatch.
	Verify(password, hash string) bool
}

// HasherConfig selects and tunes a PasswordHasher.
type HasherConfig struct {
	// Algorithm is AlgorithmBcrypt (default when empty) or AlgorithmArgon2id.
	Algorithm string
	// Cost is the bcrypt cost factor. Zero selects the default.
	Cost int
}

// NewPasswordHasher returns the hasher described by cfg.
func NewPasswordHasher(cfg HasherConfig) (PasswordHasher, error) {
	switch cfg.Algorithm {
	case "", AlgorithmBcrypt:
		return NewBcryptHasher(cfg.Cost)
	case AlgorithmArgon2id:
		return NewArgon2idHasher(), nil
	default:
		return nil, oops.Code("AUTH_UNKNOWN_HASHER").
			With("algorithm", cfg.Algorithm).
			Errorf("unsupported hashing algorithm: %s", cfg.Algorithm)
	}
}

// Argon2idHasher implements PasswordHasher using argon2id.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Algorithm returns AlgorithmArgon2id.
func (h *Argon2idHasher) Algorithm() string {
	return AlgorithmArgon2id
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// PHC string format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encoded, nil
}

// Verify checks if the password matches the hash.
func (h *Argon2idHasher) Verify(password, encodedHash string) bool {
	params, err := parseArgon2id(encodedHash)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), params.salt, params.time, params.memory, params.threads, uint32(len(params.key)))

	return subtle.ConstantTimeCompare(computed, params.key) == 1
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parseArgon2id(encodedHash string) (*argon2Params, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}

	if parts[1] != AlgorithmArgon2id {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if version != argon2.Version {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported argon2 version: %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	// threads must fit in uint8 to prevent silent truncation
	if threads == 0 || threads > 255 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("threads value %d out of range", threads)
	}
	if time == 0 || time > argon2MaxTime {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("time cost %d out of range", time)
	}
	// argon2 needs at least 8 KiB per lane.
	if memory < 8*threads || memory > argon2MaxMemory {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("memory cost %d out of range", memory)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if len(salt) < argon2MinSaltLen || len(salt) > argon2MaxSaltLen {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid salt length: %d", len(salt))
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	if len(key) == 0 || len(key) > argon2MaxKeyLen {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash key length: %d", len(key))
	}

	return &argon2Params{
		memory:  memory,
		time:    time,
		threads: uint8(threads),
		salt:    salt,
		key:     key,
	}, nil
}
