// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Operation names reported to a Recorder.
const (
	OperationRegister    = "register"
	OperationLogin       = "login"
	OperationResolveUser = "resolve_user"
)

// ResultSuccess is the result label for successful operations. Failed
// operations are labelled with their error code.
const ResultSuccess = "success"

// Recorder receives operational measurements from Service.
type Recorder interface {
	RecordOperation(operation, result string)
	ObserveHash(algorithm string, d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordOperation(string, string) {}
func (noopRecorder) ObserveHash(string, time.Duration) {}

// Service provides the registration, login and current-user workflows.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	users   UserStore
	hasher  PasswordHasher
	tokens  TokenCodec
	logger  *slog.Logger
	metrics Recorder
	now     func() time.Time

	// dummyHash is verified against on unknown-email logins.
	dummyHash string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for operator-facing diagnostics.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the clock used for record timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		s.metrics = r
	}
}

// NewService creates a new Service.
func NewService(users UserStore, hasher PasswordHasher, tokens TokenCodec, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("user store is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("token codec is required")
	}

	s := &Service{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		logger:  slog.Default(),
		metrics: noopRecorder{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("logger cannot be nil")
	}
	if s.metrics == nil {
		s.metrics = noopRecorder{}
	}
	if s.now == nil {
		s.now = time.Now
	}

	dummy, err := newDummyHash(hasher)
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").With("component", "dummy hash").Wrap(err)
	}
	s.dummyHash = dummy
	return s, nil
}

// Register creates a new user account and returns its public view.
func (s *Service) Register(ctx context.Context, name, email, password string) (PublicUser, error) {
	user, err := s.register(ctx, name, email, password)
	s.metrics.RecordOperation(OperationRegister, resultOf(err))
	if err != nil {
		return PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *Service) register(ctx context.Context, name, email, password string) (*User, error) {
	email = NormalizeEmail(email)

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "registration rejected", "email", email, "reason", "email_taken")
		return nil, duplicateUserError(email)
	case !errors.Is(err, ErrNotFound):
		return nil, s.storeError(ctx, "find user by email", err)
	}

	hash, err := s.hash(password)
	if err != nil {
		s.logger.ErrorContext(ctx, "password hashing failed", "email", email, "error", err)
		return nil, oops.Code(CodeHashingFailed).
			With("operation", "hash password").
			Wrap(ErrHashingFailure)
	}

	now := s.now().UTC()
	user, err := s.users.Insert(ctx, NewUser{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			// A concurrent registration won the race past the pre-check.
			s.logger.InfoContext(ctx, "registration rejected", "email", email, "reason", "duplicate_on_insert")
			return nil, duplicateUserError(email)
		}
		return nil, s.storeError(ctx, "insert user", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "email", email)
	return user, nil
}

// Login verifies credentials and issues a bearer token for the user.
// Unknown emails and wrong passwords yield the same error.
func (s *Service) Login(ctx context.Context, email, password string) (AuthToken, error) {
	token, err := s.login(ctx, email, password)
	s.metrics.RecordOperation(OperationLogin, resultOf(err))
	return token, err
}

func (s *Service) login(ctx context.Context, email, password string) (AuthToken, error) {
	email = NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return AuthToken{}, s.storeError(ctx, "find user by email", err)
		}
		// Still pay for a verification so response time does not reveal
		// whether the account exists.
		s.hasher.Verify(password, s.dummyHash)
		s.logger.InfoContext(ctx, "login failed", "email", email, "reason", "unknown_email")
		return AuthToken{}, invalidCredentialsError()
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.InfoContext(ctx, "login failed", "email", email, "reason", "password_mismatch")
		return AuthToken{}, invalidCredentialsError()
	}

	token, err := s.tokens.Issue(user.Email, 0)
	if err != nil {
		// Signing failures are fatal crypto errors, reported like hashing failures.
		s.logger.ErrorContext(ctx, "token issue failed", "user_id", user.ID, "error", err)
		return AuthToken{}, oops.Code(CodeHashingFailed).
			With("operation", "issue token").
			Wrap(ErrHashingFailure)
	}

	s.logger.InfoContext(ctx, "login succeeded", "user_id", user.ID)
	return token, nil
}

// ResolveCurrentUser returns the public view of the user a bearer token was
// issued to.
func (s *Service) ResolveCurrentUser(ctx context.Context, token string) (PublicUser, error) {
	user, err := s.resolveCurrentUser(ctx, token)
	s.metrics.RecordOperation(OperationResolveUser, resultOf(err))
	if err != nil {
		return PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *Service) resolveCurrentUser(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokens.Decode(token)
	if err != nil {
		s.logger.DebugContext(ctx, "token rejected", "error", err)
		return nil, invalidCredentialsError()
	}

	user, err := s.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.InfoContext(ctx, "token subject no longer exists", "email", claims.Subject)
			return nil, invalidCredentialsError()
		}
		return nil, s.storeError(ctx, "find user by email", err)
	}
	return user, nil
}

func (s *Service) hash(password string) (string, error) {
	start := time.Now()
	hash, err := s.hasher.Hash(password)
	if err == nil {
		s.metrics.ObserveHash(algorithmOf(s.hasher), time.Since(start))
	}
	return hash, err
}

// newDummyHash hashes a random password with hasher, so that verifying
// against it costs the same as verifying a real user's hash.
func newDummyHash(hasher PasswordHasher) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Wrap(err)
	}
	hash, err := hasher.Hash(hex.EncodeToString(buf))
	if err != nil {
		return "", err
	}
	if hash == "" {
		return "", oops.Errorf("hasher returned an empty hash")
	}
	return hash, nil
}

// storeError logs the underlying store failure and returns the workflow
// error. The raw error does not leave the service.
func (s *Service) storeError(ctx context.Context, operation string, err error) error {
	reason := "unclassified"
	if errors.Is(err, ErrStoreUnavailable) {
		reason = "unavailable"
	}
	s.logger.ErrorContext(ctx, "user store failure",
		"operation", operation,
		"reason", reason,
		"error", err,
	)
	return oops.Code(CodeStoreUnavailable).
		With("operation", operation).
		Wrap(ErrStoreUnavailable)
}

func duplicateUserError(email string) error {
	return oops.Code(CodeDuplicateUser).
		With("email", email).
		Wrap(ErrDuplicateUser)
}

func invalidCredentialsError() error {
	return oops.Code(CodeInvalidCredentials).Wrap(ErrInvalidCredentials)
}

func resultOf(err error) string {
	if err == nil {
		return ResultSuccess
	}
	if kind := Kind(err); kind != "" {
		return kind
	}
	return "error"
}

func algorithmOf(h PasswordHasher) string {
	if named, ok := h.(interface{ Algorithm() string }); ok {
		return named.Algorithm()
	}
	return "unknown"
}
