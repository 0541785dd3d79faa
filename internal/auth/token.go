// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// TokenTypeBearer is the token type reported to clients.
const TokenTypeBearer = "bearer"

// DefaultTokenTTL applies when TokenConfig.TTL is zero.
const DefaultTokenTTL = 15 * time.Minute

// AuthToken is a signed bearer token handed to a client after login.
type AuthToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenClaims is the decoded payload of a valid token.
type TokenClaims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec issues and verifies bearer tokens.
type TokenCodec interface {
	// Issue signs a token for subject expiring ttl from now.
	// A non-positive ttl selects the codec's default.
	Issue(subject string, ttl time.Duration) (AuthToken, error)

	// Decode verifies signature and expiry and returns the claims.
	// Every failure wraps ErrInvalidToken.
	Decode(token string) (TokenClaims, error)
}

// TokenConfig is the immutable signing configuration of a JWTCodec.
type TokenConfig struct {
	Secret    string
	Algorithm string
	TTL       time.Duration
	Issuer    string
}

// JWTCodec implements TokenCodec with HMAC-signed JWTs.
type JWTCodec struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// CodecOption configures a JWTCodec.
type CodecOption func(*JWTCodec)

// WithCodecClock overrides the clock used for issuing and verifying tokens.
func WithCodecClock(now func() time.Time) CodecOption {
	return func(c *JWTCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewJWTCodec creates a JWTCodec from cfg.
func NewJWTCodec(cfg TokenConfig, opts ...CodecOption) (*JWTCodec, error) {
	if cfg.Secret == "" {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").Errorf("signing secret is required")
	}

	alg := cfg.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").
			With("algorithm", alg).
			Errorf("unsupported signing algorithm: %s", alg)
	}

	if cfg.TTL < 0 {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").
			With("ttl", cfg.TTL.String()).
			Errorf("token ttl cannot be negative")
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}

	c := &JWTCodec{
		secret: []byte(cfg.Secret),
		method: method,
		ttl:    ttl,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DefaultTTL returns the lifetime applied when Issue is called without one.
func (c *JWTCodec) DefaultTTL() time.Duration {
	return c.ttl
}

// Issue signs a token for subject.
func (c *JWTCodec) Issue(subject string, ttl time.Duration) (AuthToken, error) {
	if subject == "" {
		return AuthToken{}, oops.Code("TOKEN_ISSUE_FAILED").Errorf("token subject cannot be empty")
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	now := c.now()
	claims := jwt.RegisteredClaims{
		Issuer:    c.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return AuthToken{}, oops.Code("TOKEN_ISSUE_FAILED").
			With("algorithm", c.method.Alg()).
			Wrap(err)
	}

	return AuthToken{
		AccessToken: signed,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Decode parses and validates a token string.
func (c *JWTCodec) Decode(raw string) (TokenClaims, error) {
	if raw == "" {
		return TokenClaims{}, oops.Code("TOKEN_EMPTY").Wrap(ErrInvalidToken)
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(c.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, parserOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, oops.Code("TOKEN_EXPIRED").
				With("reason", err.Error()).
				Wrap(ErrInvalidToken)
		}
		return TokenClaims{}, oops.Code("TOKEN_INVALID").
			With("reason", err.Error()).
			Wrap(ErrInvalidToken)
	}

	if claims.Subject == "" {
		return TokenClaims{}, oops.Code("TOKEN_INVALID").
			With("reason", "missing subject").
			Wrap(ErrInvalidToken)
	}

	decoded := TokenClaims{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		decoded.IssuedAt = claims.IssuedAt.Time
	}
	return decoded, nil
}
