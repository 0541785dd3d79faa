// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/holomush/authd/internal/auth"
)

// MockUserStore is a mock auth.UserStore.
type MockUserStore struct {
	mock.Mock
}

// NewMockUserStore creates a MockUserStore that asserts its expectations on cleanup.
func NewMockUserStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUserStore {
	m := &MockUserStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// FindByEmail implements auth.UserStore.
func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	var user *auth.User
	if u := args.Get(0); u != nil {
		user = u.(*auth.User)
	}
	return user, args.Error(1)
}

// Insert implements auth.UserStore.
func (m *MockUserStore) Insert(ctx context.Context, user auth.NewUser) (*auth.User, error) {
	args := m.Called(ctx, user)
	var stored *auth.User
	if u := args.Get(0); u != nil {
		stored = u.(*auth.User)
	}
	return stored, args.Error(1)
}

// MockPasswordHasher is a mock auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher that asserts its expectations on cleanup.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash implements auth.PasswordHasher.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

// Verify implements auth.PasswordHasher.
func (m *MockPasswordHasher) Verify(password, hash string) bool {
	args := m.Called(password, hash)
	return args.Bool(0)
}

// MockTokenCodec is a mock auth.TokenCodec.
type MockTokenCodec struct {
	mock.Mock
}

// NewMockTokenCodec creates a MockTokenCodec that asserts its expectations on cleanup.
func NewMockTokenCodec(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTokenCodec {
	m := &MockTokenCodec{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Issue implements auth.TokenCodec.
func (m *MockTokenCodec) Issue(subject string, ttl time.Duration) (auth.AuthToken, error) {
	args := m.Called(subject, ttl)
	return args.Get(0).(auth.AuthToken), args.Error(1)
}

// Decode implements auth.TokenCodec.
func (m *MockTokenCodec) Decode(token string) (auth.TokenClaims, error) {
	args := m.Called(token)
	return args.Get(0).(auth.TokenClaims), args.Error(1)
}

var (
	_ auth.UserStore      = (*MockUserStore)(nil)
	_ auth.PasswordHasher = (*MockPasswordHasher)(nil)
	_ auth.TokenCodec     = (*MockTokenCodec)(nil)
)
