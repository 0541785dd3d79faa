// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package mongo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/holomush/authd/internal/auth"
	authmongo "github.com/holomush/authd/internal/auth/mongo"
)

func TestUserStore_Integration(t *testing.T) {
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := authmongo.Connect(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	db := client.Database("authd_test")
	require.NoError(t, authmongo.EnsureIndexes(ctx, db))
	require.NoError(t, authmongo.EnsureIndexes(ctx, db), "index creation is idempotent")

	users := authmongo.NewUserStore(db)
	now := time.Now().UTC().Truncate(time.Millisecond)
	fields := auth.NewUser{Email: "ann@x.com", Name: "Ann", PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}

	stored, err := users.Insert(ctx, fields)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)

	found, err := users.FindByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, stored, found)

	_, err = users.Insert(ctx, fields)
	assert.ErrorIs(t, err, auth.ErrDuplicateEmail)

	_, err = users.FindByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, auth.ErrNotFound)

	// The full workflow runs against the mongo store unchanged.
	hasher, err := auth.NewBcryptHasher(4)
	require.NoError(t, err)
	codec, err := auth.NewJWTCodec(auth.TokenConfig{Secret: "integration-secret"})
	require.NoError(t, err)
	svc, err := auth.NewService(users, hasher, codec)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Bob", "bob@x.com", "pw123")
	require.NoError(t, err)
	token, err := svc.Login(ctx, "bob@x.com", "pw123")
	require.NoError(t, err)
	me, err := svc.ResolveCurrentUser(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "Bob", me.Name)
}
