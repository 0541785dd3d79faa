// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/authd/internal/store"
)

func TestMigrator_FullCycle(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	migrator, err := store.NewMigrator(connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = migrator.Close() })

	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	require.NoError(t, migrator.Up())
	latest, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), latest)
	assert.False(t, dirty)

	pending, err := migrator.PendingMigrations()
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, migrator.Steps(-1))
	version, _, err = migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, latest-1, version)

	require.NoError(t, migrator.Steps(1))
	require.NoError(t, migrator.Down())
	version, _, err = migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	pool, err := store.Connect(ctx, store.PoolConfig{URL: connStr}, nil)
	require.NoError(t, err)
	defer pool.Close()

	var exists bool
	require.NoError(t, pool.QueryRow(ctx, `SELECT to_regclass('public.users') IS NOT NULL`).Scan(&exists))
	assert.False(t, exists, "Down should drop the users table")
}
