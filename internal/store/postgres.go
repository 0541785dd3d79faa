// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package store provides PostgreSQL connection management and schema
// migrations for the user store.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Default connection settings.
const (
	DefaultConnectAttempts = 5
	DefaultConnectBackoff  = 500 * time.Millisecond
	maxConnectBackoff      = 5 * time.Second
)

// PoolConfig configures the PostgreSQL connection pool.
type PoolConfig struct {
	URL             string
	MaxConns        int32
	ConnectAttempts uint64
	ConnectBackoff  time.Duration
}

// pinger is satisfied by *pgxpool.Pool.
type pinger interface {
	Ping(ctx context.Context) error
}

// Connect opens a pool and waits until the database answers a ping,
// retrying with capped exponential backoff.
func Connect(ctx context.Context, cfg PoolConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, oops.Code("DB_CONFIG_INVALID").Errorf("database url is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := waitReady(ctx, pool, cfg, logger); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func waitReady(ctx context.Context, db pinger, cfg PoolConfig, logger *slog.Logger) error {
	attempts := cfg.ConnectAttempts
	if attempts == 0 {
		attempts = DefaultConnectAttempts
	}
	base := cfg.ConnectBackoff
	if base <= 0 {
		base = DefaultConnectBackoff
	}

	backoff := retry.NewExponential(base)
	backoff = retry.WithCappedDuration(maxConnectBackoff, backoff)
	backoff = retry.WithMaxRetries(attempts-1, backoff)

	var attempt int
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := db.Ping(ctx); err != nil {
			logger.WarnContext(ctx, "database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}
	return nil
}
