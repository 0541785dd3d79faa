// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/holomush/authd/internal/auth"
	"github.com/holomush/authd/internal/auth/memory"
	authmongo "github.com/holomush/authd/internal/auth/mongo"
	authpg "github.com/holomush/authd/internal/auth/postgres"
	"github.com/holomush/authd/internal/config"
	"github.com/holomush/authd/internal/store"
)

// openStore connects the user store selected by cfg.Driver.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (auth.UserStore, func(), error) {
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory user store, users are lost on exit")
		return memory.NewStore(), func() {}, nil

	case config.DriverPostgres:
		pool, err := store.Connect(ctx, store.PoolConfig{
			URL:             cfg.URL,
			ConnectAttempts: uint64(max(cfg.ConnectRetries, 0)) + 1,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return authpg.NewUserStore(pool), pool.Close, nil

	case config.DriverMongo:
		client, err := connectMongo(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		closeClient := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn("error disconnecting mongo client", "error", err)
			}
		}

		db := client.Database(cfg.Database)
		if err := authmongo.EnsureIndexes(ctx, db); err != nil {
			closeClient()
			return nil, nil, err
		}
		return authmongo.NewUserStore(db), closeClient, nil

	default:
		return nil, nil, oops.Code("CONFIG_INVALID").
			With("driver", cfg.Driver).
			Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

func connectMongo(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*mongodriver.Client, error) {
	backoff := retry.NewExponential(500 * time.Millisecond)
	backoff = retry.WithCappedDuration(5*time.Second, backoff)
	backoff = retry.WithMaxRetries(uint64(max(cfg.ConnectRetries, 0)), backoff)

	var (
		client  *mongodriver.Client
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		c, err := authmongo.Connect(ctx, cfg.URL)
		if err != nil {
			logger.WarnContext(ctx, "mongo not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, oops.Code("MONGO_CONNECT_FAILED").With("attempts", attempt).Wrap(err)
	}
	return client, nil
}
