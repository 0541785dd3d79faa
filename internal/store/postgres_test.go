// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authd/pkg/errutil"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakePinger struct {
	failures int
	calls    int
}

func (p *fakePinger) Ping(context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestConnect_RequiresURL(t *testing.T) {
	_, err := Connect(context.Background(), PoolConfig{}, quietLogger)
	errutil.AssertErrorCode(t, err, "DB_CONFIG_INVALID")
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), PoolConfig{URL: "postgres://localhost:notaport/authd"}, quietLogger)
	errutil.AssertErrorCode(t, err, "DB_CONFIG_INVALID")
}

func TestWaitReady_RetriesUntilReachable(t *testing.T) {
	db := &fakePinger{failures: 2}
	err := waitReady(context.Background(), db, PoolConfig{ConnectAttempts: 5, ConnectBackoff: time.Millisecond}, quietLogger)
	require.NoError(t, err)
	assert.Equal(t, 3, db.calls)
}

func TestWaitReady_GivesUp(t *testing.T) {
	db := &fakePinger{failures: 100}
	err := waitReady(context.Background(), db, PoolConfig{ConnectAttempts: 3, ConnectBackoff: time.Millisecond}, quietLogger)
	errutil.AssertErrorCode(t, err, "DB_CONNECT_FAILED")
	errutil.AssertErrorContext(t, err, "attempts", 3)
	assert.Equal(t, 3, db.calls)
}

func TestWaitReady_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	db := &fakePinger{failures: 100}
	err := waitReady(ctx, db, PoolConfig{ConnectAttempts: 10, ConnectBackoff: time.Hour}, quietLogger)
	require.Error(t, err)
	assert.LessOrEqual(t, db.calls, 1)
}
