// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authd/internal/auth"
	"github.com/holomush/authd/internal/auth/memory"
)

func newUser(email string) auth.NewUser {
	now := time.Now().UTC()
	return auth.NewUser{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestStore_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	stored, err := store.Insert(ctx, newUser("ann@x.com"))
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, "ann@x.com", stored.Email)

	found, err := store.FindByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, stored, found)
}

func TestStore_FindMissing(t *testing.T) {
	_, err := memory.NewStore().FindByEmail(context.Background(), "nobody@x.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrNotFound))
}

func TestStore_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	_, err := store.Insert(ctx, newUser("ann@x.com"))
	require.NoError(t, err)

	_, err = store.Insert(ctx, newUser("ann@x.com"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrDuplicateEmail))
	assert.Equal(t, 1, store.Len())
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	stored, err := store.Insert(ctx, newUser("ann@x.com"))
	require.NoError(t, err)
	stored.Name = "mutated"

	found, err := store.FindByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Test User", found.Name)
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := memory.NewStore().FindByEmail(ctx, "ann@x.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrStoreUnavailable))
}

func TestStore_ConcurrentInsertSameEmail(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Insert(ctx, newUser("race@x.com"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, auth.ErrDuplicateEmail))
	}
	assert.Equal(t, 1, succeeded)
}
