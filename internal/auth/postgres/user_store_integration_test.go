// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/authd/internal/auth"
	"github.com/holomush/authd/internal/auth/postgres"
)

func newUser(email string) auth.NewUser {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return auth.NewUser{
		Email:        email,
		Name:         "Ann",
		PasswordHash: "$2a$04$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

var _ = Describe("UserStore", func() {
	var (
		ctx   context.Context
		users *postgres.UserStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		users = postgres.NewUserStore(testPool)
		_, err := testPool.Exec(ctx, `DELETE FROM users`)
		Expect(err).NotTo(HaveOccurred())
	})

	It("round trips an inserted user", func() {
		fields := newUser("ann@x.com")

		stored, err := users.Insert(ctx, fields)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.ID).To(HaveLen(26))
		Expect(stored.CreatedAt).To(Equal(fields.CreatedAt))

		found, err := users.FindByEmail(ctx, "ann@x.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(Equal(stored))
	})

	It("reports a missing email as not found", func() {
		_, err := users.FindByEmail(ctx, "nobody@x.com")
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("rejects a second user with the same email", func() {
		_, err := users.Insert(ctx, newUser("ann@x.com"))
		Expect(err).NotTo(HaveOccurred())

		_, err = users.Insert(ctx, newUser("ann@x.com"))
		Expect(err).To(MatchError(auth.ErrDuplicateEmail))
	})

	It("lets exactly one concurrent insert win", func() {
		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := users.Insert(ctx, newUser("race@x.com"))
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
					return
				}
				Expect(err).To(MatchError(auth.ErrDuplicateEmail))
			}()
		}
		wg.Wait()
		Expect(succeeded).To(Equal(1))
	})

	It("rejects emails that were not normalized", func() {
		_, err := users.Insert(ctx, newUser("Ann@X.com"))
		Expect(err).To(HaveOccurred())
		Expect(err).NotTo(MatchError(auth.ErrDuplicateEmail))
	})

	It("reports a cancelled context as store unavailable", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := users.FindByEmail(cancelled, "ann@x.com")
		Expect(err).To(MatchError(auth.ErrStoreUnavailable))
	})
})
