// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/samber/oops"

	"github.com/holomush/authd/internal/auth"
)

type userKey struct{}

// UserFromContext returns the user stored by RequireUser.
func UserFromContext(ctx context.Context) (auth.PublicUser, bool) {
	user, ok := ctx.Value(userKey{}).(auth.PublicUser)
	return user, ok
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user auth.PublicUser) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireUser resolves the bearer token of each request and rejects the
// request with 401 when it does not identify a user.
func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			// Same shape as a rejected token.
			h.writeAuthError(w, r, oops.Code(auth.CodeInvalidCredentials).Wrap(auth.ErrInvalidCredentials))
			return
		}

		user, err := h.auth.ResolveCurrentUser(r.Context(), token)
		if err != nil {
			h.writeAuthError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}
