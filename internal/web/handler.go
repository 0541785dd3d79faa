// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package web exposes the auth workflows over HTTP.
//
// Routes:
//
//	POST /auth/register  {name, email, password}  -> 201 user
//	POST /auth/login     {email, password}        -> 200 token
//	GET  /auth/me        Authorization: Bearer    -> 200 user
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/holomush/authd/internal/auth"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Authenticator is the subset of auth.Service used by the HTTP layer.
type Authenticator interface {
	Register(ctx context.Context, name, email, password string) (auth.PublicUser, error)
	Login(ctx context.Context, email, password string) (auth.AuthToken, error)
	ResolveCurrentUser(ctx context.Context, token string) (auth.PublicUser, error)
}

// Handler serves the auth API.
type Handler struct {
	auth   Authenticator
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewHandler creates a Handler backed by svc.
func NewHandler(svc Authenticator, logger *slog.Logger) (*Handler, error) {
	if svc == nil {
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("authenticator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{auth: svc, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("POST /auth/register", h.handleRegister)
	h.mux.HandleFunc("POST /auth/login", h.handleLogin)
	h.mux.Handle("GET /auth/me", h.RequireUser(http.HandlerFunc(h.handleMe)))
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, token)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		// RequireUser guarantees a user; reaching here is a wiring bug.
		h.writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL")
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// decode reads a JSON body into dst and validates it. On failure the
// response has been written and false is returned.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst validatable) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large", CodeRequestInvalid)
			return false
		}
		h.writeError(w, http.StatusBadRequest, "malformed JSON body", CodeRequestInvalid)
		return false
	}

	if err := dst.Validate(); err != nil {
		h.writeValidationError(w, err)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Debug("failed to write response", "error", err)
	}
}
