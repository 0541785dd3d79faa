// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/holomush/authd/internal/auth"
	"github.com/holomush/authd/pkg/errutil"
)

// CodeRequestInvalid marks requests rejected before reaching the service.
const CodeRequestInvalid = "REQUEST_INVALID"

type errorBody struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusFor maps a workflow error code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case auth.CodeDuplicateUser:
		return http.StatusBadRequest
	case auth.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case auth.CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// detailFor is the client-facing message of a workflow error. It is fixed
// per code so responses never echo internal context.
func detailFor(code string) string {
	switch code {
	case auth.CodeDuplicateUser:
		return "Email already registered"
	case auth.CodeInvalidCredentials:
		return "Could not validate credentials"
	case auth.CodeStoreUnavailable:
		return "Service temporarily unavailable"
	default:
		return "Internal server error"
	}
}

func (h *Handler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	code := auth.Kind(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		errutil.LogError(r.Context(), h.logger, "auth request failed", err)
	}
	if code == "" {
		code = "INTERNAL"
	}
	if code == auth.CodeInvalidCredentials {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	h.writeError(w, status, detailFor(code), code)
}

func (h *Handler) writeValidationError(w http.ResponseWriter, err error) {
	body := errorBody{Detail: "request validation failed", Code: CodeRequestInvalid}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		body.Fields = make(map[string]string, len(fieldErrs))
		for field, fieldErr := range fieldErrs {
			body.Fields[field] = fieldErr.Error()
		}
	}
	h.writeJSON(w, http.StatusUnprocessableEntity, body)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, detail, code string) {
	h.writeJSON(w, status, errorBody{Detail: detail, Code: code})
}
