// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// maxPasswordLength bounds the work a single request can ask the hasher for.
const maxPasswordLength = 1024

func passwordBytes(value any) error {
	s, _ := value.(string)
	if len(s) > maxPasswordLength {
		return fmt.Errorf("must be at most %d bytes", maxPasswordLength)
	}
	return nil
}

type validatable interface {
	Validate() error
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements validation.Validatable.
func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.By(passwordBytes)),
	)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements validation.Validatable.
func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.By(passwordBytes)),
	)
}
