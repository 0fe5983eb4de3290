// Package common defines shared constants and sentinel errors used across
// repositories, services and transports. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Credential errors. Unknown email and wrong password share this value.
	ErrorInvalidCredentials = errors.New("unable to login")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
