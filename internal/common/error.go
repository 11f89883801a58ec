// Package common defines shared sentinel errors and small helpers used across
// the client and server layers of GophChat. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// Auth errors. ErrorUnauthorized is the recoverable "wrong password" outcome.
	ErrorUnauthorized             = errors.New("unauthorized")
	ErrCredentialStoreUnavailable = errors.New("credential store unavailable")
	ErrTooManyAttempts            = errors.New("too many failed login attempts")

	// E2E errors: integrity check failed or plaintext is not valid text.
	ErrDecrypt = errors.New("unable to decrypt message")
)
