// Package common defines shared constants and sentinel errors used across
// client and server layers of bizkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("record belongs to another user")

	// Validation errors.
	ErrorInvalidEntityType = errors.New("invalid entity type")
	ErrorInvalidRecord     = errors.New("invalid record")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
