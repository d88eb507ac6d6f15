// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across gateway/session/editor/inventory layers.
var (
	// ErrNotFound indicates the requested listing or resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthenticated indicates an operation that requires an active session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUnauthorized indicates rejected credentials or an invalid token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation indicates a client-local validation failure; the
	// request never reached the network.
	ErrValidation = errors.New("validation failed")
)
