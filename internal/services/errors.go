// Package services defines the business logic for the community directory:
// provider listings, marketplace items, events, groups, comments, reviews and
// uploads. This file centralizes the service-level error values so they can
// be returned consistently by service methods and checked by callers.
//
// Translation into HTTP status codes and user-facing envelopes happens in the
// handler layer:
//
//	*ValidationError        -> 400
//	ErrUnauthenticated      -> 401
//	ErrNotFoundOrForbidden  -> 404 (absent and not-owned are indistinguishable)
//	ErrNotFound             -> 404
//	ErrPayloadTooLarge      -> 413
//	anything else           -> 500 (store failure)
package services

import (
	"errors"

	"github.com/tbourn/briar-chapel-connect/internal/auth"
)

// ValidationError reports malformed or missing input. Msg is safe to show to
// clients as-is.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	// ErrUnauthenticated is returned when a mutation is attempted without a
	// valid identity.
	ErrUnauthenticated = auth.ErrUnauthenticated

	// ErrNotFoundOrForbidden is returned when a delete matched no row owned by
	// the caller.
	ErrNotFoundOrForbidden = errors.New("not found or not owned by user")

	// ErrNotFound is returned when a referenced or requested row is absent.
	ErrNotFound = errors.New("not found")

	// ErrPayloadTooLarge is returned when an upload exceeds the size cap.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// DetailError attaches a client-facing message to one of the sentinels above.
type DetailError struct {
	Err error
	Msg string
}

func (e *DetailError) Error() string { return e.Msg }
func (e *DetailError) Unwrap() error { return e.Err }

func notOwned(msg string) error { return &DetailError{Err: ErrNotFoundOrForbidden, Msg: msg} }
func notFound(msg string) error { return &DetailError{Err: ErrNotFound, Msg: msg} }
