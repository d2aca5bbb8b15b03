// Package internalerr holds the sentinel errors every topology package
// wraps, so callers can branch with errors.Is.
package internalerr

import "errors"

var (
	// ErrInvalidInput rejects malformed arguments or records.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfig rejects out-of-range parameters before any work.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrTooFewItems is returned when an operation needs more items than
	// it was given.
	ErrTooFewItems = errors.New("too few items")
	// ErrStoreUnavailable wraps cache storage failures.
	ErrStoreUnavailable = errors.New("store unavailable")
)
