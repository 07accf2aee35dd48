package wt

import "errors"

// Sentinel errors surfaced by backend implementations. Callers match
// them with errors.Is; implementations wrap them with context.
var (
	// ErrNotFound is returned when a lookup by key matches nothing.
	ErrNotFound = errors.New("object not found")

	// ErrAlreadyExists is returned when a create collides with a live
	// object of the same key.
	ErrAlreadyExists = errors.New("object already exists")

	// ErrUnavailable is returned when the target service exists but is
	// not accepting sessions.
	ErrUnavailable = errors.New("target service unavailable")
)
