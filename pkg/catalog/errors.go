package catalog

import "errors"

var (
	// ErrMissingTimestamp indicates an event without a timestamp. It aborts the catalog load.
	ErrMissingTimestamp = errors.New("catalog: event does not have a timestamp")
	// ErrInvalidTimestamp indicates a timestamp in none of the accepted layouts.
	ErrInvalidTimestamp = errors.New("catalog: invalid timestamp")
	// ErrNotFound indicates an unknown kind or slug.
	ErrNotFound = errors.New("catalog: not found")
	// ErrUnknownRule indicates a previous-event rule outside the known set.
	ErrUnknownRule = errors.New("catalog: unknown previous-event rule")
)
