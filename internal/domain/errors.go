package domain

import "errors"

var (
	// ErrNotFound is returned by read paths for an unknown place.
	ErrNotFound = errors.New("not found")

	// ErrTableMissing means a raw input table has never been written.
	// Callers must not confuse this with a zero-row run.
	ErrTableMissing = errors.New("raw table missing")
)
