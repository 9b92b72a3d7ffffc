package repository

import "errors"

var (
	// ErrNilEntity is returned when a nil entity is passed to a write operation.
	ErrNilEntity = errors.New("entity must not be nil")

	// ErrInvalidPage is returned when a page request has a bad number or size.
	ErrInvalidPage = errors.New("invalid page request")

	// ErrInvalidSort is returned when a page request sorts by an unknown field.
	ErrInvalidSort = errors.New("invalid sort field")
)
