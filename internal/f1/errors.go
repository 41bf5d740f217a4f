package f1

import "errors"

var (
	// ErrNotFound is returned by a Store when a resource has no snapshot yet.
	ErrNotFound = errors.New("no snapshot for resource")

	// ErrOutOfRange is returned when a place or round does not exist in the
	// current snapshot. Callers are expected to stay within the reported counts.
	ErrOutOfRange = errors.New("index out of range")

	// ErrMalformed wraps JSON and shape failures of an upstream body.
	ErrMalformed = errors.New("malformed document")

	ErrUnknownResource = errors.New("unknown resource")
)
