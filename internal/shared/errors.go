package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates the request clashes with current state.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput indicates a request that fails domain validation.
	ErrInvalidInput = errors.New("invalid input")
)
