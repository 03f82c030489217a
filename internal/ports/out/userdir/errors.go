package userdir

import "errors"

var (
	// ErrDuplicateEmail indicates a record with the same email already exists.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrNotFound indicates no record matched. Authenticate also returns it for a
	// wrong password so callers cannot tell the two cases apart.
	ErrNotFound = errors.New("user not found")

	// ErrBackendUnavailable indicates the backend could not be reached.
	ErrBackendUnavailable = errors.New("directory backend unavailable")

	// ErrBackend wraps any other failure reported by the backend.
	ErrBackend = errors.New("directory backend error")
)
