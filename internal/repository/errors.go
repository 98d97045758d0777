package repository

import "errors"

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness or constraint violation.
	ErrConflict = errors.New("conflict")
)

// IsNotFound checks whether the error is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks whether the error is ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
