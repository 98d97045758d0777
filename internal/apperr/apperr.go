package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the stable categories exposed to
// callers. The mapping to HTTP status codes lives here so every handler
// reports the same way.
type Kind string

const (
	InvalidArgument Kind = "invalid_argument" // malformed or missing required field
	NotFound        Kind = "not_found"        // missing resource or ownership mismatch
	Conflict        Kind = "conflict"         // uniqueness violation
	Unavailable     Kind = "unavailable"      // transient store failure, safe to retry
	Internal        Kind = "internal"         // unexpected, unclassified failure
)

// Error carries a stable (kind, message) pair plus the underlying cause.
// The cause is for logs and diagnostic mode only, never part of the
// client-facing contract.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows access to the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with the given kind and message
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error preserving the underlying cause
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or Internal when err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is lets errors.Is match against kind sentinels created with New
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// HTTPStatus maps an error kind to its HTTP status code
func HTTPStatus(kind Kind) int {
	switch kind {
	case InvalidArgument:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
