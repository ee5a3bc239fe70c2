// Package apperr defines the error taxonomy shared across the engine.
// Every failure that reaches a caller is classified by Kind so handlers
// can map it to a transport status without inspecting messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	Unauthenticated    Kind = "UNAUTHENTICATED"
	InvalidArgument    Kind = "INVALID_ARGUMENT"
	NotFound           Kind = "NOT_FOUND"
	FailedPrecondition Kind = "FAILED_PRECONDITION"
	DeadlineExceeded   Kind = "DEADLINE_EXCEEDED"
	ResourceExhausted  Kind = "RESOURCE_EXHAUSTED"
	PermissionDenied   Kind = "PERMISSION_DENIED"
	Internal           Kind = "INTERNAL"
)

// Error carries a Kind alongside a human-readable message and an
// optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with the given kind and message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that wraps a cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the Kind of an error. Unclassified errors are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether the error carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a Kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Unauthenticated:
		return http.StatusUnauthorized
	case InvalidArgument:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case FailedPrecondition:
		return http.StatusPreconditionFailed
	case DeadlineExceeded:
		return http.StatusGone
	case ResourceExhausted:
		return http.StatusTooManyRequests
	case PermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
