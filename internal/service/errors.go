package service

import (
	"errors"
	"fmt"
)

// Error kinds returned by the services.  Handlers map them onto HTTP
// status codes; any error that matches none of them is an internal
// failure.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("unauthorized")
)

// Error is a classified failure with a client-facing message.
// errors.Is(err, ErrNotFound) and friends match on Kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error { return newError(ErrNotFound, format, args...) }
func conflict(format string, args ...any) error { return newError(ErrConflict, format, args...) }
func invalid(format string, args ...any) error  { return newError(ErrInvalidArgument, format, args...) }
func forbidden(format string, args ...any) error {
	return newError(ErrForbidden, format, args...)
}
func unauthorized(format string, args ...any) error {
	return newError(ErrUnauthorized, format, args...)
}

// Message returns the client-facing text of err, or "" when err is not
// a classified service error.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Msg
	}
	return ""
}
