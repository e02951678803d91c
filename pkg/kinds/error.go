package kinds

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error is the core's uniform error envelope. Every error that crosses a
// component boundary is wrapped into one of these so that callers can
// switch on Kind instead of matching strings.
type Error struct {
	Kind  ErrorKind
	Path  string
	cause error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path=%s)", e.Kind, e.cause, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.cause)
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// New builds a kinded error with the given message.
func New(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, cause: errors.New(message)}
}

// Newf builds a kinded error with a formatted message.
func Newf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, cause: errors.Errorf(format, args...)}
}

// Wrap wraps an existing error with a kind and message, preserving the
// original error as the cause chain.
func Wrap(kind ErrorKind, err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, cause: errors.Wrap(err, message)}
}

// WithPath attaches the offending path to the error, matching the
// PathUnsafe and PreconditionViolated contract of surfacing the offending
// path.
func (e *Error) WithPath(path string) *Error {
	if e == nil {
		return nil
	}
	e.Path = path
	return e
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
