package application

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the kind of error returned when the trade, listing or
	// user targeted by an operation does not exist or cannot be verified.
	ErrNotFound = errors.New("not found")
	// ErrInvalidOperation is the kind of error returned when an operation
	// violates a business rule.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrValidation is the kind of error returned when the input of an
	// operation is malformed. It is always detected before any remote call.
	ErrValidation = errors.New("validation failed")
)

// Error is a failure of an operation carrying a user facing message. Use
// errors.Is with ErrNotFound, ErrInvalidOperation or ErrValidation to find
// out its kind.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.kind
}

func NotFoundError(format string, args ...interface{}) error {
	return &Error{ErrNotFound, fmt.Sprintf(format, args...)}
}

func InvalidOperationError(format string, args ...interface{}) error {
	return &Error{ErrInvalidOperation, fmt.Sprintf(format, args...)}
}

func ValidationError(format string, args ...interface{}) error {
	return &Error{ErrValidation, fmt.Sprintf(format, args...)}
}
