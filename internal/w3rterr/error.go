// Package w3rterr provides the structured error type used across the
// workflow compiler, engine, policy, and trace packages. Errors carry a
// machine-readable code (the taxonomy in spec.md §7) alongside a
// human-readable message, and preserve causal chains for errors.Is/As.
package w3rterr

import (
	"errors"
	"fmt"
)

// Error is a structured failure with a machine-readable code.
type Error struct {
	// Code is one of the taxonomy strings (e.g. "CYCLE", "MAINNET_DISABLED").
	Code string
	// Message is the human-readable summary.
	Message string
	// Cause links to the underlying error, enabling error chains via Unwrap.
	Cause error
}

// New constructs an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error that wraps an underlying cause.
func Wrap(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped cause, supporting errors.Is/As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// CodeOf extracts the Code from err if it is (or wraps) an *Error.
func CodeOf(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
