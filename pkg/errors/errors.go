// Package errors provides structured error types for stackdiagram.
//
// Errors carry a machine-readable [Code] so that the CLI and the HTTP API can
// tell the three failure classes of a diagram run apart:
//   - configuration errors (INVALID_*): bad formats, paths, styles, engines or
//     definition files, surfaced before anything is rendered
//   - contract violations (CONTRACT_VIOLATION): programming errors such as an
//     unmatched cluster exit or an edge using a foreign node handle
//   - delegated failures (RENDER_FAILED, WRITE_FAILED): the layout engine or
//     the file system could not produce the output
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", f)
//	if errors.Is(err, errors.ErrCodeInvalidFormat) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRender, origErr, "layout %s", title)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeInvalidPath       Code = "INVALID_PATH"
	ErrCodeInvalidStyle      Code = "INVALID_STYLE"
	ErrCodeInvalidEngine     Code = "INVALID_ENGINE"
	ErrCodeInvalidDefinition Code = "INVALID_DEFINITION"

	// Programming contract violations
	ErrCodeContract Code = "CONTRACT_VIOLATION"

	// Delegated failures
	ErrCodeRender Code = "RENDER_FAILED"
	ErrCodeWrite  Code = "WRITE_FAILED"

	// Lookup errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// WithContext prefixes err's message with a formatted context, keeping its
// code and cause, e.g. `node "db": invalid color "x"`. Errors without a code
// are wrapped with fmt's %w.
func WithContext(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	prefix := fmt.Sprintf(format, args...)
	var e *Error
	if errors.As(err, &e) && e == err {
		return &Error{Code: e.Code, Message: prefix + ": " + e.Message, Cause: e.Cause}
	}
	return fmt.Errorf("%s: %w", prefix, err)
}

// Contract creates a contract-violation error. Contract violations are
// programming errors in the graph description and are never recoverable.
func Contract(format string, args ...any) *Error {
	return New(ErrCodeContract, format, args...)
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}

// IsConfiguration reports whether err is a configuration error, i.e. one the
// user fixes by changing the diagram description or its options.
func IsConfiguration(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidPath,
		ErrCodeInvalidStyle, ErrCodeInvalidEngine, ErrCodeInvalidDefinition:
		return true
	}
	return false
}
