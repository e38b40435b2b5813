// Package errors provides structured error types for the Blockforge engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the engine, CLI, and API
//   - Machine-readable error codes for programmatic handling
//   - A clear split between fatal invariant violations and recoverable
//     connection failures
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVARIANT_*: Structural invariant violations (programmer errors)
//   - CONNECTION_*: Recoverable connect/disconnect failures
//   - *_NOT_FOUND: Resource not found
//   - INVALID_*: Input validation failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Taxonomy
//
// Invariant violations (INVARIANT_*) indicate a caller bug: reparenting a
// still-attached block, reusing a disposed connection, registering a
// definition with a duplicate input name. They are surfaced immediately and
// never swallowed, since continuing would corrupt the graph.
//
// Connection errors (CONNECTION_*) are expected during interactive use: a
// kind or type-check mismatch on connect simply means "no candidate". The
// drag manager treats them as a miss, not a crash.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConnectionChecks, "checks %v and %v do not intersect", a, b)
//	if errors.Is(err, errors.ErrCodeConnectionChecks) {
//	    // Treat as "no candidate"
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStore, origErr, "append event for %s", wsID)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Invariant violations (programmer errors, fatal by default)
	ErrCodeInvariant        Code = "INVARIANT_VIOLATION"
	ErrCodeDisposed         Code = "INVARIANT_DISPOSED"
	ErrCodeStillAttached    Code = "INVARIANT_STILL_ATTACHED"
	ErrCodeDuplicateInput   Code = "INVARIANT_DUPLICATE_INPUT"
	ErrCodeCycle            Code = "INVARIANT_CYCLE"
	ErrCodeDuplicateBlockID Code = "INVARIANT_DUPLICATE_BLOCK_ID"
	ErrCodeShadowDetach     Code = "INVARIANT_SHADOW_DETACH"

	// Recoverable connection failures
	ErrCodeConnectionKind     Code = "CONNECTION_KIND_MISMATCH"
	ErrCodeConnectionChecks   Code = "CONNECTION_CHECKS_MISMATCH"
	ErrCodeConnectionOccupied Code = "CONNECTION_OCCUPIED"
	ErrCodeConnectionSelf     Code = "CONNECTION_SELF"

	// Resource not found errors
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeBlockNotFound Code = "BLOCK_NOT_FOUND"
	ErrCodeInputNotFound Code = "INPUT_NOT_FOUND"
	ErrCodeFieldNotFound Code = "FIELD_NOT_FOUND"
	ErrCodeTypeNotFound  Code = "BLOCK_TYPE_NOT_FOUND"
	ErrCodeVarNotFound   Code = "VARIABLE_NOT_FOUND"

	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidDefinition Code = "INVALID_DEFINITION"
	ErrCodeInvalidEvent      Code = "INVALID_EVENT"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"

	// Persistence / infrastructure errors
	ErrCodeStore Code = "STORE_ERROR"

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

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsInvariant reports whether err is any invariant violation.
// Invariant violations are programmer errors and should never be retried.
func IsInvariant(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvariant, ErrCodeDisposed, ErrCodeStillAttached,
		ErrCodeDuplicateInput, ErrCodeCycle, ErrCodeDuplicateBlockID,
		ErrCodeShadowDetach:
		return true
	}
	return false
}

// IsConnection reports whether err is a recoverable connection failure.
// Callers such as the drag manager treat these as "no candidate".
func IsConnection(err error) bool {
	switch GetCode(err) {
	case ErrCodeConnectionKind, ErrCodeConnectionChecks,
		ErrCodeConnectionOccupied, ErrCodeConnectionSelf:
		return true
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
		return e.Message
	}
	return err.Error()
}
