// Package errors provides structured error types for transitmap.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and library callers
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes are grouped by the fault class they describe:
//   - INVALID_*: input or configuration the caller can fix
//   - SOLVER_*, MISSING_RESULT, NO_SOLUTION, TIMEOUT: environment faults of a solver run
//   - PARSE_ERROR, IO_ERROR: unreadable or unwritable artifacts
//   - INTERNAL_ERROR: unexpected failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidGraph, "edge %s-%s references unknown node", a, b)
//	if errors.Is(err, errors.ErrCodeSolverNotFound) {
//	    // Tell the user to install the solver
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "create %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidGraph    Code = "INVALID_GRAPH"
	ErrCodeInvalidSettings Code = "INVALID_SETTINGS"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Solver environment errors
	ErrCodeSolverNotFound Code = "SOLVER_NOT_FOUND"
	ErrCodeSolverFailed   Code = "SOLVER_FAILED"
	ErrCodeMissingResult  Code = "MISSING_RESULT"
	ErrCodeNoSolution     Code = "NO_SOLUTION"
	ErrCodeTimeout        Code = "TIMEOUT"

	// Artifact errors
	ErrCodeParse Code = "PARSE_ERROR"
	ErrCodeIO    Code = "IO_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// IsSolverUnavailable reports whether err means the solver executable could
// not be started or misbehaved in a way that usually means it is missing or
// broken, as opposed to a model that had no solution.
func IsSolverUnavailable(err error) bool {
	switch GetCode(err) {
	case ErrCodeSolverNotFound, ErrCodeSolverFailed:
		return true
	}
	return false
}
