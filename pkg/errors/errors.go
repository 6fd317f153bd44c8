// Package errors provides structured error types for the trailnet pipeline.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the library
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes map to the pipeline's failure taxonomy: configuration problems are
// fatal before any mutation, a failed geometry operation on a single
// candidate pair is recovered locally, validation failures abort the run
// unless report-only mode is set, and a connectivity regression is always
// fatal because it signals a logic bug rather than convergence noise.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "missing trueIntersectionToleranceMeters")
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeGeometryOp, origErr, "intersect %s with %s", a, b)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the pipeline failure taxonomy.
const (
	// ErrCodeInvalidConfig marks a missing or invalid required tolerance.
	// Fatal at startup, before any mutation of the working set.
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// ErrCodeInvalidInput marks malformed input data (bad GeoJSON, unknown
	// geometry type, trail with fewer than two points).
	ErrCodeInvalidInput Code = "INVALID_INPUT"

	// ErrCodeGeometryOp marks a failed geometry engine operation for a single
	// pairwise candidate. Recovered locally: the candidate is skipped and a
	// warning is logged.
	ErrCodeGeometryOp Code = "GEOMETRY_OP_FAILED"

	// ErrCodeValidation marks a failed splitting/merging validation check
	// (accuracy below threshold, coverage gap, invalid or duplicate
	// geometry). Fatal by default, downgradable to a warning via report-only
	// configuration.
	ErrCodeValidation Code = "VALIDATION_FAILED"

	// ErrCodeConnectivityRegression marks a connectivity score drop beyond
	// the allowed margin between optimization iterations. Always fatal and
	// never suppressible.
	ErrCodeConnectivityRegression Code = "CONNECTIVITY_REGRESSION"

	// ErrCodeConvergenceNotReached marks iteration-cap exhaustion. Warning
	// only: the best available result is still returned.
	ErrCodeConvergenceNotReached Code = "CONVERGENCE_NOT_REACHED"

	// ErrCodeInternal marks an invariant breach inside the pipeline.
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

// Fatal reports whether err must abort the run regardless of report-only
// configuration. Connectivity regressions and internal invariant breaches
// are never downgradable.
func Fatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeConnectivityRegression, ErrCodeInternal, ErrCodeInvalidConfig:
		return true
	}
	return false
}
