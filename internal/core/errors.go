package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Signal/backtest errors. InsufficientData is recoverable at the
	// indicator level (callers substitute hold) but fatal at simulator
	// setup. ComputationFault is absorbed per bar inside a run.
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient price history"}
	ErrInvalidParameter = &Error{Code: "INVALID_PARAMETER", Message: "invalid indicator parameter"}
	ErrComputationFault = &Error{Code: "COMPUTATION_FAULT", Message: "computation failed"}
	ErrUnknownStrategy  = &Error{Code: "UNKNOWN_STRATEGY", Message: "unknown strategy"}

	// Data errors
	ErrNotFound = &Error{Code: "NOT_FOUND", Message: "resource not found"}
	ErrNoData   = &Error{Code: "NO_DATA", Message: "no data available"}

	// Collector errors
	ErrCollectorFailed = &Error{Code: "COLLECTOR_FAILED", Message: "price data collector failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// API errors
	ErrUnauthorized = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid API key"}
)
