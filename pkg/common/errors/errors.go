package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the promise-pool library

var (
	// ErrCompleted indicates that the pool already reached its terminal
	// completion result and has not been reset
	ErrCompleted = errors.New("pool already completed")

	// ErrAlreadyPaused indicates that pause was requested on a pool that
	// is already paused or draining
	ErrAlreadyPaused = errors.New("pool already paused")

	// ErrNotPaused indicates that resume was requested on a pool that is
	// not currently paused
	ErrNotPaused = errors.New("pool not paused")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrFeederStopped indicates that an operation was attempted on a
	// stopped feeder
	ErrFeederStopped = errors.New("feeder is stopped")
)

// IsDiagnostic returns true if the error is a non-fatal misuse diagnostic.
// Calls that return a diagnostic are no-ops; the pool state is unchanged.
func IsDiagnostic(err error) bool {
	return errors.Is(err, ErrCompleted) || errors.Is(err, ErrAlreadyPaused) || errors.Is(err, ErrNotPaused)
}

// ValidationError describes an invalid configuration parameter.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap allows errors.Is(err, ErrInvalidConfiguration) to match validation errors.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// NewValidationError creates a validation error for the given module and field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a usage hint to the validation error.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}
