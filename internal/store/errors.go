package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all DurableStore implementations.
var (
	// ErrNotFound is returned by Load when nothing has been persisted yet.
	ErrNotFound = errors.New("descriptor not found")

	// ErrPersistFailed is returned when a descriptor could not be written to
	// durable storage. Check the wrapped error for the backend failure.
	ErrPersistFailed = errors.New("persist failed")

	// ErrCorruptSnapshot is returned when a persisted descriptor cannot be decoded.
	ErrCorruptSnapshot = errors.New("corrupt descriptor snapshot")

	// ErrInvalidDescriptor is returned when a backend rejects a descriptor,
	// for example because a column constraint was violated.
	ErrInvalidDescriptor = errors.New("invalid descriptor")

	// ErrUnavailable is returned when the backend cannot be reached.
	ErrUnavailable = errors.New("store unavailable")
)

// IsNotFoundError checks if the error is, or wraps, ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StoreError is a custom error type for backend failures with additional context.
type StoreError struct {
	Backend   string // The backend type (e.g., "file", "sqlite")
	Operation string // The operation that failed (e.g., "load", "save")
	Message   string
	Err       error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation on %s store failed: %s: %v", e.Operation, e.Backend, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation on %s store failed: %s", e.Operation, e.Backend, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(backend, operation, message string, err error) *StoreError {
	return &StoreError{
		Backend:   backend,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
