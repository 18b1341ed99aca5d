package task

import "errors"

// Error definitions for the task package.
var (
	// ErrEmptyTaskID is returned when an operation requires a task ID and none was given.
	ErrEmptyTaskID = errors.New("task id cannot be empty")

	// ErrNoTask is returned when an operation requires a tracked task and none exists.
	ErrNoTask = errors.New("no task is being tracked")

	// ErrUnknownStatus is returned when a status string does not map to a known status.
	ErrUnknownStatus = errors.New("unknown task status")

	// ErrInvariantViolation is returned when a descriptor would break one of
	// the identity invariants. Check the wrapped message for the specific rule.
	ErrInvariantViolation = errors.New("task descriptor invariant violated")
)
