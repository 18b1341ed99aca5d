package task

import (
	"fmt"
	"time"
)

// ErrorKind classifies a recorded TaskError.
type ErrorKind string

const (
	// ErrorKindFetch marks a transport-level failure of a status check. It is
	// retryable and never changes the job status.
	ErrorKindFetch ErrorKind = "fetch"

	// ErrorKindJob marks an error reported by the remote job itself.
	ErrorKindJob ErrorKind = "job"
)

// TaskError is the structured error kept on a Descriptor.
type TaskError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Descriptor is the persisted record of the currently tracked job.
// The zero value is the "nothing tracked" descriptor.
type Descriptor struct {
	// TaskID identifies the remote job. An empty value means no job is tracked.
	TaskID string `json:"task_id,omitempty"`

	// LectureID is an opaque correlation id carried for consumers.
	LectureID string `json:"lecture_id,omitempty"`

	Status    Status     `json:"status"`
	Error     *TaskError `json:"error,omitempty"`
	IsPolling bool       `json:"is_polling"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// HasTask reports whether a job is being tracked.
func (d Descriptor) HasTask() bool {
	return d.TaskID != ""
}

// Resolved reports whether the tracked job needs no further monitoring:
// its status is terminal and the polling flag has already been cleared.
func (d Descriptor) Resolved() bool {
	return d.Status.IsTerminal() && !d.IsPolling
}

// Clone returns a deep copy so callers can never alias the error pointer.
func (d Descriptor) Clone() Descriptor {
	if d.Error != nil {
		e := *d.Error
		d.Error = &e
	}
	return d
}

// Validate checks the identity invariants of a descriptor.
func (d Descriptor) Validate() error {
	if !d.Status.IsValid() {
		return fmt.Errorf("%w: status %q is not a known status", ErrInvariantViolation, string(d.Status))
	}
	if d.HasTask() != (d.Status != StatusNone) {
		return fmt.Errorf("%w: task id %q with status %s", ErrInvariantViolation, d.TaskID, d.Status)
	}
	if d.IsPolling && !d.HasTask() {
		return fmt.Errorf("%w: polling without a task", ErrInvariantViolation)
	}
	if d.LectureID != "" && !d.HasTask() {
		return fmt.Errorf("%w: lecture id without a task", ErrInvariantViolation)
	}
	return nil
}

// Report is the normalized result of a single remote status check.
type Report struct {
	TaskID string
	Status Status
	// Error is the job-reported error message, if any.
	Error string
}
