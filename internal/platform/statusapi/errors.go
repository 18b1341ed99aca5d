package statusapi

import (
	"errors"
	"fmt"
)

// ErrFetchFailed is matched by every error returned from Client.FetchStatus.
var ErrFetchFailed = errors.New("status fetch failed")

// Reasons a fetch can fail, wrapped inside a FetchError.
var (
	ErrEmptyTaskID      = errors.New("empty task id")
	ErrUnexpectedStatus = errors.New("unexpected http status")
	ErrMalformedReply   = errors.New("malformed status reply")
)

// FetchError describes a failed status check.
type FetchError struct {
	TaskID     string
	StatusCode int // zero when no response was received
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch status of task %s: http %d: %v", e.TaskID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch status of task %s: %v", e.TaskID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is makes every FetchError match ErrFetchFailed.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}
