package task

import (
	"fmt"
	"strings"
)

// Status represents the lifecycle state of a tracked job as reported by the
// remote status endpoint.
type Status string

// Possible status values. StatusNone is only valid when no job is tracked.
const (
	StatusNone    Status = ""
	StatusPending Status = "PENDING"
	StatusStarted Status = "STARTED"
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// ParseStatus normalizes a status string reported by the remote endpoint.
// Matching is case-insensitive and ignores surrounding whitespace. Only the
// four job statuses are accepted; StatusNone is never a valid report.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusStarted:
		return StatusStarted, nil
	case StatusSuccess:
		return StatusSuccess, nil
	case StatusFailure:
		return StatusFailure, nil
	}
	return StatusNone, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// IsValid reports whether s is one of the known status values, including StatusNone.
func (s Status) IsValid() bool {
	switch s {
	case StatusNone, StatusPending, StatusStarted, StatusSuccess, StatusFailure:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are expected.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// Rank orders statuses along the lifecycle. Success and Failure share the
// highest rank.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 1
	case StatusStarted:
		return 2
	case StatusSuccess, StatusFailure:
		return 3
	}
	return 0
}

// String returns a printable name; StatusNone prints as "NONE".
func (s Status) String() string {
	if s == StatusNone {
		return "NONE"
	}
	return string(s)
}

// CanTransition reports whether a job may move from one status to another.
// Repeating the current status is always allowed. Otherwise the move must be
// forward and must not leave a terminal status.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	if from.IsTerminal() {
		return false
	}
	return to.Rank() > from.Rank()
}
