package api

import (
	"time"

	"github.com/phrazzld/taskwatch/internal/events"
	"github.com/phrazzld/taskwatch/internal/redact"
	"github.com/phrazzld/taskwatch/internal/task"
)

// StartTaskRequest is the body of POST /api/task.
type StartTaskRequest struct {
	TaskID    string `json:"task_id"              validate:"required,max=256,printascii"`
	LectureID string `json:"lecture_id,omitempty" validate:"omitempty,max=256"`
}

// TaskErrorResponse is the last recorded error of the tracked job. Message
// is redacted since transport errors carry upstream URLs and addresses.
type TaskErrorResponse struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// TaskResponse describes the tracked job.
type TaskResponse struct {
	TaskID    string             `json:"task_id,omitempty"`
	LectureID string             `json:"lecture_id,omitempty"`
	Status    string             `json:"status"`
	Error     *TaskErrorResponse `json:"error,omitempty"`
	IsPolling bool               `json:"is_polling"`
	// Active reports whether a poll loop is running in this process.
	Active    bool       `json:"active"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// NotificationResponse is one entry of the notification feed.
type NotificationResponse struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	LectureID string    `json:"lecture_id,omitempty"`
	Status    string    `json:"status"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	TTLMillis int64     `json:"ttl_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationsResponse wraps the notification feed, newest first.
type NotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
}

func descriptorToResponse(d task.Descriptor, active bool) TaskResponse {
	resp := TaskResponse{
		TaskID:    d.TaskID,
		LectureID: d.LectureID,
		Status:    d.Status.String(),
		IsPolling: d.IsPolling,
		Active:    active,
	}
	if d.Error != nil {
		resp.Error = &TaskErrorResponse{
			Kind:    string(d.Error.Kind),
			Message: redact.String(d.Error.Message),
			At:      d.Error.At,
		}
	}
	if !d.UpdatedAt.IsZero() {
		updated := d.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

func notificationsToResponse(list []events.Notification) NotificationsResponse {
	out := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, NotificationResponse{
			ID:        n.ID.String(),
			TaskID:    n.TaskID,
			LectureID: n.LectureID,
			Status:    n.Status.String(),
			Severity:  string(n.Severity),
			Message:   redact.String(n.Message),
			TTLMillis: n.TTL.Milliseconds(),
			CreatedAt: n.CreatedAt,
		})
	}
	return NotificationsResponse{Notifications: out}
}
