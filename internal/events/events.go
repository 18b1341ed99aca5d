package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskwatch/internal/task"
)

// Severity tells a sink how to present a notification.
type Severity string

// Notification severities.
const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a single user-facing message about a job transition.
type Notification struct {
	ID        uuid.UUID   `json:"id"`
	TaskID    string      `json:"task_id"`
	LectureID string      `json:"lecture_id,omitempty"`
	Status    task.Status `json:"status"`
	Severity  Severity    `json:"severity"`
	Message   string      `json:"message"`
	// TTL is a display hint for toast-style consumers.
	TTL       time.Duration `json:"ttl"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewNotification creates a Notification for the job described by d.
func NewNotification(d task.Descriptor, severity Severity, message string, ttl time.Duration) *Notification {
	return &Notification{
		ID:        uuid.New(),
		TaskID:    d.TaskID,
		LectureID: d.LectureID,
		Status:    d.Status,
		Severity:  severity,
		Message:   message,
		TTL:       ttl,
		CreatedAt: time.Now().UTC(),
	}
}

// Handler defines an interface for notification sinks.
type Handler interface {
	// HandleNotification delivers the notification. Returns an error if the
	// sink could not accept it.
	HandleNotification(ctx context.Context, n *Notification) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, n *Notification) error

// HandleNotification implements Handler.
func (f HandlerFunc) HandleNotification(ctx context.Context, n *Notification) error {
	return f(ctx, n)
}

// Emitter defines an interface for components that publish notifications.
type Emitter interface {
	// Emit publishes the notification to all registered handlers.
	Emit(ctx context.Context, n *Notification) error
}
