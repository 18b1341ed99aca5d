package events

import (
	"context"
	"log/slog"
	"sync"
)

// LogHandler writes every notification to a structured logger. Error
// notifications are logged at error level, everything else at info.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a LogHandler.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	return &LogHandler{logger: logger.With("component", "notification_log")}
}

// HandleNotification implements Handler.
func (h *LogHandler) HandleNotification(ctx context.Context, n *Notification) error {
	level := slog.LevelInfo
	if n.Severity == SeverityError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, n.Message,
		"notification_id", n.ID,
		"task_id", n.TaskID,
		"lecture_id", n.LectureID,
		"status", n.Status,
		"severity", n.Severity)
	return nil
}

// RecentBuffer keeps the most recent notifications for consumers that poll
// instead of subscribing.
type RecentBuffer struct {
	mu    sync.RWMutex
	items []*Notification
	limit int
}

// NewRecentBuffer creates a buffer holding at most limit notifications.
// A non-positive limit keeps nothing.
func NewRecentBuffer(limit int) *RecentBuffer {
	if limit < 0 {
		limit = 0
	}
	return &RecentBuffer{limit: limit}
}

// HandleNotification implements Handler.
func (b *RecentBuffer) HandleNotification(ctx context.Context, n *Notification) error {
	if b.limit == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append(b.items, n)
	if len(b.items) > b.limit {
		b.items = b.items[len(b.items)-b.limit:]
	}
	return nil
}

// List returns the buffered notifications, newest first.
func (b *RecentBuffer) List() []Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Notification, 0, len(b.items))
	for i := len(b.items) - 1; i >= 0; i-- {
		out = append(out, *b.items[i])
	}
	return out
}

var (
	_ Handler = (*LogHandler)(nil)
	_ Handler = (*RecentBuffer)(nil)
)
