package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/taskwatch/internal/events"
	"github.com/phrazzld/taskwatch/internal/task"
)

// Display durations for each kind of notification.
const (
	StartedTTL = 3 * time.Second
	SuccessTTL = 5 * time.Second
	FailureTTL = 5 * time.Second
)

// Notification messages.
const (
	MessageStarted = "Transcription started."
	MessageSuccess = "Transcription completed!"
	MessageFailure = "Transcription failed. Please try again."
)

// Notifier turns status transitions into user-facing notifications. It
// keeps its own record of the last status it saw, seeded from the store at
// construction, so a status that was already current before the Notifier
// existed is never announced.
type Notifier struct {
	mu          sync.Mutex
	last        task.Status
	enabled     bool
	emitter     events.Emitter
	logger      *slog.Logger
	unsubscribe func()
}

// NewNotifier subscribes a Notifier to state. When enabled is false
// transitions are still tracked but nothing is emitted.
func NewNotifier(state *StateStore, emitter events.Emitter, enabled bool, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Notifier{
		last:    state.Get().Status,
		enabled: enabled,
		emitter: emitter,
		logger:  logger.With("component", "notifier"),
	}
	n.unsubscribe = state.Subscribe(n.observe)
	return n
}

// Close detaches the Notifier from its StateStore.
func (n *Notifier) Close() {
	if n.unsubscribe != nil {
		n.unsubscribe()
	}
}

func (n *Notifier) observe(_, next task.Descriptor) {
	n.mu.Lock()
	last := n.last
	n.last = next.Status
	n.mu.Unlock()

	if last == next.Status {
		return
	}

	notification := notificationFor(last, next)
	if notification == nil || !n.enabled || n.emitter == nil {
		return
	}

	ctx := context.Background()
	if err := n.emitter.Emit(ctx, notification); err != nil {
		n.logger.WarnContext(ctx, "failed to emit notification",
			"task_id", next.TaskID,
			"status", next.Status.String(),
			"error", err)
	}
}

// notificationFor maps a status edge to a notification, or nil for edges
// that are not announced.
func notificationFor(from task.Status, next task.Descriptor) *events.Notification {
	switch next.Status {
	case task.StatusStarted:
		if from != task.StatusPending && from != task.StatusNone {
			return nil
		}
		return events.NewNotification(next, events.SeverityInfo, MessageStarted, StartedTTL)
	case task.StatusSuccess:
		return events.NewNotification(next, events.SeveritySuccess, MessageSuccess, SuccessTTL)
	case task.StatusFailure:
		msg := MessageFailure
		if next.Error != nil && next.Error.Kind == task.ErrorKindJob && next.Error.Message != "" {
			msg = msg + " " + next.Error.Message
		}
		return events.NewNotification(next, events.SeverityError, msg, FailureTTL)
	}
	return nil
}
