package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEmitter stores registered handlers in memory and dispatches
// notifications to them synchronously, in registration order.
type InMemoryEmitter struct {
	handlers []Handler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEmitter creates a new instance of InMemoryEmitter.
func NewInMemoryEmitter(logger *slog.Logger) *InMemoryEmitter {
	return &InMemoryEmitter{
		handlers: make([]Handler, 0),
		logger:   logger.With("component", "in_memory_emitter"),
	}
}

// RegisterHandler adds a new handler to receive notifications.
func (e *InMemoryEmitter) RegisterHandler(handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered new notification handler", "handler_count", len(e.handlers))
}

// Emit publishes the notification to all registered handlers.
// If any handler returns an error, the notification is still sent to all
// other handlers, and the first error encountered is returned.
func (e *InMemoryEmitter) Emit(ctx context.Context, n *Notification) error {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	if len(handlers) == 0 {
		e.logger.Warn("no handlers registered for notification",
			"notification_id", n.ID,
			"task_id", n.TaskID)
		return nil
	}

	var firstErr error
	for i, handler := range handlers {
		if err := handler.HandleNotification(ctx, n); err != nil {
			e.logger.Error("handler failed to process notification",
				"error", err,
				"handler_index", i,
				"notification_id", n.ID,
				"task_id", n.TaskID)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

var _ Emitter = (*InMemoryEmitter)(nil)
