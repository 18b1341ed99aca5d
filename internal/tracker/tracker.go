package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskwatch/internal/events"
	"github.com/phrazzld/taskwatch/internal/store"
)

// Deps are the collaborators a Tracker is assembled from.
type Deps struct {
	Durable store.DurableStore
	Fetcher Fetcher
	Emitter events.Emitter
	Clock   Clock
	Logger  *slog.Logger
}

// Tracker wires a StateStore, Coordinator and Notifier together.
type Tracker struct {
	State       *StateStore
	Coordinator *Coordinator
	Notifier    *Notifier

	logger *slog.Logger
}

// New loads the durable snapshot and assembles a Tracker. It does not start
// polling; call Recover for that.
func New(ctx context.Context, deps Deps, config Config, notificationsEnabled bool) (*Tracker, error) {
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("fetcher cannot be nil")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = RealClock{}
	}

	state, err := NewStateStore(ctx, deps.Durable, clock, logger)
	if err != nil {
		return nil, err
	}

	return &Tracker{
		State:       state,
		Coordinator: NewCoordinator(state, deps.Fetcher, clock, config, logger),
		Notifier:    NewNotifier(state, deps.Emitter, notificationsEnabled, logger),
		logger:      logger.With("component", "tracker"),
	}, nil
}

// Recover resumes polling for a persisted, unresolved job.
func (t *Tracker) Recover(ctx context.Context) (bool, error) {
	return Recover(ctx, t.State, t.Coordinator, t.logger)
}

// Close stops polling without clearing the persisted polling flag and
// detaches the Notifier.
func (t *Tracker) Close() {
	t.Coordinator.Shutdown()
	t.Notifier.Close()
}
