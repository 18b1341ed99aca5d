package tracker

import (
	"context"
	"fmt"
	"log/slog"
)

// Recover resumes polling for the job recorded in state if it still needs
// monitoring: a job is tracked and either its status is not terminal or the
// polling flag was left on by the previous process. It reports whether
// polling was resumed. Calling Recover while the Coordinator already polls
// that job is a no-op.
func Recover(ctx context.Context, state *StateStore, coordinator *Coordinator, logger *slog.Logger) (bool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	d := state.Get()
	if !d.HasTask() {
		logger.InfoContext(ctx, "no tracked task to recover")
		return false, nil
	}
	if d.Resolved() {
		logger.InfoContext(ctx, "tracked task already resolved",
			"task_id", d.TaskID,
			"status", d.Status.String())
		return false, nil
	}

	if err := coordinator.Start(ctx, d.TaskID, d.LectureID); err != nil {
		return false, fmt.Errorf("failed to resume task %s: %w", d.TaskID, err)
	}

	logger.InfoContext(ctx, "resumed tracking persisted task",
		"task_id", d.TaskID,
		"status", d.Status.String(),
		"was_polling", d.IsPolling)
	return true, nil
}
