package tracker

import (
	"context"

	"github.com/phrazzld/taskwatch/internal/task"
)

// Fetcher performs one status check for a remote job. Any returned error is
// treated as a retryable transport failure; a job that reports FAILURE is a
// successful fetch.
type Fetcher interface {
	FetchStatus(ctx context.Context, taskID string) (task.Report, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, taskID string) (task.Report, error)

// FetchStatus implements Fetcher.
func (f FetcherFunc) FetchStatus(ctx context.Context, taskID string) (task.Report, error) {
	return f(ctx, taskID)
}
