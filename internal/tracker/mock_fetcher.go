package tracker

import (
	"context"
	"sync"

	"github.com/phrazzld/taskwatch/internal/task"
)

// MockResult is one scripted reply of a MockFetcher.
type MockResult struct {
	Status   task.Status
	JobError string
	Err      error
}

// MockFetcher implements Fetcher for testing. Scripted results are returned
// in order; once the script runs out the last result repeats. FetchFn, when
// set, replaces the script entirely.
type MockFetcher struct {
	mu      sync.Mutex
	script  []MockResult
	last    *MockResult
	calls   []string
	FetchFn func(ctx context.Context, taskID string) (task.Report, error)
}

// NewMockFetcher creates a MockFetcher that replies with results in order.
func NewMockFetcher(results ...MockResult) *MockFetcher {
	return &MockFetcher{script: results}
}

// Script appends results to the reply queue.
func (m *MockFetcher) Script(results ...MockResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, results...)
}

// FetchStatus implements Fetcher.
func (m *MockFetcher) FetchStatus(ctx context.Context, taskID string) (task.Report, error) {
	m.mu.Lock()
	m.calls = append(m.calls, taskID)
	fn := m.FetchFn
	var result MockResult
	switch {
	case fn != nil:
	case len(m.script) > 0:
		result = m.script[0]
		m.script = m.script[1:]
		m.last = &result
	case m.last != nil:
		result = *m.last
	default:
		result = MockResult{Status: task.StatusPending}
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, taskID)
	}
	if result.Err != nil {
		return task.Report{}, result.Err
	}
	return task.Report{TaskID: taskID, Status: result.Status, Error: result.JobError}, nil
}

// Calls returns the task IDs of every fetch so far.
func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of fetches so far.
func (m *MockFetcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

var _ Fetcher = (*MockFetcher)(nil)
