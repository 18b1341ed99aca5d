package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/phrazzld/taskwatch/internal/store"
	"github.com/phrazzld/taskwatch/internal/task"
)

// Config holds the polling parameters of a Coordinator.
type Config struct {
	// PollInterval is the delay between status checks while the job runs.
	PollInterval time.Duration

	// GracePeriod is how long the polling flag stays on after the job
	// reaches a terminal status.
	GracePeriod time.Duration

	// FetchTimeout bounds a single status check.
	FetchTimeout time.Duration

	// MaxBackoff caps the delay between retries after failed checks.
	MaxBackoff time.Duration

	// Jitter is the randomization factor applied to retry delays.
	// Zero gives fixed, reproducible delays.
	Jitter float64

	// PollDuringGrace keeps checking the status during the grace period
	// instead of stopping as soon as a terminal status arrives.
	PollDuringGrace bool
}

// DefaultConfig returns a Config with reasonable defaults
func DefaultConfig() Config {
	return Config{
		PollInterval: 3 * time.Second,
		GracePeriod:  30 * time.Second,
		FetchTimeout: 10 * time.Second,
		MaxBackoff:   30 * time.Second,
		Jitter:       0.2,
	}
}

// Coordinator drives the poll loop for one job at a time. Each started
// session gets a new generation number; timer callbacks and fetch results
// carrying an older generation are discarded, so nothing from a stopped or
// replaced session can touch the StateStore.
type Coordinator struct {
	mu sync.Mutex

	state   *StateStore
	fetcher Fetcher
	clock   Clock
	config  Config
	logger  *slog.Logger

	running     bool
	taskID      string
	generation  uint64
	tickTimer   Timer
	graceTimer  Timer
	cancelFetch context.CancelFunc
	backoff     *backoff.ExponentialBackOff
}

// NewCoordinator creates a Coordinator. Zero durations in config fall back
// to DefaultConfig values.
func NewCoordinator(
	state *StateStore,
	fetcher Fetcher,
	clock Clock,
	config Config,
	logger *slog.Logger,
) *Coordinator {
	defaults := DefaultConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.GracePeriod < 0 {
		config.GracePeriod = 0
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = defaults.FetchTimeout
	}
	if config.MaxBackoff < config.PollInterval {
		config.MaxBackoff = config.PollInterval
	}
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = config.PollInterval
	b.MaxInterval = config.MaxBackoff
	b.MaxElapsedTime = 0
	b.RandomizationFactor = config.Jitter
	b.Reset()

	return &Coordinator{
		state:   state,
		fetcher: fetcher,
		clock:   clock,
		config:  config,
		logger:  logger.With("component", "coordinator"),
		backoff: b,
	}
}

// Start begins tracking taskID. Starting the job that is already being
// polled is a no-op. Starting a different job stops the current one first.
// If the store already holds taskID, its status and error are kept and only
// polling resumes; lectureID is recorded only if the stored job has none.
func (c *Coordinator) Start(ctx context.Context, taskID, lectureID string) error {
	if taskID == "" {
		return task.ErrEmptyTaskID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running && c.taskID == taskID {
		c.logger.DebugContext(ctx, "task already being polled", "task_id", taskID)
		return nil
	}
	if c.running {
		c.logger.InfoContext(ctx, "replacing tracked task",
			"previous_task_id", c.taskID,
			"task_id", taskID)
		c.halt()
	}

	current := c.state.Get()
	if current.TaskID != taskID {
		if err := c.tolerate(c.state.SetTask(ctx, taskID, lectureID)); err != nil {
			return err
		}
	} else if err := c.tolerate(c.state.AttachLecture(ctx, lectureID)); err != nil {
		return err
	}
	if err := c.tolerate(c.state.SetPolling(ctx, true)); err != nil {
		return err
	}

	c.running = true
	c.taskID = taskID
	c.generation++
	c.backoff.Reset()
	gen := c.generation

	status := c.state.Get().Status
	c.logger.InfoContext(ctx, "started polling",
		"task_id", taskID,
		"status", status.String(),
		"generation", gen)

	if status.IsTerminal() {
		c.scheduleGraceStop(gen)
		if !c.config.PollDuringGrace {
			return nil
		}
	}
	c.scheduleTick(gen, 0)
	return nil
}

// Stop halts polling and clears the polling flag. The descriptor is
// otherwise left intact. Stop is idempotent.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		c.logger.InfoContext(ctx, "stopping polling", "task_id", c.taskID)
	}
	c.halt()

	if !c.state.Get().IsPolling {
		return nil
	}
	return c.tolerate(c.state.SetPolling(ctx, false))
}

// Reset halts polling and forgets the tracked job.
func (c *Coordinator) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.halt()
	c.logger.InfoContext(ctx, "resetting tracked task")
	return c.tolerate(c.state.Reset(ctx))
}

// Shutdown cancels all timers and any in-flight fetch without touching the
// StateStore, so the persisted polling flag survives for the next boot.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.halt()
}

// Polling reports whether a poll session is active.
func (c *Coordinator) Polling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// TaskID returns the job of the active session, or "" when idle.
func (c *Coordinator) TaskID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return ""
	}
	return c.taskID
}

// halt invalidates the current session. The caller must hold c.mu.
func (c *Coordinator) halt() {
	c.generation++
	c.running = false
	c.taskID = ""
	if c.tickTimer != nil {
		c.tickTimer.Stop()
		c.tickTimer = nil
	}
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
}

// scheduleTick arms the next status check. The caller must hold c.mu.
func (c *Coordinator) scheduleTick(gen uint64, delay time.Duration) {
	c.tickTimer = c.clock.AfterFunc(delay, func() { c.tick(gen) })
}

// scheduleGraceStop arms the end of the grace period. The caller must hold c.mu.
func (c *Coordinator) scheduleGraceStop(gen uint64) {
	if c.graceTimer != nil {
		return
	}
	c.graceTimer = c.clock.AfterFunc(c.config.GracePeriod, func() { c.finish(gen) })
}

func (c *Coordinator) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || !c.running {
		c.mu.Unlock()
		return
	}
	c.tickTimer = nil
	taskID := c.taskID
	fetchCtx, cancel := context.WithTimeout(context.Background(), c.config.FetchTimeout)
	c.cancelFetch = cancel
	c.mu.Unlock()

	report, err := c.fetcher.FetchStatus(fetchCtx, taskID)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Debug("discarding stale fetch result", "task_id", taskID, "generation", gen)
		return
	}
	c.cancelFetch = nil

	ctx := context.Background()
	var delay time.Duration
	if err != nil {
		delay = c.nextBackoff()
		c.logger.WarnContext(ctx, "status check failed",
			"task_id", taskID,
			"retry_in", delay,
			"error", err)
		_ = c.tolerate(c.state.SetError(ctx, err))
	} else {
		c.backoff.Reset()
		delay = c.config.PollInterval
		if report.TaskID != "" && report.TaskID != taskID {
			c.logger.WarnContext(ctx, "status report for a different task",
				"task_id", taskID,
				"reported_task_id", report.TaskID)
		}
		if uerr := c.tolerate(c.state.UpdateStatus(ctx, report.Status, report.Error)); uerr != nil {
			c.logger.ErrorContext(ctx, "failed to apply status report",
				"task_id", taskID,
				"status", report.Status.String(),
				"error", uerr)
		}
	}

	status := c.state.Get().Status
	if status.IsTerminal() {
		if c.graceTimer == nil {
			c.logger.InfoContext(ctx, "task reached terminal status",
				"task_id", taskID,
				"status", status.String(),
				"grace_period", c.config.GracePeriod)
			c.scheduleGraceStop(gen)
		}
		if !c.config.PollDuringGrace {
			return
		}
	}
	c.scheduleTick(gen, delay)
}

// finish ends a session once the grace period is over.
func (c *Coordinator) finish(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return
	}
	taskID := c.taskID
	c.halt()

	ctx := context.Background()
	_ = c.tolerate(c.state.SetPolling(ctx, false))
	c.logger.InfoContext(ctx, "polling finished", "task_id", taskID)
}

func (c *Coordinator) nextBackoff() time.Duration {
	d := c.backoff.NextBackOff()
	if d == backoff.Stop || d > c.config.MaxBackoff {
		d = c.config.MaxBackoff
	}
	return d
}

// tolerate swallows persistence failures, which the StateStore has already
// logged; the in-memory state stays authoritative. Other errors pass through.
func (c *Coordinator) tolerate(err error) error {
	if err == nil || errors.Is(err, store.ErrPersistFailed) {
		return nil
	}
	return err
}
