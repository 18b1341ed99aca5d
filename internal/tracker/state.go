package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/taskwatch/internal/store"
	"github.com/phrazzld/taskwatch/internal/task"
)

// Observer is called after every committed change with the previous and the
// new descriptor. Observers run synchronously on the writer's goroutine and
// must not mutate the StateStore.
type Observer func(prev, next task.Descriptor)

type observerEntry struct {
	id int
	fn Observer
}

// StateStore is the single source of truth for the tracked job. Every
// mutation is validated, written through to the DurableStore and then
// broadcast to observers, in that order.
type StateStore struct {
	// writeMu serializes mutations together with their persistence and
	// observer callbacks so observers see changes in commit order.
	writeMu sync.Mutex

	mu      sync.RWMutex
	current task.Descriptor

	obsMu     sync.Mutex
	observers []observerEntry
	nextObsID int

	durable store.DurableStore
	now     func() time.Time
	logger  *slog.Logger
}

// NewStateStore creates a StateStore seeded from the durable snapshot.
// A missing snapshot starts empty. A corrupt or inconsistent snapshot is
// discarded with a warning. Any other load error is returned.
func NewStateStore(
	ctx context.Context,
	durable store.DurableStore,
	clock Clock,
	logger *slog.Logger,
) (*StateStore, error) {
	if durable == nil {
		return nil, fmt.Errorf("durable store cannot be nil")
	}
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &StateStore{
		durable: durable,
		now:     clock.Now,
		logger:  logger.With("component", "state_store"),
	}

	d, err := durable.Load(ctx)
	switch {
	case err == nil:
		if verr := d.Validate(); verr != nil {
			s.logger.WarnContext(ctx, "discarding invalid persisted descriptor",
				"task_id", d.TaskID,
				"error", verr)
			return s, nil
		}
		s.current = d.Clone()
		s.logger.DebugContext(ctx, "loaded persisted descriptor",
			"task_id", d.TaskID,
			"status", d.Status.String(),
			"is_polling", d.IsPolling)
	case errors.Is(err, store.ErrNotFound):
		s.logger.DebugContext(ctx, "no persisted descriptor found")
	case errors.Is(err, store.ErrCorruptSnapshot):
		s.logger.WarnContext(ctx, "discarding corrupt persisted descriptor", "error", err)
	default:
		return nil, fmt.Errorf("failed to load persisted descriptor: %w", err)
	}

	return s, nil
}

// Get returns a copy of the current descriptor.
func (s *StateStore) Get() task.Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Subscribe registers an observer and returns a function that removes it.
func (s *StateStore) Subscribe(fn Observer) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	s.nextObsID++
	id := s.nextObsID
	s.observers = append(s.observers, observerEntry{id: id, fn: fn})

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// SetTask starts tracking a new job. Status becomes PENDING, the error is
// cleared and polling is off until the Coordinator turns it on.
func (s *StateStore) SetTask(ctx context.Context, taskID, lectureID string) error {
	if taskID == "" {
		return task.ErrEmptyTaskID
	}
	return s.mutate(ctx, "set_task", func(d *task.Descriptor) error {
		*d = task.Descriptor{
			TaskID:    taskID,
			LectureID: lectureID,
			Status:    task.StatusPending,
		}
		return nil
	})
}

// UpdateStatus applies a successful status report. Reports that would move
// the status backward leave the status and any job error alone, but still
// clear a transport error on an unfinished job. A non-empty jobError is
// recorded as a job error; an empty one clears any previous error.
func (s *StateStore) UpdateStatus(ctx context.Context, status task.Status, jobError string) error {
	if status == task.StatusNone || !status.IsValid() {
		return fmt.Errorf("%w: cannot apply status %q", task.ErrInvariantViolation, string(status))
	}
	return s.mutate(ctx, "update_status", func(d *task.Descriptor) error {
		if !d.HasTask() {
			return task.ErrNoTask
		}
		if !task.CanTransition(d.Status, status) {
			s.logger.DebugContext(ctx, "ignoring status regression",
				"task_id", d.TaskID,
				"current_status", d.Status.String(),
				"reported_status", status.String())
			// the endpoint answered, so a pending transport error is stale
			if d.Error != nil && d.Error.Kind == task.ErrorKindFetch && !d.Status.IsTerminal() {
				d.Error = nil
			}
			return nil
		}
		d.Status = status
		switch {
		case jobError == "":
			d.Error = nil
		case d.Error != nil && d.Error.Kind == task.ErrorKindJob && d.Error.Message == jobError:
			// unchanged
		default:
			d.Error = &task.TaskError{Kind: task.ErrorKindJob, Message: jobError, At: s.now()}
		}
		return nil
	})
}

// AttachLecture records lectureID on the tracked job when it has no
// correlation id yet. An existing correlation id is never replaced.
func (s *StateStore) AttachLecture(ctx context.Context, lectureID string) error {
	if lectureID == "" {
		return nil
	}
	return s.mutate(ctx, "attach_lecture", func(d *task.Descriptor) error {
		if !d.HasTask() {
			return task.ErrNoTask
		}
		if d.LectureID == "" {
			d.LectureID = lectureID
		}
		return nil
	})
}

// SetError records a transport failure. The status is left untouched.
func (s *StateStore) SetError(ctx context.Context, cause error) error {
	if cause == nil {
		return fmt.Errorf("cause cannot be nil")
	}
	return s.mutate(ctx, "set_error", func(d *task.Descriptor) error {
		if !d.HasTask() {
			return task.ErrNoTask
		}
		d.Error = &task.TaskError{Kind: task.ErrorKindFetch, Message: cause.Error(), At: s.now()}
		return nil
	})
}

// SetPolling sets the polling flag. Turning it on requires a tracked job.
func (s *StateStore) SetPolling(ctx context.Context, polling bool) error {
	return s.mutate(ctx, "set_polling", func(d *task.Descriptor) error {
		if polling && !d.HasTask() {
			return task.ErrNoTask
		}
		d.IsPolling = polling
		return nil
	})
}

// Reset forgets the tracked job entirely.
func (s *StateStore) Reset(ctx context.Context) error {
	return s.mutate(ctx, "reset", func(d *task.Descriptor) error {
		*d = task.Descriptor{}
		return nil
	})
}

// mutate applies fn to a copy of the current descriptor and commits it.
// No-op changes are not persisted or broadcast. If the durable write fails
// the in-memory value is kept and the returned error wraps
// store.ErrPersistFailed.
func (s *StateStore) mutate(ctx context.Context, op string, fn func(d *task.Descriptor) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	prev := s.current.Clone()
	next := prev.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	if sameDescriptor(prev, next) {
		s.mu.Unlock()
		return nil
	}
	next.UpdatedAt = s.now()
	if next.TaskID == "" {
		next.UpdatedAt = time.Time{}
	}
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%s rejected: %w", op, err)
	}
	s.current = next
	s.mu.Unlock()

	var persistErr error
	if err := s.durable.Save(ctx, next.Clone()); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist descriptor",
			"operation", op,
			"task_id", next.TaskID,
			"error", err)
		persistErr = fmt.Errorf("%w: %s: %w", store.ErrPersistFailed, op, err)
	}

	s.notify(prev, next)
	return persistErr
}

func (s *StateStore) notify(prev, next task.Descriptor) {
	s.obsMu.Lock()
	observers := make([]observerEntry, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.Unlock()

	for _, o := range observers {
		o.fn(prev.Clone(), next.Clone())
	}
}

// sameDescriptor compares everything except UpdatedAt.
func sameDescriptor(a, b task.Descriptor) bool {
	if a.TaskID != b.TaskID || a.LectureID != b.LectureID ||
		a.Status != b.Status || a.IsPolling != b.IsPolling {
		return false
	}
	if (a.Error == nil) != (b.Error == nil) {
		return false
	}
	if a.Error == nil {
		return true
	}
	return *a.Error == *b.Error
}
