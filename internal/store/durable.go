package store

import (
	"context"

	"github.com/phrazzld/taskwatch/internal/task"
)

// DurableStore persists the single task descriptor of one tracking scope.
type DurableStore interface {
	// Load returns the last saved descriptor, or an error wrapping
	// ErrNotFound if nothing was ever saved.
	Load(ctx context.Context) (task.Descriptor, error)

	// Save replaces the persisted descriptor.
	Save(ctx context.Context, d task.Descriptor) error
}
