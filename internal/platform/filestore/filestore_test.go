package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phrazzld/taskwatch/internal/store"
	"github.com/phrazzld/taskwatch/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s, err := New(path)
	require.NoError(t, err)

	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	want := task.Descriptor{
		TaskID:    "T1",
		LectureID: "L1",
		Status:    task.StatusFailure,
		Error:     &task.TaskError{Kind: task.ErrorKindJob, Message: "boom", At: at},
		IsPolling: true,
		UpdatedAt: at,
	}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// a fresh Store on the same path sees the snapshot
	reopened, err := New(path)
	require.NoError(t, err)
	got, err = reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_Overwrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "state.json"))
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, task.Descriptor{TaskID: "T1", Status: task.StatusStarted}))
	require.NoError(t, s.Save(ctx, task.Descriptor{}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, task.Descriptor{}, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestStore_CorruptSnapshot(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	s, err := New(path)
	require.NoError(t, err)

	_, err = s.Load(context.Background())

	assert.ErrorIs(t, err, store.ErrCorruptSnapshot)
	var storeErr *store.StoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestNew_EmptyPath(t *testing.T) {
	t.Parallel()
	_, err := New("")
	assert.Error(t, err)
}
