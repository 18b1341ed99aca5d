package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/taskwatch/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockHandler implements the Handler interface for testing
type MockHandler struct {
	LastNotification *Notification
	HandlerError     error
	HandledCount     int
}

// HandleNotification implements the Handler interface
func (h *MockHandler) HandleNotification(ctx context.Context, n *Notification) error {
	h.LastNotification = n
	h.HandledCount++
	return h.HandlerError
}

func testNotification() *Notification {
	d := task.Descriptor{TaskID: "T1", LectureID: "L1", Status: task.StatusStarted}
	return NewNotification(d, SeverityInfo, "transcription started", 0)
}

func TestInMemoryEmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEmitter(logger)
		assert.NoError(t, emitter.Emit(context.Background(), testNotification()))
	})

	t.Run("emit with successful handlers", func(t *testing.T) {
		emitter := NewInMemoryEmitter(logger)
		handler1 := &MockHandler{}
		handler2 := &MockHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		n := testNotification()
		require.NoError(t, emitter.Emit(context.Background(), n))

		assert.Equal(t, 1, handler1.HandledCount)
		assert.Equal(t, 1, handler2.HandledCount)
		assert.Equal(t, n, handler1.LastNotification)
		assert.Equal(t, n, handler2.LastNotification)
	})

	t.Run("emit with failing handler", func(t *testing.T) {
		emitter := NewInMemoryEmitter(logger)
		failingHandler := &MockHandler{HandlerError: errors.New("handler error")}
		successHandler := &MockHandler{}
		emitter.RegisterHandler(failingHandler)
		emitter.RegisterHandler(successHandler)

		err := emitter.Emit(context.Background(), testNotification())

		assert.EqualError(t, err, "handler error")
		assert.Equal(t, 1, failingHandler.HandledCount)
		assert.Equal(t, 1, successHandler.HandledCount)
	})

	t.Run("handler func adapter", func(t *testing.T) {
		emitter := NewInMemoryEmitter(logger)
		var got string
		emitter.RegisterHandler(HandlerFunc(func(ctx context.Context, n *Notification) error {
			got = n.Message
			return nil
		}))

		require.NoError(t, emitter.Emit(context.Background(), testNotification()))
		assert.Equal(t, "transcription started", got)
	})
}
