package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/taskwatch/internal/api/shared"
	"github.com/phrazzld/taskwatch/internal/events"
	"github.com/phrazzld/taskwatch/internal/store"
	"github.com/phrazzld/taskwatch/internal/task"
	"github.com/phrazzld/taskwatch/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var handlerTestStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type handlerHarness struct {
	clock   *tracker.ManualClock
	fetcher *tracker.MockFetcher
	tracker *tracker.Tracker
	handler *TaskHandler
}

func newHandlerHarness(t *testing.T, results ...tracker.MockResult) *handlerHarness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := tracker.NewManualClock(handlerTestStart)
	fetcher := tracker.NewMockFetcher(results...)
	feed := events.NewRecentBuffer(10)
	emitter := events.NewInMemoryEmitter(logger)
	emitter.RegisterHandler(feed)

	tr, err := tracker.New(context.Background(), tracker.Deps{
		Durable: store.NewMemoryStore(),
		Fetcher: fetcher,
		Emitter: emitter,
		Clock:   clock,
		Logger:  logger,
	}, tracker.Config{PollInterval: 3 * time.Second, GracePeriod: 30 * time.Second}, true)
	require.NoError(t, err)
	t.Cleanup(tr.Close)

	return &handlerHarness{
		clock:   clock,
		fetcher: fetcher,
		tracker: tr,
		handler: NewTaskHandler(tr.Coordinator, tr.State, feed, logger),
	}
}

func doRequest(handler http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(shared.SetTraceID(req.Context()))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decodeTask(t *testing.T, w *httptest.ResponseRecorder) TaskResponse {
	t.Helper()
	var resp TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestTaskHandler_GetTask_Empty(t *testing.T) {
	t.Parallel()
	h := newHandlerHarness(t)

	w := doRequest(h.handler.GetTask, http.MethodGet, "/api/task", "")

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeTask(t, w)
	assert.Empty(t, resp.TaskID)
	assert.Equal(t, task.StatusNone.String(), resp.Status)
	assert.False(t, resp.IsPolling)
	assert.False(t, resp.Active)
	assert.Nil(t, resp.UpdatedAt)
}

func TestTaskHandler_StartTask(t *testing.T) {
	t.Parallel()
	h := newHandlerHarness(t,
		tracker.MockResult{Status: task.StatusStarted},
		tracker.MockResult{Status: task.StatusSuccess},
	)

	w := doRequest(h.handler.StartTask, http.MethodPost, "/api/task",
		`{"task_id":"job-1","lecture_id":"lec-9"}`)

	require.Equal(t, http.StatusAccepted, w.Code)
	resp := decodeTask(t, w)
	assert.Equal(t, "job-1", resp.TaskID)
	assert.Equal(t, "lec-9", resp.LectureID)
	assert.Equal(t, task.StatusPending.String(), resp.Status)
	assert.True(t, resp.IsPolling)
	assert.True(t, resp.Active)
	require.NotNil(t, resp.UpdatedAt)

	h.clock.Advance(0)
	h.clock.Advance(3 * time.Second)

	w = doRequest(h.handler.GetTask, http.MethodGet, "/api/task", "")
	resp = decodeTask(t, w)
	assert.Equal(t, task.StatusSuccess.String(), resp.Status)
	assert.True(t, resp.IsPolling, "polling flag stays on during the grace period")

	w = doRequest(h.handler.ListNotifications, http.MethodGet, "/api/notifications", "")
	require.Equal(t, http.StatusOK, w.Code)
	var feed NotificationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	require.Len(t, feed.Notifications, 2)
	assert.Equal(t, tracker.MessageSuccess, feed.Notifications[0].Message)
	assert.Equal(t, string(events.SeveritySuccess), feed.Notifications[0].Severity)
	assert.Equal(t, tracker.SuccessTTL.Milliseconds(), feed.Notifications[0].TTLMillis)
	assert.Equal(t, tracker.MessageStarted, feed.Notifications[1].Message)
}

func TestTaskHandler_StartTask_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "malformed json", body: `{"task_id":`, message: "Invalid request format"},
		{name: "unknown field", body: `{"task_id":"a","extra":1}`, message: "Invalid request format"},
		{name: "trailing data", body: `{"task_id":"a"}{}`, message: "Invalid request format"},
		{name: "missing task id", body: `{"lecture_id":"lec"}`, message: "Invalid task_id: required field"},
		{
			name:    "task id too long",
			body:    `{"task_id":"` + strings.Repeat("x", 257) + `"}`,
			message: "Invalid task_id: too long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHandlerHarness(t)

			w := doRequest(h.handler.StartTask, http.MethodPost, "/api/task", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp shared.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.message, resp.Error)
			assert.NotEmpty(t, resp.TraceID)
			assert.Zero(t, h.fetcher.CallCount())
		})
	}
}

func TestTaskHandler_StopTask(t *testing.T) {
	t.Parallel()
	h := newHandlerHarness(t, tracker.MockResult{Status: task.StatusStarted})

	require.Equal(t, http.StatusAccepted,
		doRequest(h.handler.StartTask, http.MethodPost, "/api/task", `{"task_id":"job-1"}`).Code)
	h.clock.Advance(0)

	w := doRequest(h.handler.StopTask, http.MethodPost, "/api/task/stop", "")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeTask(t, w)
	assert.Equal(t, "job-1", resp.TaskID)
	assert.Equal(t, task.StatusStarted.String(), resp.Status)
	assert.False(t, resp.IsPolling)
	assert.False(t, resp.Active)

	calls := h.fetcher.CallCount()
	h.clock.Advance(time.Minute)
	assert.Equal(t, calls, h.fetcher.CallCount())
}

func TestTaskHandler_ResetTask(t *testing.T) {
	t.Parallel()
	h := newHandlerHarness(t)

	require.Equal(t, http.StatusAccepted,
		doRequest(h.handler.StartTask, http.MethodPost, "/api/task", `{"task_id":"job-1"}`).Code)

	w := doRequest(h.handler.ResetTask, http.MethodDelete, "/api/task", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, task.Descriptor{}, h.tracker.State.Get())
}

type stubController struct {
	startErr error
	stopErr  error
	resetErr error
}

func (s *stubController) Start(context.Context, string, string) error { return s.startErr }
func (s *stubController) Stop(context.Context) error                   { return s.stopErr }
func (s *stubController) Reset(context.Context) error                  { return s.resetErr }
func (s *stubController) Polling() bool                                { return false }

type stubReader struct{ d task.Descriptor }

func (s stubReader) Get() task.Descriptor { return s.d }

func TestTaskHandler_ControllerErrors(t *testing.T) {
	t.Parallel()

	internal := errors.New("dial tcp 10.0.0.7:5432: connection refused")
	ctrl := &stubController{
		startErr: internal,
		stopErr:  store.ErrUnavailable,
		resetErr: task.ErrNoTask,
	}
	handler := NewTaskHandler(ctrl, stubReader{}, nil, nil)

	w := doRequest(handler.StartTask, http.MethodPost, "/api/task", `{"task_id":"job-1"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to start tracking")
	assert.NotContains(t, w.Body.String(), "10.0.0.7")

	w = doRequest(handler.StopTask, http.MethodPost, "/api/task/stop", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doRequest(handler.ResetTask, http.MethodDelete, "/api/task", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(handler.ListNotifications, http.MethodGet, "/api/notifications", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"notifications":[]}`, w.Body.String())
}

func TestTaskHandler_GetTask_RedactsErrorMessage(t *testing.T) {
	t.Parallel()

	reader := stubReader{d: task.Descriptor{
		TaskID:    "T1",
		Status:    task.StatusStarted,
		IsPolling: true,
		Error: &task.TaskError{
			Kind: task.ErrorKindFetch,
			Message: `fetch status of task T1: Get "http://127.0.0.1:1/api/transcription/task/T1": ` +
				`dial tcp 127.0.0.1:1: connect: connection refused`,
			At: handlerTestStart,
		},
		UpdatedAt: handlerTestStart,
	}}
	handler := NewTaskHandler(&stubController{}, reader, nil, nil)

	w := doRequest(handler.GetTask, http.MethodGet, "/api/task", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "127.0.0.1")
	assert.NotContains(t, w.Body.String(), "/api/transcription")

	resp := decodeTask(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(task.ErrorKindFetch), resp.Error.Kind)
	assert.Contains(t, resp.Error.Message, "connection refused")
	assert.Contains(t, resp.Error.Message, "[REDACTED_HOST]")
}
