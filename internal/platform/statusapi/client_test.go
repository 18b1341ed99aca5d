package statusapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/taskwatch/internal/config"
	"github.com/phrazzld/taskwatch/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.StatusAPIConfig{
		BaseURL:    srv.URL,
		PathPrefix: "/api/transcription/task",
		Timeout:    2 * time.Second,
		Burst:      1,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c
}

func TestClient_FetchStatus(t *testing.T) {
	t.Parallel()

	t.Run("normalizes status", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/transcription/task/T1", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"task_id":"T1","status":"started"}`))
		})

		report, err := c.FetchStatus(context.Background(), "T1")

		require.NoError(t, err)
		assert.Equal(t, task.Report{TaskID: "T1", Status: task.StatusStarted}, report)
	})

	t.Run("job failure is a successful fetch", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"task_id":"T1","status":"FAILURE","error":"audio too short"}`))
		})

		report, err := c.FetchStatus(context.Background(), "T1")

		require.NoError(t, err)
		assert.Equal(t, task.StatusFailure, report.Status)
		assert.Equal(t, "audio too short", report.Error)
	})

	t.Run("escapes task id", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/transcription/task/a%2Fb", r.URL.EscapedPath())
			_, _ = w.Write([]byte(`{"task_id":"a/b","status":"PENDING"}`))
		})

		report, err := c.FetchStatus(context.Background(), "a/b")

		require.NoError(t, err)
		assert.Equal(t, task.StatusPending, report.Status)
	})
}

func TestClient_FetchStatusErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  error
		wantCode int
	}{
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			body:     `oops`,
			wantErr:  ErrUnexpectedStatus,
			wantCode: http.StatusInternalServerError,
		},
		{
			name:     "not found",
			status:   http.StatusNotFound,
			wantErr:  ErrUnexpectedStatus,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "invalid json",
			status:   http.StatusOK,
			body:     `{"task_id":`,
			wantErr:  ErrMalformedReply,
			wantCode: http.StatusOK,
		},
		{
			name:     "missing status",
			status:   http.StatusOK,
			body:     `{"task_id":"T1"}`,
			wantErr:  ErrMalformedReply,
			wantCode: http.StatusOK,
		},
		{
			name:     "unknown status",
			status:   http.StatusOK,
			body:     `{"task_id":"T1","status":"RETRY"}`,
			wantErr:  task.ErrUnknownStatus,
			wantCode: http.StatusOK,
		},
		{
			name:     "different task",
			status:   http.StatusOK,
			body:     `{"task_id":"T2","status":"SUCCESS"}`,
			wantErr:  ErrMalformedReply,
			wantCode: http.StatusOK,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := c.FetchStatus(context.Background(), "T1")

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFetchFailed)
			assert.ErrorIs(t, err, tc.wantErr)

			var fetchErr *FetchError
			require.True(t, errors.As(err, &fetchErr))
			assert.Equal(t, "T1", fetchErr.TaskID)
			assert.Equal(t, tc.wantCode, fetchErr.StatusCode)
		})
	}
}

func TestClient_TransportErrors(t *testing.T) {
	t.Parallel()

	t.Run("empty task id", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		_, err := c.FetchStatus(context.Background(), "")

		assert.ErrorIs(t, err, ErrFetchFailed)
		assert.ErrorIs(t, err, ErrEmptyTaskID)
	})

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c, err := NewClient(config.StatusAPIConfig{BaseURL: url, PathPrefix: "/", Timeout: time.Second, Burst: 1}, nil)
		require.NoError(t, err)

		_, err = c.FetchStatus(context.Background(), "T1")

		assert.ErrorIs(t, err, ErrFetchFailed)
		var fetchErr *FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Zero(t, fetchErr.StatusCode)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"task_id":"T1","status":"PENDING"}`))
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.FetchStatus(ctx, "T1")

		assert.ErrorIs(t, err, ErrFetchFailed)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("oversized body", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"task_id":"T1","status":"PENDING","error":"`))
			_, _ = w.Write([]byte(strings.Repeat("x", maxBodySize)))
			_, _ = w.Write([]byte(`"}`))
		})

		_, err := c.FetchStatus(context.Background(), "T1")

		assert.ErrorIs(t, err, ErrMalformedReply)
	})
}

func TestClient_RateLimit(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"task_id":"T1","status":"PENDING"}`))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(config.StatusAPIConfig{
		BaseURL:           srv.URL,
		PathPrefix:        "/api/transcription/task",
		Timeout:           time.Second,
		RequestsPerSecond: 0.001,
		Burst:             1,
	}, nil)
	require.NoError(t, err)

	_, err = c.FetchStatus(context.Background(), "T1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.FetchStatus(ctx, "T1")

	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Equal(t, int32(1), hits.Load(), "second request is held back by the limiter")
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	t.Parallel()
	_, err := NewClient(config.StatusAPIConfig{BaseURL: "not a url"}, nil)
	assert.Error(t, err)
}
