package logger_test

import (
	"testing"

	"github.com/phrazzld/taskwatch/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestLogger_CapturesEntries(t *testing.T) {
	t.Parallel()
	buf, log := logger.NewTestLogger(t)

	log.Debug("status check failed", "task_id", "job-1", "retry_in_ms", 4500)
	log.Info("polling finished", "task_id", "job-1")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "DEBUG", entries[0]["level"])
	assert.Equal(t, "polling finished", entries[1]["msg"])

	logger.AssertLogContains(t, buf, "status check failed")
	logger.AssertLogField(t, buf, "task_id", "job-1")
	// JSON numbers decode as float64
	logger.AssertLogField(t, buf, "retry_in_ms", float64(4500))

	buf.Reset()
	assert.Empty(t, buf.String())
}
