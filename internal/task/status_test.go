package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected Status
		wantErr  bool
	}{
		{input: "PENDING", expected: StatusPending},
		{input: "started", expected: StatusStarted},
		{input: " Success ", expected: StatusSuccess},
		{input: "failure", expected: StatusFailure},
		{input: "", wantErr: true},
		{input: "RETRY", wantErr: true},
		{input: "NONE", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			status, err := ParseStatus(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnknownStatus)
				assert.Equal(t, StatusNone, status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, status)
		})
	}
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"none to pending", StatusNone, StatusPending, true},
		{"pending to started", StatusPending, StatusStarted, true},
		{"pending straight to success", StatusPending, StatusSuccess, true},
		{"started to failure", StatusStarted, StatusFailure, true},
		{"started repeated", StatusStarted, StatusStarted, true},
		{"started back to pending", StatusStarted, StatusPending, false},
		{"success to failure", StatusSuccess, StatusFailure, false},
		{"failure to started", StatusFailure, StatusStarted, false},
		{"success repeated", StatusSuccess, StatusSuccess, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to))
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "NONE", StatusNone.String())
	assert.Equal(t, "STARTED", StatusStarted.String())
	assert.True(t, StatusFailure.IsTerminal())
	assert.False(t, StatusStarted.IsTerminal())
}
