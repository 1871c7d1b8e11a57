package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("permission denied")

	// When: wrapping with MonitorError
	monErr := New(ErrCodeWatchFailed, "cannot watch /srv/in", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, monErr)
	assert.Equal(t, originalErr, errors.Unwrap(monErr))
	assert.True(t, errors.Is(monErr, originalErr))
}

func TestMonitorError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "missing handler",
			code:     ErrCodeHandlerMissing,
			message:  "MONITOR_A has no handler",
			expected: "[ERR_101_HANDLER_MISSING] MONITOR_A has no handler",
		},
		{
			name:     "watch failure",
			code:     ErrCodeWatchFailed,
			message:  "cannot watch",
			expected: "[ERR_202_WATCH_FAILED] cannot watch",
		},
		{
			name:     "handler exit",
			code:     ErrCodeHandlerExit,
			message:  "exit status 1",
			expected: "[ERR_302_HANDLER_EXIT] exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestMonitorError_Is_MatchesByCode(t *testing.T) {
	// Given: two errors with same code
	err1 := New(ErrCodeHandlerMissing, "MONITOR_A has no handler", nil)
	err2 := New(ErrCodeHandlerMissing, "MONITOR_B has no handler", nil)

	// Then: they match by code
	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, New(ErrCodePathUnreadable, "x", nil)))
}

func TestMonitorError_WithDetail_AddsContext(t *testing.T) {
	// Given: a base error
	err := New(ErrCodePathUnreadable, "path cannot be read", nil)

	// When: adding details
	err = err.WithDetail("variable", "MONITOR_IN").WithDetail("path", "/srv/in")

	// Then: details are available
	assert.Equal(t, "MONITOR_IN", err.Details["variable"])
	assert.Equal(t, "/srv/in", err.Details["path"])
}

func TestMonitorError_WithSuggestion(t *testing.T) {
	err := New(ErrCodeHandlerNotExecutable, "not executable", nil).
		WithSuggestion("chmod +x the handler")

	assert.Equal(t, "chmod +x the handler", err.Suggestion)
}

func TestMonitorError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeHandlerMissing, CategoryConfig},
		{ErrCodeEnvFileInvalid, CategoryConfig},
		{ErrCodeStatFailed, CategorySubscription},
		{ErrCodeWatchFailed, CategorySubscription},
		{ErrCodeSpawnFailed, CategoryInvocation},
		{ErrCodeHandlerExit, CategoryInvocation},
		{ErrCodeHandlerKilled, CategoryInvocation},
		{ErrCodeNoMonitors, CategoryStartup},
		{ErrCodeInternal, CategoryInternal},
		{"BAD", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestMonitorError_SeverityFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantSeverity Severity
	}{
		{ErrCodeNoMonitors, SeverityFatal},
		{ErrCodeInstanceLocked, SeverityFatal},
		{ErrCodeHandlerMissing, SeverityWarning},
		{ErrCodeWatchFailed, SeverityError},
		{ErrCodeHandlerExit, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
		})
	}
}

func TestWrap(t *testing.T) {
	// Given: a standard error
	originalErr := errors.New("something went wrong")

	// When: wrapping with a code
	monErr := Wrap(ErrCodeInternal, originalErr)

	// Then: creates proper MonitorError
	require.NotNil(t, monErr)
	assert.Equal(t, ErrCodeInternal, monErr.Code)
	assert.Equal(t, "something went wrong", monErr.Message)
	assert.Equal(t, originalErr, monErr.Cause)

	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, CategoryConfig, ConfigError(ErrCodeHandlerMissing, "m", nil).Category)
	assert.Equal(t, CategorySubscription, SubscriptionError("m", nil).Category)
	assert.Equal(t, CategoryInvocation, InvocationError(ErrCodeSpawnFailed, "m", nil).Category)
	assert.Equal(t, CategoryInternal, InternalError("m", nil).Category)
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"no monitors", New(ErrCodeNoMonitors, "No valid monitors found.", nil), true},
		{"skipped candidate", New(ErrCodeHandlerMissing, "skipped", nil), false},
		{"standard error", errors.New("standard error"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFatal(tt.err))
		})
	}
}

func TestGetCodeAndCategory(t *testing.T) {
	err := New(ErrCodeSpawnFailed, "fork failed", nil)
	assert.Equal(t, ErrCodeSpawnFailed, GetCode(err))
	assert.Equal(t, CategoryInvocation, GetCategory(err))

	assert.Empty(t, GetCode(errors.New("plain")))
	assert.Empty(t, GetCategory(errors.New("plain")))
}
