package logger

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"", LevelInfo},
		{" warn ", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestLoggerOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, LevelDebug)

	l.Debug("thread-1", "debug message")
	l.Info("thread-1", "info message")
	l.Warn("thread-1", "warn message")
	l.Error("thread-1", "error message")

	output := buf.String()
	assert.Contains(t, output, "[DEBUG]")
	assert.Contains(t, output, "[INFO]")
	assert.Contains(t, output, "[WARN]")
	assert.Contains(t, output, "[ERROR]")
	assert.Contains(t, output, "[thread-1]")
}

func TestLoggerLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, LevelWarn)

	l.Debug("", "debug message")
	l.Info("", "info message")
	l.Warn("", "warn message")
	l.Error("", "error message")

	output := buf.String()
	assert.NotContains(t, output, "[DEBUG]")
	assert.NotContains(t, output, "[INFO]")
	assert.Contains(t, output, "[WARN]")
	assert.Contains(t, output, "[ERROR]")

	assert.False(t, l.Enabled(LevelInfo))
	assert.True(t, l.Enabled(LevelError))
}

func TestLoggerSetLevelAndOutput(t *testing.T) {
	first := &bytes.Buffer{}
	l := New(first, LevelError)

	l.Info("", "should not appear")
	assert.NotContains(t, first.String(), "should not appear")

	second := &bytes.Buffer{}
	l.SetLevel(LevelInfo)
	l.SetOutput(second)
	l.Info("", "should appear")

	assert.Empty(t, first.String())
	assert.Contains(t, second.String(), "should appear")
}

func TestLoggerFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, LevelInfo)
	l.now = func() time.Time {
		return time.Date(2024, 5, 6, 7, 8, 9, 123_000_000, time.UTC)
	}

	l.Info("", "populating %d keys", 42)
	l.Info(ThreadScope(3), "done")

	assert.Equal(t,
		"[2024-05-06 07:08:09.123] [INFO] populating 42 keys\n"+
			"[2024-05-06 07:08:09.123] [INFO] [thread-3] done\n",
		buf.String())
}
