package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(New("warn", &buf), "keeper")

	logger.Info("hidden")
	logger.Warn("shown", "state", "Running")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "component=keeper")
	assert.True(t, strings.Contains(out, "state=Running"))
}

func TestVerbosityFollowsProfileLogging(t *testing.T) {
	var buf bytes.Buffer
	v := NewVerbosity("info")
	logger := NewWithLevel(v, &buf)

	logger.Debug("quiet")
	assert.NotContains(t, buf.String(), "quiet")

	v.SetDebug(true)
	assert.Equal(t, slog.LevelDebug, v.Level())
	logger.Debug("detailed")
	assert.Contains(t, buf.String(), "detailed")

	v.SetBase("error")
	assert.Equal(t, slog.LevelDebug, v.Level(), "debug wins while enabled")

	v.SetDebug(false)
	assert.Equal(t, slog.LevelError, v.Level())
	logger.Warn("dropped")
	assert.NotContains(t, buf.String(), "dropped")
}
