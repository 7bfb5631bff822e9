package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnv(t *testing.T) {
	s, err := Load(writeSettings(t, sampleSettings))
	require.NoError(t, err)

	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvListen, ":8080")
	t.Setenv(EnvToken, "secret")
	t.Setenv(EnvJournal, "/tmp/j.db")
	t.Setenv(EnvRetention, "72h")
	t.Setenv(EnvBarkURL, "https://api.day.app/key")
	t.Setenv(EnvNotifications, "on")
	t.Setenv(EnvProfile, "Default")

	ApplyEnv(s)

	assert.Equal(t, "error", s.Log.Level)
	assert.Equal(t, ":8080", s.Server.Listen)
	assert.Equal(t, "secret", s.Server.Token)
	assert.Equal(t, "/tmp/j.db", s.Journal.Path)
	assert.Equal(t, 72*time.Hour, s.Journal.Retention)
	assert.True(t, s.Notifications.Bark.Enabled)
	assert.False(t, s.Notifications.Disabled)
	assert.Equal(t, s.Profiles[0].ID, s.ActiveProfile)
}

func TestApplyEnvIgnoresBadValues(t *testing.T) {
	s, err := Load(writeSettings(t, sampleSettings))
	require.NoError(t, err)

	t.Setenv(EnvRetention, "forever")
	t.Setenv(EnvNotifications, "maybe")
	t.Setenv(EnvProfile, "missing")

	ApplyEnv(s)

	assert.Zero(t, s.Journal.Retention)
	assert.True(t, s.Notifications.Disabled)
	assert.Equal(t, "Work", s.ActiveProfile)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MOVEMOUSE_TOKEN=fromfile\nMOVEMOUSE_LISTEN=:1\n"), 0o644))

	t.Setenv(EnvListen, ":2")
	// Registered so the variable is restored after the test.
	t.Setenv(EnvToken, "")
	require.NoError(t, os.Unsetenv(EnvToken))

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "fromfile", os.Getenv(EnvToken))
	assert.Equal(t, ":2", os.Getenv(EnvListen), "existing variables win")
}
