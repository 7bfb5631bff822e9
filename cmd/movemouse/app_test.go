package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/movemouse/internal/config"
	"github.com/stigoleg/movemouse/internal/keepalive"
	"github.com/stigoleg/movemouse/internal/logging"
	"github.com/stigoleg/movemouse/internal/profile"
)

const appSettings = `
activeProfile: Work
profiles:
  - name: Work
    lowerInterval: 10
    upperInterval: 20
    autoResumeSeconds: 45
    actions:
      - kind: sleep
        duration: 1s
        trigger: interval
        repeat: true
        repeatMode: forever
  - name: Home
    lowerInterval: 60
    upperInterval: 60
    enableLogging: true
    actions: []
`

func newTestApp(t *testing.T) *app {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(appSettings), 0o644))
	s, err := config.Load(path)
	require.NoError(t, err)

	a := &app{path: path, settings: s, logger: logging.Discard()}
	a.runtime, err = s.Build(a.perf)
	require.NoError(t, err)
	a.keeper = keepalive.New(a.runtime.Snapshot(), keepalive.Options{Logger: logging.Discard()})
	t.Cleanup(func() { a.keeper.Close() })
	return a
}

func loadSaved(t *testing.T, a *app) *config.Settings {
	t.Helper()
	doc, err := config.Load(a.path)
	require.NoError(t, err)
	return doc
}

func TestAppCreateProfile(t *testing.T) {
	a := newTestApp(t)

	p, err := a.Create("Evening", "work")
	require.NoError(t, err)
	assert.Equal(t, "Evening", p.Name)
	assert.Equal(t, 10, p.LowerInterval())
	require.Len(t, p.Actions, 1)

	got, err := a.runtime.Profiles.Get("evening")
	require.NoError(t, err)
	assert.Same(t, p, got)

	doc := loadSaved(t, a)
	require.Len(t, doc.Profiles, 3)
	assert.Equal(t, p.ID, doc.Profiles[2].ID)
	assert.Equal(t, 45, doc.Profiles[2].AutoResumeSeconds)

	_, err = a.Create("home", "")
	assert.ErrorIs(t, err, profile.ErrDuplicateProfile)
	_, err = a.Create("Other", "missing")
	assert.ErrorIs(t, err, profile.ErrUnknownProfile)
	assert.Len(t, loadSaved(t, a).Profiles, 3, "failed edits leave the file alone")
}

func TestAppRenameActiveProfileReappliesCopy(t *testing.T) {
	a := newTestApp(t)
	held := a.keeper.Snapshot().Profile
	require.Equal(t, "Work", held.Name)

	p, err := a.Rename("work", "Office")
	require.NoError(t, err)
	assert.Equal(t, "Office", p.Name)
	assert.Equal(t, "Work", held.Name, "the keeper's previous snapshot is not mutated")
	assert.Equal(t, "Office", a.keeper.Status().Profile)
	assert.Same(t, p, a.keeper.Snapshot().Profile)

	doc := loadSaved(t, a)
	assert.Equal(t, "Office", doc.Profiles[0].Name)
	assert.Equal(t, p.ID, doc.ActiveProfile)

	_, err = a.Rename("office", "HOME")
	assert.ErrorIs(t, err, profile.ErrDuplicateProfile)
	_, err = a.Rename("missing", "x")
	assert.ErrorIs(t, err, profile.ErrUnknownProfile)
}

func TestAppRemoveProfile(t *testing.T) {
	a := newTestApp(t)
	home, err := a.runtime.Profiles.Get("home")
	require.NoError(t, err)

	require.NoError(t, a.Remove("work"))
	assert.Equal(t, home.ID, a.Active().ID)
	assert.Equal(t, "Home", a.keeper.Status().Profile)
	assert.Equal(t, home.ID, a.chosen)

	doc := loadSaved(t, a)
	require.Len(t, doc.Profiles, 1)
	assert.Equal(t, home.ID, doc.ActiveProfile)

	assert.ErrorIs(t, a.Remove("home"), profile.ErrLastProfile)
	assert.ErrorIs(t, a.Remove("work"), profile.ErrUnknownProfile)
	assert.Equal(t, []string{"Home"}, a.runtime.Profiles.Names())
}

func TestAppActivatePersists(t *testing.T) {
	a := newTestApp(t)

	p, err := a.Activate("home")
	require.NoError(t, err)
	assert.Equal(t, "Home", a.keeper.Status().Profile)
	assert.Equal(t, p.ID, loadSaved(t, a).ActiveProfile)
}

func TestAppProfileLoggingSetsLevel(t *testing.T) {
	a := newTestApp(t)
	a.verbosity = logging.NewVerbosity("warn")

	_, err := a.Activate("home")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, a.verbosity.Level())

	_, err = a.Activate("work")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, a.verbosity.Level())

	doc, err := config.Load(a.path)
	require.NoError(t, err)
	doc.Log.Level = "error"
	require.NoError(t, doc.SetActiveProfile("home"))
	a.chosen = ""
	require.NoError(t, a.reload(doc))
	assert.Equal(t, slog.LevelDebug, a.verbosity.Level(), "reload follows the active profile")

	require.NoError(t, doc.SetActiveProfile("work"))
	require.NoError(t, a.reload(doc))
	assert.Equal(t, slog.LevelError, a.verbosity.Level(), "reload picks up the configured level")
}
