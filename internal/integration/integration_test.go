package integration

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/movemouse/internal/config"
	"github.com/stigoleg/movemouse/internal/keepalive"
	"github.com/stigoleg/movemouse/internal/logging"
	"github.com/stigoleg/movemouse/internal/platform/patterns"
	"github.com/stigoleg/movemouse/internal/profile"
	"github.com/stigoleg/movemouse/internal/server"
	"github.com/stigoleg/movemouse/internal/store"
)

const settingsDoc = `
activeProfile: Work
profiles:
  - name: Work
    lowerInterval: 1
    upperInterval: 1
    pauseOnBattery: true
    actions:
      - name: Jiggle
        kind: move
        trigger: interval
        repeat: true
        repeatMode: forever
        shape: nudge
        minSize: 2
        maxSize: 4
  - name: Quiet
    lowerInterval: 60
    upperInterval: 60
    actions: []
server:
  token: secret
`

// countingMover records relative cursor moves.
type countingMover struct {
	mu    sync.Mutex
	moves int
	x, y  int
}

func (m *countingMover) Move(dx, dy int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moves++
	m.x += dx
	m.y += dy
	return nil
}

func (m *countingMover) Name() string { return "counting" }

func (m *countingMover) Moves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moves
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Send(_ context.Context, _, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, body)
	return nil
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

// profileSwitcher applies profile switches to the keeper the way the
// binary does, without persisting them.
type profileSwitcher struct {
	rt     *config.Runtime
	keeper *keepalive.Keeper
}

func (p profileSwitcher) Profiles() []*profile.Profile { return p.rt.Profiles.Profiles() }
func (p profileSwitcher) Active() *profile.Profile     { return p.rt.Profiles.Active() }
func (p profileSwitcher) Activate(ref string) (*profile.Profile, error) {
	prof, err := p.rt.Profiles.SetActive(ref)
	if err != nil {
		return nil, err
	}
	p.keeper.Apply(p.rt.Snapshot())
	return prof, nil
}

func (p profileSwitcher) Create(name, _ string) (*profile.Profile, error) {
	prof := profile.New(name)
	if err := p.rt.Profiles.Add(prof); err != nil {
		return nil, err
	}
	return prof, nil
}

func (p profileSwitcher) Rename(ref, name string) (*profile.Profile, error) {
	prof, err := p.rt.Profiles.Rename(ref, name)
	if err != nil {
		return nil, err
	}
	if p.rt.Profiles.Active().ID == prof.ID {
		p.keeper.Apply(p.rt.Snapshot())
	}
	return prof, nil
}

func (p profileSwitcher) Remove(ref string) error {
	active := p.rt.Profiles.Active().ID
	if err := p.rt.Profiles.Remove(ref); err != nil {
		return err
	}
	if p.rt.Profiles.Active().ID != active {
		p.keeper.Apply(p.rt.Snapshot())
	}
	return nil
}

type harness struct {
	mover    *countingMover
	notifier *recordingNotifier
	keeper   *keepalive.Keeper
	journal  *store.Store
	api      *httptest.Server
	token    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(settingsDoc), 0o644))

	settings, err := config.Load(path)
	require.NoError(t, err)

	h := &harness{mover: &countingMover{}, notifier: &recordingNotifier{}, token: settings.Server.Token}
	rt, err := settings.Build(config.Performers{
		Mover:     h.mover,
		Generator: patterns.NewGenerator(rand.New(rand.NewSource(1))),
		Logger:    logging.Discard(),
	})
	require.NoError(t, err)

	events := keepalive.NewBroadcaster(64)
	h.keeper = keepalive.New(rt.Snapshot(), keepalive.Options{
		Logger:   logging.Discard(),
		Notifier: h.notifier,
		Observer: events,
	})
	t.Cleanup(func() { h.keeper.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	h.journal, err = store.Open(ctx, filepath.Join(dir, "journal.db"))
	require.NoError(t, err)

	feed, unsubscribe := events.Subscribe()
	followed := make(chan struct{})
	go func() {
		defer close(followed)
		h.journal.Follow(ctx, feed, func() string { return rt.Profiles.Active().Name }, logging.Discard())
	}()

	srv := server.NewServer("127.0.0.1:0", settings.Server.Token, server.Deps{
		Keeper:   h.keeper,
		Profiles: profileSwitcher{rt: rt, keeper: h.keeper},
		History:  h.journal,
		Events:   events,
	}, logging.Discard())
	h.api = httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		h.api.Close()
		cancel()
		unsubscribe()
		<-followed
		h.journal.Close()
	})
	return h
}

func (h *harness) call(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, h.api.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+h.token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

// TestControlLoop drives a keeper built from a settings document through
// the control API and checks the journal saw the run.
func TestControlLoop(t *testing.T) {
	h := newHarness(t)

	code, status := h.call(t, http.MethodGet, "/v1/state", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "idle", status["state"])
	assert.Equal(t, "Work", status["profile"])

	code, status = h.call(t, http.MethodPost, "/v1/start", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "running", status["state"])

	assert.Eventually(t, func() bool { return h.mover.Moves() > 0 }, 5*time.Second, 50*time.Millisecond,
		"the interval action should move the cursor")
	assert.Eventually(t, func() bool { return h.keeper.State() == keepalive.Running }, 2*time.Second, 20*time.Millisecond)

	code, status = h.call(t, http.MethodPost, "/v1/stop", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "idle", status["state"])

	assert.Eventually(t, func() bool {
		entries, err := h.journal.History(context.Background(), 50)
		if err != nil {
			return false
		}
		var sawStart, sawStop bool
		for _, e := range entries {
			if e.Kind != "state" {
				continue
			}
			sawStart = sawStart || (e.From == "idle" && e.To == "running" && e.Profile == "Work")
			sawStop = sawStop || e.To == "idle"
		}
		return sawStart && sawStop
	}, 2*time.Second, 20*time.Millisecond, "journal should hold the start and stop transitions")

	code, history := h.call(t, http.MethodGet, "/v1/history?limit=10", "")
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, history["entries"])
}

func TestProfileSwitchReachesKeeper(t *testing.T) {
	h := newHarness(t)

	code, body := h.call(t, http.MethodPut, "/v1/profiles/active", `{"profile":"quiet"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Quiet", body["name"])
	assert.Equal(t, "Quiet", h.keeper.Status().Profile)

	code, _ = h.call(t, http.MethodPut, "/v1/profiles/active", `{"profile":"Nope"}`)
	assert.Equal(t, http.StatusNotFound, code)

	// The quiet profile waits a minute, so nothing moves after starting.
	h.keeper.Start()
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, h.mover.Moves())
}

func TestProfileEditsReachKeeper(t *testing.T) {
	h := newHarness(t)
	held := h.keeper.Snapshot().Profile

	code, body := h.call(t, http.MethodPatch, "/v1/profiles/work", `{"name":"Office"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Office", body["name"])
	assert.Equal(t, "Office", h.keeper.Status().Profile)
	assert.Equal(t, "Work", held.Name)

	code, _ = h.call(t, http.MethodDelete, "/v1/profiles/office", "")
	require.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, "Quiet", h.keeper.Status().Profile)

	code, _ = h.call(t, http.MethodDelete, "/v1/profiles/quiet", "")
	assert.Equal(t, http.StatusConflict, code)
}

func TestBatteryPausesAndResumes(t *testing.T) {
	h := newHarness(t)

	h.keeper.Start()
	require.Equal(t, keepalive.Running, h.keeper.State())

	h.keeper.HandlePowerChange(true)
	assert.Equal(t, keepalive.OnBattery, h.keeper.State())
	code, status := h.call(t, http.MethodGet, "/v1/state", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, status["on_battery"])

	h.keeper.HandlePowerChange(false)
	assert.Equal(t, keepalive.Running, h.keeper.State())
	assert.Eventually(t, func() bool {
		msgs := h.notifier.Messages()
		return len(msgs) == 2 && msgs[1] == "Resuming now running on mains power."
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRejectsMissingToken(t *testing.T) {
	h := newHarness(t)
	resp, err := http.Get(h.api.URL + "/v1/state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
