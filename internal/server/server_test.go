package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/movemouse/internal/keepalive"
	"github.com/stigoleg/movemouse/internal/logging"
	"github.com/stigoleg/movemouse/internal/profile"
	"github.com/stigoleg/movemouse/internal/store"
)

type fakeKeeper struct {
	mu      sync.Mutex
	state   keepalive.MouseState
	toggles int
	accept  bool
}

func (k *fakeKeeper) Status() keepalive.Status {
	k.mu.Lock()
	defer k.mu.Unlock()
	return keepalive.Status{State: k.state, Profile: "Default"}
}

func (k *fakeKeeper) Start() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.state = keepalive.Running
}

func (k *fakeKeeper) Stop(target keepalive.MouseState) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.state = target
}

func (k *fakeKeeper) Toggle() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.toggles++
	if !k.accept {
		return false
	}
	if k.state.Active() {
		k.state = keepalive.Idle
	} else {
		k.state = keepalive.Running
	}
	return true
}

type fakeProfiles struct {
	mgr *profile.Manager
}

func (f fakeProfiles) Profiles() []*profile.Profile { return f.mgr.Profiles() }
func (f fakeProfiles) Active() *profile.Profile     { return f.mgr.Active() }
func (f fakeProfiles) Activate(ref string) (*profile.Profile, error) {
	return f.mgr.SetActive(ref)
}

func (f fakeProfiles) Create(name, from string) (*profile.Profile, error) {
	p := profile.New(name)
	if from != "" {
		src, err := f.mgr.Get(from)
		if err != nil {
			return nil, err
		}
		p.SetIntervals(src.LowerInterval(), src.UpperInterval())
	}
	if err := f.mgr.Add(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (f fakeProfiles) Rename(ref, name string) (*profile.Profile, error) {
	return f.mgr.Rename(ref, name)
}

func (f fakeProfiles) Remove(ref string) error { return f.mgr.Remove(ref) }

type fakeHistory struct {
	entries []store.Entry
	err     error
	limit   int
}

func (h *fakeHistory) History(ctx context.Context, limit int) ([]store.Entry, error) {
	h.limit = limit
	return h.entries, h.err
}

func newTestServer(t *testing.T, token string) (*Server, *fakeKeeper, *fakeHistory, *keepalive.Broadcaster) {
	t.Helper()
	k := &fakeKeeper{state: keepalive.Idle, accept: true}
	mgr := profile.NewManager(profile.New("Default"), profile.New("Work"))
	h := &fakeHistory{}
	b := keepalive.NewBroadcaster(8)
	srv := NewServer("127.0.0.1:0", token, Deps{
		Keeper:   k,
		Profiles: fakeProfiles{mgr: mgr},
		History:  h,
		Events:   b,
	}, logging.Discard())
	return srv, k, h, b
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestStateStartStop(t *testing.T) {
	srv, k, _, _ := newTestServer(t, "")
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/v1/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "idle", decode[map[string]any](t, rec)["state"])

	rec = do(t, h, http.MethodPost, "/v1/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", decode[map[string]any](t, rec)["state"])

	rec = do(t, h, http.MethodPost, "/v1/stop", `{"state":"paused"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, keepalive.Paused, k.Status().State)

	rec = do(t, h, http.MethodPost, "/v1/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, keepalive.Idle, k.Status().State)
}

func TestStopRejectsMonitorStates(t *testing.T) {
	srv, k, _, _ := newTestServer(t, "")
	k.Start()

	for _, body := range []string{`{"state":"sleeping"}`, `{"state":"bogus"}`, `{`} {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/stop", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Equal(t, keepalive.Running, k.Status().State)
}

func TestToggle(t *testing.T) {
	srv, k, _, _ := newTestServer(t, "")

	rec := do(t, srv.Handler(), http.MethodPost, "/v1/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[toggleResponse](t, rec)
	assert.True(t, resp.Accepted)
	assert.Equal(t, keepalive.Running, resp.Status.State)

	k.accept = false
	resp = decode[toggleResponse](t, do(t, srv.Handler(), http.MethodPost, "/v1/toggle", ""))
	assert.False(t, resp.Accepted)
	assert.Equal(t, keepalive.Running, resp.Status.State)
	assert.Equal(t, 2, k.toggles)
}

func TestProfiles(t *testing.T) {
	srv, _, _, _ := newTestServer(t, "")
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/v1/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Profiles []profileResponse `json:"profiles"`
	}](t, rec)
	require.Len(t, list.Profiles, 2)
	assert.True(t, list.Profiles[0].Active)
	assert.False(t, list.Profiles[1].Active)
	assert.Equal(t, profile.DefaultLowerInterval, list.Profiles[0].LowerInterval)

	rec = do(t, h, http.MethodPut, "/v1/profiles/active", `{"profile":"work"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Work", decode[map[string]string](t, rec)["name"])

	rec = do(t, h, http.MethodPut, "/v1/profiles/active", `{"profile":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPut, "/v1/profiles/active", `{"profile":" "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileEdits(t *testing.T) {
	srv, _, _, _ := newTestServer(t, "")
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/v1/profiles", `{"name":" Evening ","from":"work"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[profileResponse](t, rec)
	assert.Equal(t, "Evening", created.Name)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Active)

	rec = do(t, h, http.MethodPost, "/v1/profiles", `{"name":"evening"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = do(t, h, http.MethodPost, "/v1/profiles", `{"name":"Copy","from":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodPost, "/v1/profiles", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/v1/profiles", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, "/v1/profiles/"+created.ID, `{"name":"Night"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	renamed := decode[profileResponse](t, rec)
	assert.Equal(t, created.ID, renamed.ID)
	assert.Equal(t, "Night", renamed.Name)

	rec = do(t, h, http.MethodPatch, "/v1/profiles/night", `{"name":"WORK"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = do(t, h, http.MethodPatch, "/v1/profiles/nope", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodPatch, "/v1/profiles/night", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/v1/profiles/night", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/v1/profiles/night", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodDelete, "/v1/profiles/work", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/v1/profiles/default", "")
	assert.Equal(t, http.StatusConflict, rec.Code, "the last profile stays")

	list := decode[struct {
		Profiles []profileResponse `json:"profiles"`
	}](t, do(t, h, http.MethodGet, "/v1/profiles", ""))
	require.Len(t, list.Profiles, 1)
	assert.Equal(t, "Default", list.Profiles[0].Name)
	assert.True(t, list.Profiles[0].Active)
}

func TestHistory(t *testing.T) {
	srv, _, hist, _ := newTestServer(t, "")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	hist.entries = []store.Entry{{ID: "1", Kind: "transition", At: at, From: "idle", To: "running"}}

	rec := do(t, srv.Handler(), http.MethodGet, "/v1/history?limit=5000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxHistoryLimit, hist.limit)
	got := decode[struct {
		Entries []store.Entry `json:"entries"`
	}](t, rec)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "running", got.Entries[0].To)

	do(t, srv.Handler(), http.MethodGet, "/v1/history", "")
	assert.Equal(t, defaultHistoryLimit, hist.limit)

	rec = do(t, srv.Handler(), http.MethodGet, "/v1/history?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	hist.err = errors.New("disk gone")
	rec = do(t, srv.Handler(), http.MethodGet, "/v1/history", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHistoryDisabled(t *testing.T) {
	srv := NewServer(":0", "", Deps{Keeper: &fakeKeeper{}}, logging.Discard())
	rec := do(t, srv.Handler(), http.MethodGet, "/v1/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	srv, _, _, _ := newTestServer(t, "s3cret")
	h := srv.Handler()

	tests := []struct {
		name   string
		path   string
		header []string
		want   int
	}{
		{"no token", "/v1/state", nil, http.StatusUnauthorized},
		{"wrong bearer", "/v1/state", []string{"Authorization", "Bearer nope"}, http.StatusUnauthorized},
		{"bearer", "/v1/state", []string{"Authorization", "Bearer s3cret"}, http.StatusOK},
		{"query", "/v1/state?token=s3cret", nil, http.StatusOK},
		{"wrong query", "/v1/state?token=x", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.path, "", tt.header...)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestStartAndShutdown(t *testing.T) {
	srv, _, _, _ := newTestServer(t, "")
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	// Shutdown may race Start; both orders must return cleanly.
	time.Sleep(20 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
