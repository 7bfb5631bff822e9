package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	bodies []string
	err    error
}

func (r *recordingNotifier) Send(_ context.Context, _, body string) error {
	r.bodies = append(r.bodies, body)
	return r.err
}

func TestMultiNotifierTriesEveryone(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("offline")}
	ok := &recordingNotifier{}
	m := NewMultiNotifier(failing, nil, ok)

	err := m.Send(context.Background(), "t", "hello")
	assert.ErrorContains(t, err, "offline")
	assert.Equal(t, []string{"hello"}, ok.bodies, "later notifiers still run")
	assert.NoError(t, NewMultiNotifier().Send(context.Background(), "t", "b"))
	assert.NoError(t, (&NoOpNotifier{}).Send(context.Background(), "t", "b"))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := &LogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	require.NoError(t, n.Send(context.Background(), "Move Mouse", "Scheduled start."))
	assert.Contains(t, buf.String(), "Scheduled start.")
	assert.NoError(t, (&LogNotifier{}).Send(context.Background(), "t", "b"))
}

func TestBarkNotifier(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBarkNotifier(srv.URL + "/device-key/")
	require.NoError(t, err)
	require.NoError(t, b.Send(context.Background(), "Move Mouse", "Pausing now running on battery."))

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/device-key", got.URL.Path)
	assert.Equal(t, "Pausing now running on battery.", got.URL.Query().Get("body"))
	assert.Equal(t, "movemouse", got.URL.Query().Get("group"))

	_, err = NewBarkNotifier("  ")
	assert.Error(t, err)
}

func TestBarkNotifierStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	b, err := NewBarkNotifier(srv.URL)
	require.NoError(t, err)
	assert.ErrorContains(t, b.Send(context.Background(), "t", "b"), "400")
}

func TestDesktopNotifierCommands(t *testing.T) {
	var name string
	var args []string
	d := &DesktopNotifier{goos: "linux", run: func(_ context.Context, n string, a ...string) (string, error) {
		name, args = n, a
		return "", nil
	}}
	require.NoError(t, d.Send(context.Background(), "Move Mouse", "hi"))
	assert.Equal(t, "notify-send", name)
	assert.Equal(t, []string{"--app-name=Move Mouse", "Move Mouse", "hi"}, args)

	d.goos = "darwin"
	require.NoError(t, d.Send(context.Background(), "Move Mouse", `say "hi"`))
	assert.Equal(t, "osascript", name)
	assert.Equal(t, `display notification "say \"hi\"" with title "Move Mouse"`, args[1])

	d.goos = "plan9"
	assert.Error(t, d.Send(context.Background(), "t", "b"))

	d.goos = "linux"
	d.run = func(context.Context, string, ...string) (string, error) { return "no bus", errors.New("exit 1") }
	assert.ErrorContains(t, d.Send(context.Background(), "t", "b"), "no bus")
}
