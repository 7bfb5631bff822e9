package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/movemouse/internal/keepalive"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "journal.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.sqlite")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()

	var n int
	require.NoError(t, s.DB.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestRecordAndHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	events := []keepalive.Event{
		{Kind: keepalive.EventStateChanged, Time: base, Previous: keepalive.Idle, State: keepalive.Running},
		{Kind: keepalive.EventExecutionTimeChanged, Time: base.Add(time.Second)},
		{Kind: keepalive.EventNotification, Time: base.Add(2 * time.Second), Message: "Scheduled stop."},
		{Kind: keepalive.EventStateChanged, Time: base.Add(3 * time.Second), Previous: keepalive.Running, State: keepalive.Idle},
		{Kind: keepalive.EventDiagnostic, Time: base.Add(4 * time.Second), Message: "Idle time was not reset"},
	}
	for _, e := range events {
		require.NoError(t, s.Record(ctx, e, "Work"))
	}

	history, err := s.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 4, "execution time changes are not journaled")

	assert.Equal(t, "diagnostic", history[0].Kind)
	assert.Equal(t, "Idle time was not reset", history[0].Message)
	assert.Equal(t, "state", history[1].Kind)
	assert.Equal(t, "running", history[1].From)
	assert.Equal(t, "idle", history[1].To)
	assert.Equal(t, "Work", history[1].Profile)
	assert.Equal(t, "notification", history[2].Kind)
	assert.True(t, history[3].At.Equal(base))

	limited, err := s.History(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	old := time.Now().Add(-48 * time.Hour)

	require.NoError(t, s.Record(ctx, keepalive.Event{Kind: keepalive.EventNotification, Time: old, Message: "old"}, ""))
	require.NoError(t, s.Record(ctx, keepalive.Event{Kind: keepalive.EventStateChanged, Time: old, State: keepalive.Running}, ""))
	require.NoError(t, s.Record(ctx, keepalive.Event{Kind: keepalive.EventNotification, Message: "new"}, ""))

	n, err := s.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	history, err := s.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "new", history[0].Message)
}

func TestFollow(t *testing.T) {
	s := openTestStore(t)
	ch := make(chan keepalive.Event, 4)
	ch <- keepalive.Event{Kind: keepalive.EventStateChanged, State: keepalive.Running}
	ch <- keepalive.Event{Kind: keepalive.EventNotification, Message: "hello"}
	close(ch)

	s.Follow(context.Background(), ch, func() string { return "Default" }, nil)

	history, err := s.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
