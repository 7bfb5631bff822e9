package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stigoleg/movemouse/internal/keepalive"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one journal line, either a transition or a message.
type Entry struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	At      time.Time `json:"at"`
	From    string    `json:"from,omitempty"`
	To      string    `json:"to,omitempty"`
	Profile string    `json:"profile,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Record journals state changes, notifications and diagnostics. Other
// events are ignored.
func (s *Store) Record(ctx context.Context, e keepalive.Event, profile string) error {
	at := e.Time
	if at.IsZero() {
		at = time.Now()
	}
	ts := at.UTC().Format(timeLayout)

	switch e.Kind {
	case keepalive.EventStateChanged:
		_, err := s.DB.ExecContext(ctx, `
			INSERT INTO transitions (id, from_state, to_state, profile, at)
			VALUES (?, ?, ?, ?, ?)
		`, uuid.NewString(), e.Previous.Text(), e.State.Text(), profile, ts)
		if err != nil {
			return fmt.Errorf("insert transition: %w", err)
		}
	case keepalive.EventNotification, keepalive.EventDiagnostic:
		_, err := s.DB.ExecContext(ctx, `
			INSERT INTO notifications (id, kind, message, at)
			VALUES (?, ?, ?, ?)
		`, uuid.NewString(), e.Kind.String(), e.Message, ts)
		if err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}
	return nil
}

// History returns the newest entries first. A non-positive limit means 50.
func (s *Store) History(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, 'state' AS kind, at, from_state, to_state, profile, '' AS message FROM transitions
		UNION ALL
		SELECT id, kind, at, '', '', '', message FROM notifications
		ORDER BY at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&e.ID, &e.Kind, &at, &e.From, &e.To, &e.Profile, &e.Message); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.At, err = time.Parse(timeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("parse history time %q: %w", at, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than before and reports how many went.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	ts := before.UTC().Format(timeLayout)
	var total int64
	for _, table := range []string{"transitions", "notifications"} {
		res, err := s.DB.ExecContext(ctx, `DELETE FROM `+table+` WHERE at < ?`, ts)
		if err != nil {
			return total, fmt.Errorf("prune %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// Follow records events from ch until it closes or ctx ends. profile names
// the active profile at the time of each event.
func (s *Store) Follow(ctx context.Context, ch <-chan keepalive.Event, profile func() string, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			name := ""
			if profile != nil {
				name = profile()
			}
			if err := s.Record(ctx, e, name); err != nil && logger != nil {
				logger.Warn("journal write failed", "err", err)
			}
		}
	}
}
