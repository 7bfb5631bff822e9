// Package notify delivers short user-facing messages to the desktop, a
// phone or the log.
package notify

import (
	"context"
	"errors"
	"log/slog"
)

// Notifier sends a notification.
type Notifier interface {
	Send(ctx context.Context, title, body string) error
}

// MultiNotifier fans a message out to several notifiers. Every notifier is
// tried; failures are joined.
type MultiNotifier struct {
	notifiers []Notifier
}

func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

func (m *MultiNotifier) Send(ctx context.Context, title, body string) error {
	var errs []error
	for _, n := range m.notifiers {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoOpNotifier does nothing.
type NoOpNotifier struct{}

func (n *NoOpNotifier) Send(ctx context.Context, title, body string) error {
	return nil
}

// LogNotifier writes notifications to a logger, which is all a headless
// run has.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l *LogNotifier) Send(ctx context.Context, title, body string) error {
	if l.Logger != nil {
		l.Logger.InfoContext(ctx, body, "title", title)
	}
	return nil
}
