package platform

import (
	"context"
	"log/slog"
	"time"
)

// Watcher samples power and lock state and reports changes. Read failures
// are treated as "unknown" and never produce a callback.
type Watcher struct {
	Power    PowerSource
	Session  SessionState
	Interval time.Duration
	Logger   *slog.Logger

	// OnPower is called with the new battery state whenever it changes.
	OnPower func(onBattery bool)
	// OnLock is called with the new lock state whenever it changes.
	OnLock func(locked bool)

	battery, locked       bool
	haveBattery, haveLock bool
}

// Run samples until ctx is cancelled. The first successful sample of each
// source is reported so consumers start from a known state.
func (w *Watcher) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = WatchInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sample()
		}
	}
}

func (w *Watcher) sample() {
	if w.Power != nil {
		onBattery, err := w.Power.OnBattery()
		switch {
		case err != nil:
			w.debug("power status unavailable", err)
		case !w.haveBattery || onBattery != w.battery:
			w.battery, w.haveBattery = onBattery, true
			if w.OnPower != nil {
				w.OnPower(onBattery)
			}
		}
	}

	if w.Session != nil {
		locked, err := w.Session.Locked()
		switch {
		case err != nil:
			w.debug("session state unavailable", err)
		case !w.haveLock || locked != w.locked:
			w.locked, w.haveLock = locked, true
			if w.OnLock != nil {
				w.OnLock(locked)
			}
		}
	}
}

func (w *Watcher) debug(msg string, err error) {
	if w.Logger != nil {
		w.Logger.Debug(msg, "err", err)
	}
}
