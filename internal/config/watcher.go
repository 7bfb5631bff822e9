package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDebounce coalesces the burst of events editors produce when
// saving.
const DefaultReloadDebounce = 250 * time.Millisecond

// Watcher reloads the settings file when it changes on disk.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
}

// NewWatcher watches path and its directory, so editors that replace the
// file by rename are still seen.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	full, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve settings path: %w", err)
	}
	full = filepath.Clean(full)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch settings: %w", err)
	}
	if err := w.Add(filepath.Dir(full)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch settings dir: %w", err)
	}
	if err := w.Add(full); err != nil {
		logger.Debug("unable to watch settings file directly", "err", err)
	}
	return &Watcher{path: full, watcher: w, logger: logger, debounce: DefaultReloadDebounce}, nil
}

// Run delivers each successfully loaded document to reload until ctx is
// done. Documents that fail to load are logged and skipped, leaving the
// caller's previous settings in force.
func (w *Watcher) Run(ctx context.Context, reload func(*Settings)) {
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timerCh:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case <-timerCh:
			timer = nil
			timerCh = nil
			s, err := Load(w.path)
			if err != nil {
				w.logger.Error("settings reload rejected", "path", w.path, "err", err)
				continue
			}
			w.logger.Info("settings reloaded", "path", w.path)
			reload(s)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("settings watcher error", "err", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
