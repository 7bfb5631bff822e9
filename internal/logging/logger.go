// Package logging builds the structured logger shared by every component.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// New creates a slog.Logger with a text handler writing to w (stderr when nil).
func New(level string, w io.Writer) *slog.Logger {
	return NewWithLevel(ParseLevel(level), w)
}

// NewWithLevel is New with a slog.Leveler, such as a *Verbosity, so the
// level can change while the logger is in use.
func NewWithLevel(level slog.Leveler, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Verbosity is a slog.Leveler holding the configured level, which can be
// lowered to debug while a profile asks for detailed logging.
type Verbosity struct {
	mu    sync.Mutex
	base  slog.Level
	debug bool
	level slog.LevelVar
}

// NewVerbosity starts at the textual level.
func NewVerbosity(level string) *Verbosity {
	v := &Verbosity{}
	v.SetBase(level)
	return v
}

// Level implements slog.Leveler.
func (v *Verbosity) Level() slog.Level { return v.level.Level() }

// SetBase replaces the configured level.
func (v *Verbosity) SetBase(level string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.base = ParseLevel(level)
	v.updateLocked()
}

// SetDebug lowers the level to debug while on is true.
func (v *Verbosity) SetDebug(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.debug = on
	v.updateLocked()
}

func (v *Verbosity) updateLocked() {
	if v.debug {
		v.level.Set(min(v.base, slog.LevelDebug))
		return
	}
	v.level.Set(v.base)
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a textual level onto slog. Unknown values fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Component tags a logger with the emitting component.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = Discard()
	}
	return logger.With("component", name)
}
