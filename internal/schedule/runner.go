package schedule

import (
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Handler receives the action of a schedule when it fires.
type Handler func(Action)

// Runner keeps cron entries in step with a list of schedules.
type Runner struct {
	logger  *slog.Logger
	handler Handler
	cron    *cron.Cron

	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	id    cron.EntryID
	sched Schedule
}

// NewRunner creates a runner evaluating expressions in location (local
// time when nil).
func NewRunner(handler Handler, logger *slog.Logger, location *time.Location) *Runner {
	if location == nil {
		location = time.Local
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		logger:  logger,
		handler: handler,
		cron:    cron.New(cron.WithParser(cronParser), cron.WithLocation(location)),
		entries: make(map[string]entry),
	}
}

// Start begins dispatching.
func (r *Runner) Start() { r.cron.Start() }

// Stop halts dispatching and waits for running handlers.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
}

// Sync replaces the scheduled entries with the enabled schedules. Invalid
// expressions are logged and skipped. Unchanged entries keep their timing.
func (r *Runner) Sync(schedules []Schedule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := make(map[string]Schedule, len(schedules))
	for _, s := range schedules {
		if s.Enabled {
			wanted[s.ID] = s
		}
	}

	for id, e := range r.entries {
		if s, ok := wanted[id]; !ok || s != e.sched {
			r.cron.Remove(e.id)
			delete(r.entries, id)
		}
	}

	for id, s := range wanted {
		if _, ok := r.entries[id]; ok {
			continue
		}
		parsed, err := ParseCron(s.Cron)
		if err != nil {
			r.logger.Error("skipping schedule", "schedule_id", id, "cron", s.Cron, "err", err)
			continue
		}
		action := s.Action
		entryID := r.cron.Schedule(parsed, cron.FuncJob(func() { r.dispatch(id, action) }))
		r.entries[id] = entry{id: entryID, sched: s}
		r.logger.Debug("schedule armed", "schedule_id", id, "action", action, "cron", s.Cron)
	}
}

// Next returns the next firing time of each armed schedule by id.
func (r *Runner) Next() map[string]time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]time.Time, len(r.entries))
	for id, e := range r.entries {
		if next := r.cron.Entry(e.id).Next; !next.IsZero() {
			out[id] = next
		}
	}
	return out
}

// Len reports how many schedules are armed.
func (r *Runner) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Runner) dispatch(id string, a Action) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("schedule handler panicked", "schedule_id", id, "panic", rec)
		}
	}()
	r.logger.Info("schedule fired", "schedule_id", id, "action", a)
	if r.handler != nil {
		r.handler(a)
	}
}
