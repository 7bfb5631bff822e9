package keepalive

import (
	"sync"
	"time"
)

// Timer names.
const (
	timerInterval   = "interval"
	timerAutoPause  = "auto-pause"
	timerAutoResume = "auto-resume"
	timerBlackout   = "blackout"
)

// timerSet owns every named timer of the keeper. Arming a name replaces
// whatever was armed under it, and a replaced or stopped timer never runs
// its callback again.
type timerSet struct {
	mu     sync.Mutex
	seq    uint64
	timers map[string]*namedTimer
}

type namedTimer struct {
	id uint64
	t  *time.Timer
}

func newTimerSet() *timerSet {
	return &timerSet{timers: make(map[string]*namedTimer)}
}

// Arm schedules a single-shot callback.
func (s *timerSet) Arm(name string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(name)
	s.seq++
	id := s.seq
	s.timers[name] = &namedTimer{id: id, t: time.AfterFunc(d, func() {
		if !s.release(name, id) {
			return
		}
		fn()
	})}
}

// Poll runs fn every period until fn returns false or the name is stopped.
func (s *timerSet) Poll(name string, period time.Duration, fn func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(name)
	s.seq++
	id := s.seq

	var tick func()
	tick = func() {
		if !s.live(name, id) {
			return
		}
		if !fn() {
			s.release(name, id)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if nt, ok := s.timers[name]; ok && nt.id == id {
			nt.t = time.AfterFunc(period, tick)
		}
	}
	s.timers[name] = &namedTimer{id: id, t: time.AfterFunc(period, tick)}
}

// Stop disarms the named timers.
func (s *timerSet) Stop(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		s.stopLocked(name)
	}
}

// StopAll disarms every timer.
func (s *timerSet) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.timers {
		s.stopLocked(name)
	}
}

// Armed reports whether name is currently armed.
func (s *timerSet) Armed(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[name]
	return ok
}

func (s *timerSet) stopLocked(name string) {
	if nt, ok := s.timers[name]; ok {
		nt.t.Stop()
		delete(s.timers, name)
	}
}

func (s *timerSet) live(name string, id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	nt, ok := s.timers[name]
	return ok && nt.id == id
}

// release removes the entry if it still belongs to id.
func (s *timerSet) release(name string, id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	nt, ok := s.timers[name]
	if !ok || nt.id != id {
		return false
	}
	delete(s.timers, name)
	return true
}
