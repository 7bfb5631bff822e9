// Package action models the units of work a profile runs and decides which
// of them are due at a given lifecycle moment.
package action

import (
	"context"
	"fmt"
	"strings"
)

// Trigger is the lifecycle moment an action is eligible to run at.
type Trigger int

const (
	TriggerStart Trigger = iota
	TriggerInterval
	TriggerStop
)

var triggerNames = [...]string{"start", "interval", "stop"}

func (t Trigger) String() string {
	if t < 0 || int(t) >= len(triggerNames) {
		return fmt.Sprintf("Trigger(%d)", int(t))
	}
	return triggerNames[t]
}

// ParseTrigger accepts the lower-case trigger names.
func ParseTrigger(s string) (Trigger, error) {
	for i, name := range triggerNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Trigger(i), nil
		}
	}
	return TriggerInterval, fmt.Errorf("unknown trigger %q (want start, interval or stop)", s)
}

func (t Trigger) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Trigger) UnmarshalText(b []byte) error {
	v, err := ParseTrigger(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// RepeatMode decides how often an interval action runs within one run.
type RepeatMode int

const (
	RepeatNever RepeatMode = iota
	RepeatForever
	RepeatThrottle
)

var repeatNames = [...]string{"never", "forever", "throttle"}

func (m RepeatMode) String() string {
	if m < 0 || int(m) >= len(repeatNames) {
		return fmt.Sprintf("RepeatMode(%d)", int(m))
	}
	return repeatNames[m]
}

// ParseRepeatMode accepts the lower-case repeat mode names.
func ParseRepeatMode(s string) (RepeatMode, error) {
	for i, name := range repeatNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return RepeatMode(i), nil
		}
	}
	return RepeatNever, fmt.Errorf("unknown repeat mode %q (want never, forever or throttle)", s)
}

func (m RepeatMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *RepeatMode) UnmarshalText(b []byte) error {
	v, err := ParseRepeatMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Performer does the actual work of an action.
type Performer interface {
	// Kind names the performer, e.g. "move" or "command".
	Kind() string
	// Execute performs the work. Implementations check ctx before every
	// side effect and return ctx.Err() once it is done.
	Execute(ctx context.Context) error
	// Valid reports whether the performer is fully configured.
	Valid() bool
	// InterruptsIdleTime reports whether a successful run should reset the
	// OS idle counter.
	InterruptsIdleTime() bool
}

// Action is one configured unit of work owned by a profile.
type Action struct {
	ID         string
	Name       string
	Enabled    bool
	Trigger    Trigger
	Repeat     bool
	RepeatMode RepeatMode
	// Throttle caps interval executions per run when RepeatMode is Throttle.
	Throttle  int
	Performer Performer
}

// Valid reports whether the action can be executed at all.
func (a Action) Valid() bool {
	return a.Performer != nil && a.Performer.Valid()
}

// InterruptsIdleTime reports whether the action's performer resets idle time.
func (a Action) InterruptsIdleTime() bool {
	return a.Performer != nil && a.Performer.InterruptsIdleTime()
}

// Execute runs the performer.
func (a Action) Execute(ctx context.Context) error {
	if a.Performer == nil {
		return fmt.Errorf("action %q has no performer", a.Label())
	}
	return a.Performer.Execute(ctx)
}

// Label is the name used in logs.
func (a Action) Label() string {
	if a.Name != "" {
		return a.Name
	}
	if a.Performer != nil {
		return a.Performer.Kind()
	}
	return a.ID
}

// repeats applies the repeat policy for later passes.
func (a Action) repeats(count int) bool {
	if !a.Repeat {
		return false
	}
	switch a.RepeatMode {
	case RepeatForever:
		return true
	case RepeatThrottle:
		return count < a.Throttle
	default:
		return false
	}
}

// Counts holds per-run interval execution counts keyed by action id.
type Counts map[string]int

// Get returns the count for id.
func (c Counts) Get(id string) int { return c[id] }

// Inc records one successful interval execution of id.
func (c Counts) Inc(id string) { c[id]++ }

// Reset zeroes every count.
func (c Counts) Reset() { clear(c) }

// Eligible returns, in order, the actions due for trigger. On the first pass
// every valid enabled action with the trigger qualifies; later passes also
// require the repeat policy to allow another run.
func Eligible(actions []Action, trigger Trigger, firstPass bool, counts Counts) []Action {
	var out []Action
	for _, a := range actions {
		if !a.Valid() || !a.Enabled || a.Trigger != trigger {
			continue
		}
		if !firstPass && !a.repeats(counts.Get(a.ID)) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Repeating reports whether any action would run again on the next firing
// of trigger.
func Repeating(actions []Action, trigger Trigger, counts Counts) bool {
	return len(Eligible(actions, trigger, false, counts)) > 0
}
