// Package schedule fires start and stop requests on cron expressions.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Action is what a schedule asks the keeper to do.
type Action int

const (
	ActionStart Action = iota
	ActionStop
)

func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionStop:
		return "stop"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ParseAction parses "start" or "stop".
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start":
		return ActionStart, nil
	case "stop":
		return ActionStop, nil
	}
	return ActionStart, fmt.Errorf("unknown schedule action %q (want start or stop)", s)
}

func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Schedule is one cron-driven request.
type Schedule struct {
	ID      string
	Action  Action
	Cron    string
	Enabled bool
}

// New returns an enabled schedule with a fresh id.
func New(a Action, expr string) Schedule {
	return Schedule{ID: uuid.NewString(), Action: a, Cron: expr, Enabled: true}
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseCron validates a 5-field cron expression.
func ParseCron(expr string) (cron.Schedule, error) {
	if strings.HasPrefix(strings.TrimSpace(expr), "@") {
		return nil, fmt.Errorf("only 5-field cron expressions are supported")
	}
	s, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return s, nil
}

// NextOccurrences returns the next n firing times after base.
func NextOccurrences(s cron.Schedule, base time.Time, n int) []time.Time {
	times := make([]time.Time, 0, n)
	next := base
	for i := 0; i < n; i++ {
		next = s.Next(next)
		times = append(times, next)
	}
	return times
}
