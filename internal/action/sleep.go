package action

import (
	"context"
	"time"
)

// Sleep waits between other actions.
type Sleep struct {
	Duration time.Duration
}

func (s *Sleep) Kind() string             { return "sleep" }
func (s *Sleep) Valid() bool              { return s.Duration > 0 }
func (s *Sleep) InterruptsIdleTime() bool { return false }

func (s *Sleep) Execute(ctx context.Context) error {
	t := time.NewTimer(s.Duration)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
