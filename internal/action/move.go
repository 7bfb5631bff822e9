package action

import (
	"context"
	"errors"

	"github.com/stigoleg/movemouse/internal/platform"
	"github.com/stigoleg/movemouse/internal/platform/patterns"
)

// Move jiggles the cursor through a generated shape and back.
type Move struct {
	Mover     platform.Mover
	Generator *patterns.Generator
	Shape     patterns.Shape
	MinSize   float64
	MaxSize   float64
}

func (m *Move) Kind() string { return "move" }

func (m *Move) Valid() bool {
	return m.Mover != nil && m.Generator != nil && m.MaxSize >= 0 && m.MinSize >= 0
}

func (m *Move) InterruptsIdleTime() bool { return true }

func (m *Move) Execute(ctx context.Context) error {
	if !m.Valid() {
		return errors.New("move: mover not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	points := m.Generator.Generate(m.Shape, m.MinSize, m.MaxSize)
	return platform.ExecutePattern(ctx, points, m.Mover, m.Generator)
}

// Activity asks the desktop to treat the session as active without moving
// the cursor.
type Activity struct {
	Simulator platform.ActivitySimulator
}

func (a *Activity) Kind() string             { return "activity" }
func (a *Activity) Valid() bool              { return a.Simulator != nil }
func (a *Activity) InterruptsIdleTime() bool { return true }

func (a *Activity) Execute(ctx context.Context) error {
	if a.Simulator == nil {
		return errors.New("activity: simulator not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.Simulator.SimulateActivity(ctx)
}
