package platform

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/stigoleg/movemouse/internal/platform/patterns"
)

// ExecutePattern walks the cursor through points (offsets from the
// starting position) as paced by gen, ending back at the start. ctx is
// checked before every move so a cancelled run leaves no further input.
func ExecutePattern(ctx context.Context, points []patterns.Point, mover Mover, gen *patterns.Generator) error {
	if mover == nil || gen == nil {
		return fmt.Errorf("pattern: mover and generator are required")
	}

	var curX, curY int
	for _, step := range gen.Plan(points) {
		if err := ctx.Err(); err != nil {
			return err
		}
		x, y := int(math.Round(step.To.X)), int(math.Round(step.To.Y))
		if dx, dy := x-curX, y-curY; dx != 0 || dy != 0 {
			if err := mover.Move(dx, dy); err != nil {
				return fmt.Errorf("%s move: %w", mover.Name(), err)
			}
			curX, curY = x, y
		}
		if err := sleepCtx(ctx, step.Wait); err != nil {
			return err
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
