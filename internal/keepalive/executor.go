package keepalive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stigoleg/movemouse/internal/action"
	"github.com/stigoleg/movemouse/internal/blackout"
)

const noRepeatMessage = "Automatically stopping as there are no actions that are configured to repeat forever at each interval."

// fire is the interval timer callback for generation gen. Every section
// that holds mu releases it on a deferred unlock: Eligible and Repeating
// call into performers, and a panic there must leave mu free for
// recoverToIdle.
func (k *Keeper) fire(gen uint64) {
	defer k.recoverToIdle("interval")

	k.execMu.Lock()
	defer k.execMu.Unlock()

	if !k.guard.Valid(gen) {
		return
	}
	idleBefore, idleOK := k.idleTime()

	var (
		ctx       context.Context
		batch     []action.Action
		live      bool
		executing bool
	)
	k.withLock(func() {
		if ctx, live = k.guard.Context(gen); !live {
			return
		}
		snap := k.snap.Load()
		if k.firstPass {
			k.counts.Reset()
		}
		switch {
		case k.locked && !snap.Profile.ActiveWhenLocked:
			k.setStateLocked(Locked)
		case blackout.Active(k.opts.Now(), snap.Blackouts):
			k.setStateLocked(Sleeping)
		default:
			executing = true
			k.setStateLocked(Executing)
			k.timers.Stop(timerAutoPause)
			batch = action.Eligible(snap.Profile.Actions, action.TriggerInterval, k.firstPass, k.counts)
		}
	})
	if !live {
		return
	}

	if executing {
		executed := k.runBatch(ctx, gen, batch, true)
		k.checkIdleReset(executed, idleBefore, idleOK)

		k.withLock(func() {
			if k.guard.Valid(gen) {
				k.firstPass = false
			}
		})
	}

	k.withLock(func() {
		if !k.guard.Valid(gen) {
			return
		}
		latest := k.snap.Load().Profile
		if k.state == Locked || k.state == Sleeping || action.Repeating(latest.Actions, action.TriggerInterval, k.counts) {
			k.scheduleLocked(gen)
			return
		}
		k.notifyLocked(noRepeatMessage)
		k.stopLocked(Idle)
	})
}

// runBatch executes batch in order, re-checking the fence before every
// action. Failures are logged and the batch carries on. Successful
// interval executions are counted. It returns the actions that succeeded.
func (k *Keeper) runBatch(ctx context.Context, gen uint64, batch []action.Action, interval bool) []action.Action {
	var executed []action.Action
	failed := 0
	for _, a := range batch {
		if !k.guard.Valid(gen) || ctx.Err() != nil {
			k.log.Debug("batch fenced by newer run", "remaining", a.Label())
			break
		}
		start := time.Now()
		if err := k.runAction(ctx, a); err != nil {
			if ctx.Err() != nil {
				k.log.Debug("action cancelled", "action", a.Label())
				break
			}
			failed++
			k.log.Warn("action failed", "action", a.Label(), "kind", a.Performer.Kind(), "err", err)
			continue
		}
		k.log.Debug("action executed", "action", a.Label(), "took", time.Since(start))
		executed = append(executed, a)

		if interval {
			k.mu.Lock()
			if k.guard.Valid(gen) {
				k.counts.Inc(a.ID)
			}
			k.mu.Unlock()
		}
	}

	if len(batch) > 0 {
		k.mu.Lock()
		k.failures = failed
		k.mu.Unlock()
	}
	return executed
}

func (k *Keeper) runAction(ctx context.Context, a action.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	return a.Execute(ctx)
}

func (k *Keeper) idleTime() (time.Duration, bool) {
	if k.opts.Idle == nil {
		return 0, false
	}
	idle, err := k.opts.Idle.IdleTime()
	if err != nil {
		k.log.Debug("idle time unavailable", "err", err)
		return 0, false
	}
	return idle, true
}

// checkIdleReset warns when actions that should reset the OS idle counter
// left it untouched.
func (k *Keeper) checkIdleReset(executed []action.Action, before time.Duration, beforeOK bool) {
	if !beforeOK {
		return
	}
	var names []string
	for _, a := range executed {
		if a.InterruptsIdleTime() {
			names = append(names, a.Label())
		}
	}
	if len(names) == 0 {
		return
	}
	after, ok := k.idleTime()
	if !ok || after < before {
		return
	}

	msg := fmt.Sprintf("Idle time was not reset by %s (before %s, after %s); the session may still time out.",
		strings.Join(names, ", "), before.Round(time.Millisecond), after.Round(time.Millisecond))
	k.log.Warn("idle time not interrupted", "actions", names, "before", before, "after", after)
	k.emit(Event{Kind: EventDiagnostic, Message: msg})
}
