package keepalive

import (
	"fmt"

	"github.com/stigoleg/movemouse/internal/blackout"
)

// autoPauseTick watches for real input while Running. Input within the
// last poll period pauses the run; it goes to Paused when auto-resume is
// enabled and to Idle otherwise.
func (k *Keeper) autoPauseTick(gen uint64) (keep bool) {
	defer k.recoverToIdle("auto-pause")

	if !k.guard.Valid(gen) {
		return false
	}
	idle, ok := k.idleTime()
	if !ok || idle >= k.opts.PollInterval {
		return true
	}

	p := k.snap.Load().Profile
	k.mu.Lock()
	if !k.guard.Valid(gen) || k.state != Running || !p.AutoPause {
		k.unlock()
		return false
	}
	target := Idle
	if p.AutoResume {
		target = Paused
	}
	k.log.Info("user activity detected, pausing", "idle", idle, "target", target)
	prev, next, changed := k.stopLocked(target)
	k.unlock()
	if changed {
		k.afterStop(prev, next)
	}
	return false
}

// autoResumeTick restarts a paused run once the user has been away for the
// profile's AutoResumeSeconds.
func (k *Keeper) autoResumeTick(gen uint64) (keep bool) {
	defer k.recoverToIdle("auto-resume")

	if !k.guard.Valid(gen) {
		return false
	}
	idle, ok := k.idleTime()
	if !ok {
		return true
	}
	p := k.snap.Load().Profile
	threshold := p.AutoResumeSeconds
	if idle.Seconds() <= float64(threshold) {
		return true
	}

	k.mu.Lock()
	if !k.guard.Valid(gen) || k.state != Paused {
		k.unlock()
		return false
	}
	k.notifyLocked(fmt.Sprintf("Automatically resuming after %d seconds of inactivity.", threshold))
	k.unlock()

	k.start(gen, true)
	return false
}

// blackoutTick wakes a sleeping keeper on the first poll outside every
// blackout window.
func (k *Keeper) blackoutTick(gen uint64) (keep bool) {
	defer k.recoverToIdle("blackout")

	if !k.guard.Valid(gen) {
		return false
	}
	if blackout.Active(k.opts.Now(), k.snap.Load().Blackouts) {
		return true
	}

	k.mu.Lock()
	if !k.guard.Valid(gen) || k.state != Sleeping {
		k.unlock()
		return false
	}
	k.notifyLocked("Resuming now blackout has expired.")
	k.unlock()

	k.start(gen, true)
	return false
}
