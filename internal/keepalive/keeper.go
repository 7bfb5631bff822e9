// Package keepalive is the activity state machine and interval engine. A
// Keeper decides at every moment whether the machine is idle, running,
// paused, executing, sleeping through a blackout, waiting for mains power
// or held by a locked session, and drives the single interval timer that
// runs a profile's actions.
package keepalive

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stigoleg/movemouse/internal/action"
	"github.com/stigoleg/movemouse/internal/blackout"
	"github.com/stigoleg/movemouse/internal/logging"
	"github.com/stigoleg/movemouse/internal/profile"
	"github.com/stigoleg/movemouse/internal/schedule"
)

// Keeper owns the MouseState and everything that changes it.
//
// Lock order is execMu then mu. mu is never held while actions run or
// while observers and ports are called.
type Keeper struct {
	log  *slog.Logger
	opts Options

	snap     atomic.Pointer[Snapshot]
	guard    *Guard
	timers   *timerSet
	work     *worker
	volume   *volumeAdjuster
	notifier Notifier

	// execMu serialises action batches.
	execMu sync.Mutex

	mu            sync.Mutex
	state         MouseState
	firstPass     bool
	locked        bool
	onBattery     bool
	lastToggle    time.Time
	executionTime time.Time
	counts        action.Counts
	failures      int
	closed        bool
	rnd           *rand.Rand
	pending       []Event
}

// Status is a point-in-time view of the keeper.
type Status struct {
	State         MouseState `json:"state"`
	ExecutionTime time.Time  `json:"execution_time,omitzero"`
	ProfileID     string     `json:"profile_id"`
	Profile       string     `json:"profile"`
	Locked        bool       `json:"locked"`
	OnBattery     bool       `json:"on_battery"`
	// Health reports whether the most recent batch ran without failures.
	Health SimulationHealth `json:"health"`
}

// SimulationHealth summarises recent action outcomes.
type SimulationHealth int

const (
	SimulationHealthUnknown SimulationHealth = iota
	SimulationHealthOK
	SimulationHealthFailed
)

func (h SimulationHealth) String() string {
	switch h {
	case SimulationHealthOK:
		return "ok"
	case SimulationHealthFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (h SimulationHealth) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *SimulationHealth) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ok":
		*h = SimulationHealthOK
	case "failed":
		*h = SimulationHealthFailed
	case "unknown", "":
		*h = SimulationHealthUnknown
	default:
		return fmt.Errorf("unknown simulation health %q", b)
	}
	return nil
}

// New creates an idle keeper for snap.
func New(snap Snapshot, opts Options) *Keeper {
	opts.withDefaults()
	log := logging.Component(opts.Logger, "keeper")
	w := newWorker(log, 64)

	k := &Keeper{
		log:       log,
		opts:      opts,
		guard:     NewGuard(),
		timers:    newTimerSet(),
		work:      w,
		volume:    &volumeAdjuster{ctl: opts.Volume, w: w, log: log},
		notifier:  opts.Notifier,
		state:     Idle,
		firstPass: true,
		counts:    make(action.Counts),
		rnd:       opts.Rand,
	}
	k.snap.Store(normalise(snap))

	if opts.Power != nil {
		if onBattery, err := opts.Power.OnBattery(); err != nil {
			k.log.Debug("initial power status unavailable", "err", err)
		} else {
			k.onBattery = onBattery
		}
	}
	return k
}

func normalise(s Snapshot) *Snapshot {
	if s.Profile == nil {
		s.Profile = profile.New("Default")
	}
	return &s
}

// Snapshot returns the configuration currently in effect.
func (k *Keeper) Snapshot() Snapshot {
	return *k.snap.Load()
}

// State returns the current MouseState.
func (k *Keeper) State() MouseState {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.state
}

// ExecutionTime returns when the interval timer fires next, or zero.
func (k *Keeper) ExecutionTime() time.Time {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.executionTime
}

// Status returns a consistent view of the keeper.
func (k *Keeper) Status() Status {
	p := k.snap.Load().Profile
	k.mu.Lock()
	defer k.mu.Unlock()
	health := SimulationHealthUnknown
	switch {
	case k.failures > 0:
		health = SimulationHealthFailed
	case !k.firstPass:
		health = SimulationHealthOK
	}
	return Status{
		State:         k.state,
		ExecutionTime: k.executionTime,
		ProfileID:     p.ID,
		Profile:       p.Name,
		Locked:        k.locked,
		OnBattery:     k.onBattery,
		Health:        health,
	}
}

// Start begins a run. It is a no-op while Running. On battery with
// PauseOnBattery set the keeper waits in OnBattery; inside a blackout it
// sleeps until the window ends.
func (k *Keeper) Start() {
	k.start(0, false)
}

// start implements Start. With fenced set it gives up unless expect is still
// live once the critical section is entered, so a monitor that decided to
// resume cannot undo a Stop that overtook it.
func (k *Keeper) start(expect uint64, fenced bool) {
	defer k.recoverToIdle("start")

	k.mu.Lock()
	if k.closed || k.state == Running {
		k.unlock()
		return
	}
	k.unlock()

	k.execMu.Lock()
	defer k.execMu.Unlock()

	k.mu.Lock()
	if k.closed || k.state == Running || (fenced && !k.guard.Valid(expect)) {
		k.unlock()
		return
	}
	snap := k.snap.Load()
	p := snap.Profile

	if p.PauseOnBattery && k.onBattery {
		k.guard.Next()
		k.timers.StopAll()
		k.setExecutionTimeLocked(time.Time{})
		k.setStateLocked(OnBattery)
		k.unlock()
		return
	}
	if blackout.Active(k.opts.Now(), snap.Blackouts) {
		gen, _ := k.guard.Next()
		k.timers.StopAll()
		k.setExecutionTimeLocked(time.Time{})
		k.setStateLocked(Sleeping)
		k.timers.Poll(timerBlackout, k.opts.BlackoutPollInterval, func() bool { return k.blackoutTick(gen) })
		k.notifyLocked("Going to sleep whilst blackout in effect.")
		k.unlock()
		return
	}

	gen, ctx := k.guard.Next()
	k.timers.Stop(timerAutoResume)
	first := k.firstPass
	k.unlock()

	if first {
		k.runBatch(ctx, gen, action.Eligible(p.Actions, action.TriggerStart, true, nil), false)
	}

	k.mu.Lock()
	if !k.guard.Valid(gen) {
		k.unlock()
		return
	}
	k.scheduleLocked(gen)
	k.timers.Stop(timerBlackout)
	k.unlock()

	if p.AdjustRunningVolume {
		k.volume.Adjust(p.RunningVolume)
	}
	if snap.ActivateOnStart {
		k.emit(Event{Kind: EventActivateRequested})
	}
}

// Stop ends the run and moves to target. It is a no-op when already in
// target. Stop actions run only when leaving Running.
func (k *Keeper) Stop(target MouseState) {
	defer k.recoverToIdle("stop")

	k.mu.Lock()
	prev, gen, ok := k.stopLocked(target)
	k.unlock()
	if ok {
		k.afterStop(prev, gen)
	}
}

// Toggle is the manual start/stop entry point. Requests within
// ToggleDebounce of the previous toggle or stop are ignored; the return
// value reports whether the request was acted on.
func (k *Keeper) Toggle() bool {
	k.mu.Lock()
	now := k.opts.Now()
	if !k.lastToggle.IsZero() && now.Sub(k.lastToggle) < ToggleDebounce {
		k.unlock()
		k.log.Debug("toggle ignored", "since_last", now.Sub(k.lastToggle))
		return false
	}
	k.lastToggle = now
	state := k.state
	k.unlock()

	if state == Idle {
		k.Start()
	} else {
		k.Stop(Idle)
	}
	return true
}

// Apply atomically replaces the configuration and reacts to flag changes
// the way a settings edit would. Interval edits take effect at the next
// scheduling decision.
func (k *Keeper) Apply(snap Snapshot) {
	next := normalise(snap)
	old := k.snap.Swap(next)
	oldP, newP := old.Profile, next.Profile

	k.mu.Lock()
	state := k.state
	if oldP.AutoPause && !newP.AutoPause {
		k.timers.Stop(timerAutoPause)
	}
	if !oldP.AutoPause && newP.AutoPause && state == Running {
		k.armAutoPauseLocked(k.guard.Current())
	}
	onBattery := k.onBattery
	if old.HideFromTaskSwitcher != next.HideFromTaskSwitcher {
		k.emitLocked(Event{Kind: EventVisibilityChanged, Hidden: next.HideFromTaskSwitcher})
	}
	k.unlock()

	switch {
	case oldP.AutoResume && !newP.AutoResume && state == Paused:
		k.Stop(Idle)
	case oldP.PauseOnBattery != newP.PauseOnBattery && newP.PauseOnBattery && onBattery && state.Active():
		k.Stop(OnBattery)
	case oldP.PauseOnBattery != newP.PauseOnBattery && !newP.PauseOnBattery && state == OnBattery:
		k.Start()
	}
}

// HandlePowerChange reacts to the machine switching power source.
func (k *Keeper) HandlePowerChange(onBattery bool) {
	defer k.recoverToIdle("power")

	p := k.snap.Load().Profile
	k.mu.Lock()
	k.onBattery = onBattery
	switch {
	case onBattery && p.PauseOnBattery && k.state.Active():
		k.notifyLocked("Pausing now running on battery.")
		prev, gen, ok := k.stopLocked(OnBattery)
		k.unlock()
		if ok {
			k.afterStop(prev, gen)
		}
	case !onBattery && k.state == OnBattery:
		k.notifyLocked("Resuming now running on mains power.")
		k.unlock()
		k.Start()
	default:
		k.unlock()
	}
}

// HandleSessionLock records the session lock state. Interval firings while
// locked move to Locked unless the profile is active when locked.
func (k *Keeper) HandleSessionLock(locked bool) {
	p := k.snap.Load().Profile
	k.mu.Lock()
	defer k.unlock()
	was := k.locked
	k.locked = locked
	k.log.Info("session lock changed", "locked", locked)
	if was && !locked && (k.state == Locked || k.state == Running) && !p.ActiveWhenLocked {
		k.notifyLocked("Automatically resuming now workstation has been unlocked.")
	}
}

// HandleSchedule applies a start or stop request from an external schedule.
func (k *Keeper) HandleSchedule(a schedule.Action) {
	switch a {
	case schedule.ActionStart:
		k.notify("Scheduled start.")
		k.Start()
	case schedule.ActionStop:
		k.notify("Scheduled stop.")
		k.Stop(Idle)
	default:
		k.log.Warn("unknown schedule action", "action", a)
	}
}

// Close stops the keeper, waits for an in-flight batch to wind down and
// flushes queued side effects. A closed keeper ignores Start.
func (k *Keeper) Close() error {
	k.Stop(Idle)

	k.execMu.Lock()
	k.mu.Lock()
	k.closed = true
	k.timers.StopAll()
	k.guard.Close()
	k.unlock()
	k.execMu.Unlock()

	k.work.Close()
	return nil
}

// stopLocked performs the Stop transition. Callers hold mu and must call
// afterStop once mu is released when ok is true.
func (k *Keeper) stopLocked(target MouseState) (prev MouseState, gen uint64, ok bool) {
	if k.state == target {
		return k.state, 0, false
	}
	prev = k.state
	k.lastToggle = k.opts.Now()
	gen, _ = k.guard.Next()
	k.timers.StopAll()
	k.volume.Restore()
	k.firstPass = true
	k.setExecutionTimeLocked(time.Time{})
	k.setStateLocked(target)
	if target == Paused {
		k.timers.Poll(timerAutoResume, k.opts.PollInterval, func() bool { return k.autoResumeTick(gen) })
	}
	return prev, gen, true
}

// afterStop runs Stop actions when the run being stopped was Running.
func (k *Keeper) afterStop(prev MouseState, gen uint64) {
	if prev != Running {
		return
	}
	snap := k.snap.Load()

	func() {
		k.execMu.Lock()
		defer k.execMu.Unlock()
		if ctx, ok := k.guard.Context(gen); ok {
			k.runBatch(ctx, gen, action.Eligible(snap.Profile.Actions, action.TriggerStop, true, nil), false)
		}
	}()

	if snap.MinimiseOnStop {
		k.emit(Event{Kind: EventMinimiseRequested})
	}
}

// scheduleLocked arms the interval timer from the latest profile and moves
// to Running.
func (k *Keeper) scheduleLocked(gen uint64) {
	p := k.snap.Load().Profile
	delay := NextDelay(p, k.rnd)
	k.setExecutionTimeLocked(k.opts.Now().Add(delay))
	k.setStateLocked(Running)
	k.timers.Arm(timerInterval, delay, func() { k.fire(gen) })
	if p.AutoPause {
		k.armAutoPauseLocked(gen)
	} else {
		k.timers.Stop(timerAutoPause)
	}
	k.log.Debug("interval scheduled", "delay", delay, "profile", p.Name)
}

func (k *Keeper) armAutoPauseLocked(gen uint64) {
	k.timers.Poll(timerAutoPause, k.opts.PollInterval, func() bool { return k.autoPauseTick(gen) })
}

func (k *Keeper) setStateLocked(s MouseState) {
	if k.state == s {
		return
	}
	prev := k.state
	k.state = s
	k.log.Info("state changed", "from", prev, "to", s)
	k.emitLocked(Event{Kind: EventStateChanged, State: s, Previous: prev})
}

func (k *Keeper) setExecutionTimeLocked(t time.Time) {
	if k.executionTime.Equal(t) {
		return
	}
	k.executionTime = t
	k.emitLocked(Event{Kind: EventExecutionTimeChanged, ExecutionTime: t})
}

// emitLocked queues e for delivery when mu is released via unlock.
func (k *Keeper) emitLocked(e Event) {
	if e.Time.IsZero() {
		e.Time = k.opts.Now()
	}
	if e.Kind != EventStateChanged {
		e.State = k.state
	}
	k.pending = append(k.pending, e)
}

// emit delivers e immediately. mu must not be held.
func (k *Keeper) emit(e Event) {
	k.mu.Lock()
	k.emitLocked(e)
	k.unlock()
}

// unlock releases mu and then delivers queued events.
// withLock runs fn under mu. The unlock is deferred so a panic in fn
// leaves mu free for recoverToIdle.
func (k *Keeper) withLock(fn func()) {
	k.mu.Lock()
	defer k.unlock()
	fn()
}

func (k *Keeper) unlock() {
	events := k.pending
	k.pending = nil
	k.mu.Unlock()

	if k.opts.Observer == nil {
		return
	}
	for _, e := range events {
		k.observe(e)
	}
}

func (k *Keeper) observe(e Event) {
	defer func() {
		if r := recover(); r != nil {
			k.log.Error("observer panicked", "event", e.Kind, "panic", r)
		}
	}()
	k.opts.Observer.Observe(e)
}

// notifyLocked sends a user-visible message unless notifications are
// disabled or the session is locked.
func (k *Keeper) notifyLocked(msg string) {
	if k.snap.Load().DisableNotifications || k.locked {
		k.log.Debug("notification suppressed", "message", msg)
		return
	}
	k.log.Info("notification", "message", msg)
	k.emitLocked(Event{Kind: EventNotification, Message: msg})
	if k.notifier == nil {
		return
	}
	n := k.notifier
	k.work.Do("notify", func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := n.Send(ctx, notifyTitle, msg); err != nil {
			k.log.Warn("notification failed", "err", err)
		}
	})
}

func (k *Keeper) notify(msg string) {
	k.mu.Lock()
	k.notifyLocked(msg)
	k.unlock()
}

// recoverToIdle turns a panic in an entry point or timer callback into a
// logged error and an Idle keeper.
func (k *Keeper) recoverToIdle(where string) {
	r := recover()
	if r == nil {
		return
	}
	k.log.Error("recovered panic, falling back to idle", "where", where, "panic", fmt.Sprint(r))
	k.mu.Lock()
	_, _, _ = k.stopLocked(Idle)
	k.unlock()
}
