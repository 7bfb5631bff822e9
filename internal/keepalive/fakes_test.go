package keepalive

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stigoleg/movemouse/internal/action"
	"github.com/stigoleg/movemouse/internal/logging"
	"github.com/stigoleg/movemouse/internal/profile"
)

const (
	waitFor = 2 * time.Second
	tick    = 2 * time.Millisecond
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeIdle struct {
	idle atomic.Int64
	fail atomic.Bool
}

func newFakeIdle(d time.Duration) *fakeIdle {
	f := &fakeIdle{}
	f.Set(d)
	return f
}

func (f *fakeIdle) Set(d time.Duration) { f.idle.Store(int64(d)) }

func (f *fakeIdle) IdleTime() (time.Duration, error) {
	if f.fail.Load() {
		return 0, errors.New("idle unavailable")
	}
	return time.Duration(f.idle.Load()), nil
}

type fakeVolume struct {
	mu    sync.Mutex
	level int
	sets  []int
}

func (f *fakeVolume) Volume() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level, nil
}

func (f *fakeVolume) SetVolume(level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.level = level
	f.sets = append(f.sets, level)
	return nil
}

func (f *fakeVolume) Level() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeNotifier) Send(_ context.Context, _, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, body)
	return nil
}

func (f *fakeNotifier) Messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.msgs...)
}

func (f *fakeNotifier) Has(msg string) bool {
	for _, m := range f.Messages() {
		if m == msg {
			return true
		}
	}
	return false
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Kinds(kind EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) SawState(s MouseState) bool {
	for _, e := range r.Kinds(EventStateChanged) {
		if e.State == s {
			return true
		}
	}
	return false
}

// fakePerformer counts runs. When block is set each run waits on it,
// ignoring ctx, to model an action that cannot be interrupted.
type fakePerformer struct {
	runs       atomic.Int32
	started    chan struct{}
	block      chan struct{}
	err        error
	panicMsg   string
	interrupts bool
	// brokenValid makes Valid panic once set.
	brokenValid atomic.Bool
}

func (f *fakePerformer) Kind() string { return "fake" }

func (f *fakePerformer) Valid() bool {
	if f.brokenValid.Load() {
		panic("validity check failed")
	}
	return true
}

func (f *fakePerformer) InterruptsIdleTime() bool { return f.interrupts }

func (f *fakePerformer) Execute(ctx context.Context) error {
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		<-f.block
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.runs.Add(1)
	return f.err
}

func (f *fakePerformer) Runs() int { return int(f.runs.Load()) }

func newAction(id string, trigger action.Trigger, mode action.RepeatMode, throttle int, perf action.Performer) action.Action {
	return action.Action{
		ID:         id,
		Name:       id,
		Enabled:    true,
		Trigger:    trigger,
		Repeat:     mode != action.RepeatNever,
		RepeatMode: mode,
		Throttle:   throttle,
		Performer:  perf,
	}
}

// fastProfile fires every millisecond.
func fastProfile(actions ...action.Action) *profile.Profile {
	p := profile.New("fast")
	p.SetIntervals(0, 1)
	p.Actions = actions
	return p
}

// slowProfile never fires within a test.
func slowProfile(actions ...action.Action) *profile.Profile {
	p := profile.New("slow")
	p.SetIntervals(600, 600)
	p.Actions = actions
	return p
}

type harness struct {
	k        *Keeper
	idle     *fakeIdle
	volume   *fakeVolume
	notifier *fakeNotifier
	events   *recorder
	clock    *fakeClock
}

func newHarness(t *testing.T, snap Snapshot, mods ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		idle:     newFakeIdle(time.Hour),
		volume:   &fakeVolume{level: 70},
		notifier: &fakeNotifier{},
		events:   &recorder{},
	}
	opts := Options{
		Logger:               logging.Discard(),
		Idle:                 h.idle,
		Volume:               h.volume,
		Notifier:             h.notifier,
		Observer:             h.events,
		PollInterval:         5 * time.Millisecond,
		BlackoutPollInterval: 5 * time.Millisecond,
	}
	for _, m := range mods {
		m(&opts)
	}
	h.k = New(snap, opts)
	t.Cleanup(func() { _ = h.k.Close() })
	return h
}

func withClock(c *fakeClock) func(*Options) {
	return func(o *Options) { o.Now = c.Now }
}

// settle waits for any in-flight batch to finish.
func (h *harness) settle() {
	h.k.execMu.Lock()
	h.k.execMu.Unlock()
}
