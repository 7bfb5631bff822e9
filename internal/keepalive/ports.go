package keepalive

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/stigoleg/movemouse/internal/blackout"
	"github.com/stigoleg/movemouse/internal/profile"
)

const (
	// ToggleDebounce absorbs double-fired manual toggles.
	ToggleDebounce = 500 * time.Millisecond
	// DefaultPollInterval is the auto-pause and auto-resume poll period.
	DefaultPollInterval = 250 * time.Millisecond
	// DefaultBlackoutPollInterval is the blackout expiry poll period.
	DefaultBlackoutPollInterval = time.Second

	notifyTitle   = "Move Mouse"
	notifyTimeout = 10 * time.Second
)

// IdleTimer reports time since the last real user input.
type IdleTimer interface {
	IdleTime() (time.Duration, error)
}

// PowerSource reports whether the machine runs on battery.
type PowerSource interface {
	OnBattery() (bool, error)
}

// VolumeControl reads and sets the output level.
type VolumeControl interface {
	Volume() (int, error)
	SetVolume(level int) error
}

// Notifier displays a message to the user on a best-effort basis.
type Notifier interface {
	Send(ctx context.Context, title, body string) error
}

// Snapshot is the configuration the keeper reads at every decision. It is
// replaced as a whole by Keeper.Apply and never mutated afterwards.
type Snapshot struct {
	Profile   *profile.Profile
	Blackouts []blackout.Rule

	ActivateOnStart      bool
	MinimiseOnStop       bool
	HideFromTaskSwitcher bool
	DisableNotifications bool
}

// Options configures a Keeper. Only Logger is commonly set outside tests;
// every nil port degrades to a safe no-op.
type Options struct {
	Logger   *slog.Logger
	Idle     IdleTimer
	Power    PowerSource
	Volume   VolumeControl
	Notifier Notifier
	Observer Observer

	// Now replaces time.Now for blackout evaluation, debounce and
	// execution timestamps.
	Now func() time.Time
	// Rand drives random intervals.
	Rand *rand.Rand

	PollInterval         time.Duration
	BlackoutPollInterval time.Duration
}

func (o *Options) withDefaults() {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.BlackoutPollInterval <= 0 {
		o.BlackoutPollInterval = DefaultBlackoutPollInterval
	}
}

// NextDelay computes the wait before the next interval firing. Random
// intervals are drawn from [lower, upper) seconds at millisecond
// resolution. The result is never below one millisecond.
func NextDelay(p *profile.Profile, rnd *rand.Rand) time.Duration {
	lower := p.LowerInterval() * 1000
	upper := p.UpperInterval() * 1000

	ms := lower
	if p.RandomInterval && upper > lower && rnd != nil {
		ms = lower + rnd.Intn(upper-lower)
	}
	if ms < 1 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}
