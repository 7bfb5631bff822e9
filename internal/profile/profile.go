// Package profile holds the named action profiles a user switches between.
package profile

import (
	"github.com/google/uuid"

	"github.com/stigoleg/movemouse/internal/action"
)

// Defaults applied to a new profile.
const (
	DefaultLowerInterval     = 30
	DefaultUpperInterval     = 60
	DefaultAutoResumeSeconds = 30
	DefaultRunningVolume     = 30
)

// Profile is a named configuration consumed by the keeper. Interval bounds
// are in seconds and only change through the clamping setters.
type Profile struct {
	ID      string
	Name    string
	Actions []action.Action

	RandomInterval      bool
	AutoPause           bool
	AutoResume          bool
	AutoResumeSeconds   int
	AdjustRunningVolume bool
	RunningVolume       int
	ActiveWhenLocked    bool
	PauseOnBattery      bool
	EnableLogging       bool

	lower int
	upper int
}

// New returns a profile with default settings and a fresh id.
func New(name string) *Profile {
	return &Profile{
		ID:                uuid.NewString(),
		Name:              name,
		AutoResumeSeconds: DefaultAutoResumeSeconds,
		RunningVolume:     DefaultRunningVolume,
		lower:             DefaultLowerInterval,
		upper:             DefaultUpperInterval,
	}
}

// LowerInterval returns the lower interval bound in seconds.
func (p *Profile) LowerInterval() int { return p.lower }

// UpperInterval returns the upper interval bound in seconds.
func (p *Profile) UpperInterval() int { return p.upper }

// SetLowerInterval sets the lower bound, raising the upper bound when v
// exceeds it. Negative values become 0.
func (p *Profile) SetLowerInterval(v int) {
	if v > p.upper {
		p.SetUpperInterval(v)
	}
	p.lower = max(v, 0)
}

// SetUpperInterval sets the upper bound, lowering the lower bound when v is
// below it. Values under 1 become 1.
func (p *Profile) SetUpperInterval(v int) {
	if v < p.lower {
		p.SetLowerInterval(v)
	}
	p.upper = max(v, 1)
}

// SetIntervals applies both bounds in the order that keeps them intact when
// they are already consistent.
func (p *Profile) SetIntervals(lower, upper int) {
	if lower > p.upper {
		p.SetUpperInterval(upper)
		p.SetLowerInterval(lower)
		return
	}
	p.SetLowerInterval(lower)
	p.SetUpperInterval(upper)
}

// Clone returns a copy whose action slice can be modified independently.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Actions = append([]action.Action(nil), p.Actions...)
	return &c
}
