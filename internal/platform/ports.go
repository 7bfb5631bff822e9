// Package platform exposes the operating-system collaborators the keeper
// consumes: idle time, power source, session lock state, audio volume,
// cursor movement and desktop activity simulation.
package platform

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupported is returned by collaborators the current OS cannot provide.
var ErrUnsupported = errors.New("not supported on this platform")

// IdleTimer reports time elapsed since the last real user input.
type IdleTimer interface {
	IdleTime() (time.Duration, error)
}

// PowerSource reports whether the machine is running unplugged.
type PowerSource interface {
	OnBattery() (bool, error)
}

// SessionState reports whether the interactive session is locked.
type SessionState interface {
	Locked() (bool, error)
}

// VolumeControl reads and sets the master output level (0-100).
type VolumeControl interface {
	Volume() (int, error)
	SetVolume(level int) error
}

// Mover moves the cursor by a relative offset.
type Mover interface {
	Move(dx, dy int) error
	Name() string
}

// ActivitySimulator pokes the desktop's "user is active" hooks without
// moving the cursor.
type ActivitySimulator interface {
	SimulateActivity(ctx context.Context) error
}

// Capability describes whether cursor simulation will work and how to fix it.
type Capability struct {
	// CanSimulate indicates whether cursor moves will reach the session.
	CanSimulate bool

	// Method names the mover in use.
	Method string

	// Instructions explains how to enable simulation when it is missing.
	Instructions string
}

// System bundles the collaborators for the running OS.
type System struct {
	Idle       IdleTimer
	Power      PowerSource
	Session    SessionState
	Volume     VolumeControl
	Mover      Mover
	Activity   ActivitySimulator
	Capability Capability

	closers []func() error
}

// Close releases any device handles held by the bundle.
func (s *System) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *System) onClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Unsupported implements every collaborator by returning ErrUnsupported.
type Unsupported struct{}

func (Unsupported) IdleTime() (time.Duration, error)           { return 0, ErrUnsupported }
func (Unsupported) OnBattery() (bool, error)                   { return false, ErrUnsupported }
func (Unsupported) Locked() (bool, error)                      { return false, ErrUnsupported }
func (Unsupported) Volume() (int, error)                       { return 0, ErrUnsupported }
func (Unsupported) SetVolume(int) error                        { return ErrUnsupported }
func (Unsupported) Move(int, int) error                        { return ErrUnsupported }
func (Unsupported) Name() string                               { return "none" }
func (Unsupported) SimulateActivity(ctx context.Context) error { return ErrUnsupported }

func unsupportedSystem() *System {
	u := Unsupported{}
	return &System{Idle: u, Power: u, Session: u, Volume: u, Mover: u, Activity: u}
}
