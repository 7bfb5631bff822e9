package keepalive

import (
	"fmt"
	"strings"
)

// MouseState is the keeper's single authoritative activity state.
type MouseState int

const (
	// Idle is inactive with no timer armed.
	Idle MouseState = iota
	// Running has the interval timer armed and waits for the next firing.
	Running
	// Paused was entered by auto-pause and may auto-resume.
	Paused
	// Executing is transient while an interval batch runs.
	Executing
	// Sleeping waits for a blackout window to expire.
	Sleeping
	// OnBattery waits for mains power because the profile opts out of
	// running unplugged.
	OnBattery
	// Locked marks a locked session the profile will not act in.
	Locked
)

var stateNames = [...]string{"Idle", "Running", "Paused", "Executing", "Sleeping", "OnBattery", "Locked"}

func (s MouseState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("MouseState(%d)", int(s))
	}
	return stateNames[s]
}

// Active reports whether the interval timer should be armed in this state.
func (s MouseState) Active() bool {
	return s == Running || s == Executing
}

// ParseMouseState parses a state name, ignoring case.
func ParseMouseState(name string) (MouseState, error) {
	for i, n := range stateNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return MouseState(i), nil
		}
	}
	return Idle, fmt.Errorf("unknown state %q", name)
}

// Text is the lowercase name used on the wire and in the journal.
func (s MouseState) Text() string {
	return strings.ToLower(s.String())
}

func (s MouseState) MarshalText() ([]byte, error) {
	return []byte(s.Text()), nil
}

func (s *MouseState) UnmarshalText(b []byte) error {
	v, err := ParseMouseState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
