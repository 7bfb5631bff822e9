package profile

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrUnknownProfile is returned when an id or name matches no profile.
	ErrUnknownProfile = errors.New("unknown profile")
	// ErrLastProfile is returned when removing the only remaining profile.
	ErrLastProfile = errors.New("cannot remove the last profile")
	// ErrDuplicateProfile is returned when a name or id is already taken.
	ErrDuplicateProfile = errors.New("profile already exists")
)

// Manager is the ordered profile collection with exactly one active entry.
type Manager struct {
	mu       sync.RWMutex
	profiles []*Profile
	activeID string
}

// NewManager creates a manager. With no profiles a "Default" profile is
// created. The first profile is active until SetActive says otherwise.
func NewManager(profiles ...*Profile) *Manager {
	if len(profiles) == 0 {
		profiles = []*Profile{New("Default")}
	}
	return &Manager{
		profiles: append([]*Profile(nil), profiles...),
		activeID: profiles[0].ID,
	}
}

// Add appends a profile. Names must be unique (case-insensitive).
func (m *Manager) Add(p *Profile) error {
	if p == nil || strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile name is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.profiles {
		if existing.ID == p.ID {
			return fmt.Errorf("%w: id %s", ErrDuplicateProfile, p.ID)
		}
		if strings.EqualFold(existing.Name, p.Name) {
			return fmt.Errorf("%w: %q", ErrDuplicateProfile, p.Name)
		}
	}
	m.profiles = append(m.profiles, p)
	return nil
}

// Remove deletes a profile by id or name. Removing the active profile
// activates the first remaining one.
func (m *Manager) Remove(ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.indexLocked(ref)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownProfile, ref)
	}
	if len(m.profiles) == 1 {
		return ErrLastProfile
	}
	removed := m.profiles[idx]
	m.profiles = append(m.profiles[:idx], m.profiles[idx+1:]...)
	if removed.ID == m.activeID {
		m.activeID = m.profiles[0].ID
	}
	return nil
}

// Rename changes a profile's name and returns the renamed profile. The
// entry is replaced by a renamed copy, so a *Profile handed out earlier
// keeps its old name. Blank names leave the profile unchanged.
func (m *Manager) Rename(ref, name string) (*Profile, error) {
	name = strings.TrimSpace(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.indexLocked(ref)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, ref)
	}
	if name == "" {
		return m.profiles[idx], nil
	}
	for i, p := range m.profiles {
		if i != idx && strings.EqualFold(p.Name, name) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateProfile, name)
		}
	}
	renamed := m.profiles[idx].Clone()
	renamed.Name = name
	m.profiles[idx] = renamed
	return renamed, nil
}

// SetActive selects the profile consumed by the keeper.
func (m *Manager) SetActive(ref string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.indexLocked(ref)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, ref)
	}
	m.activeID = m.profiles[idx].ID
	return m.profiles[idx], nil
}

// Cycle activates the profile delta positions away from the active one,
// wrapping around.
func (m *Manager) Cycle(delta int) *Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.profiles)
	idx := max(m.indexLocked(m.activeID), 0)
	next := ((idx+delta)%n + n) % n
	m.activeID = m.profiles[next].ID
	return m.profiles[next]
}

// Active returns the active profile.
func (m *Manager) Active() *Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if idx := m.indexLocked(m.activeID); idx >= 0 {
		return m.profiles[idx]
	}
	return m.profiles[0]
}

// Get looks a profile up by id or name.
func (m *Manager) Get(ref string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx := m.indexLocked(ref)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, ref)
	}
	return m.profiles[idx], nil
}

// Names lists profile names in order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.profiles))
	for _, p := range m.profiles {
		names = append(names, p.Name)
	}
	return names
}

// Profiles returns the profiles in order.
func (m *Manager) Profiles() []*Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Profile(nil), m.profiles...)
}

func (m *Manager) indexLocked(ref string) int {
	for i, p := range m.profiles {
		if p.ID == ref {
			return i
		}
	}
	for i, p := range m.profiles {
		if strings.EqualFold(p.Name, ref) {
			return i
		}
	}
	return -1
}
