package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stigoleg/movemouse/internal/keepalive"
	"github.com/stigoleg/movemouse/internal/profile"
)

// Keeper is the part of keepalive.Keeper the screen drives.
type Keeper interface {
	Status() keepalive.Status
	Toggle() bool
}

// Profiles exposes the active profile and switches between profiles.
type Profiles interface {
	Active() *profile.Profile
	Cycle(delta int) (*profile.Profile, error)
}

// Options configures a Model.
type Options struct {
	Keeper   Keeper
	Profiles Profiles
	// Events feeds keeper events into the screen. May be nil.
	Events <-chan keepalive.Event
	// Deadline is when a -duration run stops on its own. Zero hides it.
	Deadline time.Time
	// Notice is shown under the status, e.g. a missing capability.
	Notice string
	Now    func() time.Time
}

// Model holds the current state of the UI.
type Model struct {
	opts Options
	keys KeyMap
	help help.Model

	Status       keepalive.Status
	Profile      *profile.Profile
	LastMessage  string
	LastAt       time.Time
	ErrorMessage string
	ShowHelp     bool
	quitting     bool
}

// tickMsg refreshes the countdown.
type tickMsg time.Time

// eventMsg carries one keeper event.
type eventMsg keepalive.Event

// eventsClosedMsg reports that the event feed has ended.
type eventsClosedMsg struct{}

// NewModel returns the initial model.
func NewModel(opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := Model{
		opts: opts,
		keys: DefaultKeys(),
		help: NewHelpModel(),
	}
	m.refresh()
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.waitForEvent())
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return Update(msg, m)
}

// View implements tea.Model
func (m Model) View() string {
	return View(m)
}

// Quitting reports whether the user asked to quit.
func (m Model) Quitting() bool { return m.quitting }

// NextExecution returns the time left until the next interval firing, or
// zero when nothing is scheduled.
func (m Model) NextExecution() time.Duration {
	if m.Status.ExecutionTime.IsZero() {
		return 0
	}
	return max(m.Status.ExecutionTime.Sub(m.opts.Now()), 0)
}

// TimeRemaining returns the time left before a -duration run stops.
func (m Model) TimeRemaining() time.Duration {
	if m.opts.Deadline.IsZero() {
		return 0
	}
	return max(m.opts.Deadline.Sub(m.opts.Now()), 0)
}

func (m *Model) refresh() {
	if m.opts.Keeper != nil {
		m.Status = m.opts.Keeper.Status()
	}
	if m.opts.Profiles != nil {
		m.Profile = m.opts.Profiles.Active()
	}
}

func (m Model) waitForEvent() tea.Cmd {
	if m.opts.Events == nil {
		return nil
	}
	ch := m.opts.Events
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
