package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stigoleg/movemouse/internal/keepalive"
)

// Update handles messages and updates the model accordingly.
func Update(msg tea.Msg, m Model) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return handleKey(msg, m)

	case tickMsg:
		m.refresh()
		return m, tick()

	case eventMsg:
		ev := keepalive.Event(msg)
		switch ev.Kind {
		case keepalive.EventNotification, keepalive.EventDiagnostic:
			m.LastMessage = ev.Message
			m.LastAt = ev.Time
		}
		m.refresh()
		return m, m.waitForEvent()

	case eventsClosedMsg:
		return m, nil
	}
	return m, nil
}

func handleKey(msg tea.KeyMsg, m Model) (Model, tea.Cmd) {
	if m.ShowHelp {
		switch {
		case key.Matches(msg, m.keys.ToggleHelp), msg.String() == "esc":
			m.ShowHelp = false
			return m, nil
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.ToggleHelp):
		m.ShowHelp = true
		m.help.ShowAll = true

	case key.Matches(msg, m.keys.Toggle):
		if m.opts.Keeper != nil {
			// A rejected toggle is a debounced double press; nothing to show.
			m.opts.Keeper.Toggle()
		}
		m.ErrorMessage = ""

	case key.Matches(msg, m.keys.NextProfile), key.Matches(msg, m.keys.PrevProfile):
		if m.opts.Profiles == nil {
			return m, nil
		}
		delta := 1
		if key.Matches(msg, m.keys.PrevProfile) {
			delta = -1
		}
		if _, err := m.opts.Profiles.Cycle(delta); err != nil {
			m.ErrorMessage = err.Error()
		} else {
			m.ErrorMessage = ""
		}
	}

	m.refresh()
	return m, nil
}
