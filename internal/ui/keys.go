package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings of the status screen.
type KeyMap struct {
	Toggle      key.Binding
	NextProfile key.Binding
	PrevProfile key.Binding
	ToggleHelp  key.Binding
	Quit        key.Binding
}

// DefaultKeys returns the default key bindings for the application.
func DefaultKeys() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space/enter", "start/stop"),
		),
		NextProfile: key.NewBinding(
			key.WithKeys("n", "right"),
			key.WithHelp("n/→", "next profile"),
		),
		PrevProfile: key.NewBinding(
			key.WithKeys("p", "left"),
			key.WithHelp("p/←", "previous profile"),
		),
		ToggleHelp: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// NewHelpModel returns a configured help model.
func NewHelpModel() help.Model {
	return help.New()
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.ToggleHelp, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.NextProfile, k.PrevProfile},
		{k.ToggleHelp, k.Quit},
	}
}
