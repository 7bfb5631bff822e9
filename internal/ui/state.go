package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/stigoleg/movemouse/internal/keepalive"
)

// badge returns the style and caption for a keeper state.
func badge(s keepalive.MouseState) (lipgloss.Style, string) {
	switch s {
	case keepalive.Running:
		return Current.BadgeActive, "RUNNING"
	case keepalive.Executing:
		return Current.BadgeActive, "MOVING"
	case keepalive.Paused:
		return Current.BadgeWaiting, "PAUSED"
	case keepalive.Sleeping:
		return Current.BadgeWaiting, "BLACKOUT"
	case keepalive.OnBattery:
		return Current.BadgeWaiting, "ON BATTERY"
	case keepalive.Locked:
		return Current.BadgeWaiting, "LOCKED"
	default:
		return Current.BadgeIdle, "IDLE"
	}
}

// describe explains what the keeper is waiting for in s.
func describe(s keepalive.MouseState) string {
	switch s {
	case keepalive.Running:
		return "Keeping the session active"
	case keepalive.Executing:
		return "Running actions"
	case keepalive.Paused:
		return "Paused while you are active"
	case keepalive.Sleeping:
		return "Sleeping until the blackout ends"
	case keepalive.OnBattery:
		return "Waiting for mains power"
	case keepalive.Locked:
		return "Session locked"
	default:
		return "Stopped"
	}
}
