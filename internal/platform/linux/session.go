//go:build linux

// Package linux holds the Linux cursor movers, idle reader and session
// environment detection.
package linux

import (
	"os"
	"strings"
)

// DisplayServer names the graphical protocol of the session.
type DisplayServer string

const (
	DisplayWayland DisplayServer = "wayland"
	DisplayX11     DisplayServer = "x11"
	DisplayUnknown DisplayServer = "unknown"
)

// Desktop names the desktop environment, where it changes which helper
// answers a query.
type Desktop string

const (
	DesktopGNOME   Desktop = "gnome"
	DesktopKDE     Desktop = "kde"
	DesktopCosmic  Desktop = "cosmic"
	DesktopOther   Desktop = "other"
	DesktopUnknown Desktop = "unknown"
)

// Tools shelled out to by the Linux collaborators.
const (
	ToolYdotool    = "ydotool"
	ToolXdotool    = "xdotool"
	ToolXprintidle = "xprintidle"
	ToolGdbus      = "gdbus"
	ToolDbusSend   = "dbus-send"
	ToolLoginctl   = "loginctl"
	ToolPactl      = "pactl"
)

var knownTools = []string{
	ToolYdotool, ToolXdotool, ToolXprintidle, ToolGdbus,
	ToolDbusSend, ToolLoginctl, ToolPactl,
}

// Session describes the graphical session and which helper tools are on
// PATH.
type Session struct {
	Display DisplayServer
	Desktop Desktop
	tools   map[string]bool
}

// DetectSession inspects the environment and PATH.
func DetectSession() Session {
	s := Session{
		Display: detectDisplay(os.Getenv),
		Desktop: detectDesktop(os.Getenv),
		tools:   make(map[string]bool, len(knownTools)),
	}
	for _, t := range knownTools {
		s.tools[t] = hasCommand(t)
	}
	return s
}

// Has reports whether tool was found on PATH.
func (s Session) Has(tool string) bool {
	return s.tools[tool]
}

// DetectDisplayServer reports the display server of the current session.
func DetectDisplayServer() DisplayServer {
	return detectDisplay(os.Getenv)
}

// A Wayland socket wins over DISPLAY, which XWayland also sets.
func detectDisplay(getenv func(string) string) DisplayServer {
	session := strings.ToLower(getenv("XDG_SESSION_TYPE"))
	switch {
	case getenv("WAYLAND_DISPLAY") != "", session == string(DisplayWayland):
		return DisplayWayland
	case getenv("DISPLAY") != "", session == string(DisplayX11):
		return DisplayX11
	}
	return DisplayUnknown
}

func detectDesktop(getenv func(string) string) Desktop {
	names := strings.ToLower(getenv("XDG_CURRENT_DESKTOP") + ":" + getenv("DESKTOP_SESSION"))
	if strings.Trim(names, ":") == "" {
		return DesktopUnknown
	}
	// Pop!_OS reports "pop:GNOME", so it is matched before GNOME.
	for _, d := range []struct {
		desktop Desktop
		marks   []string
	}{
		{DesktopCosmic, []string{"cosmic", "pop"}},
		{DesktopGNOME, []string{"gnome", "ubuntu"}},
		{DesktopKDE, []string{"kde", "plasma"}},
	} {
		for _, m := range d.marks {
			if strings.Contains(names, m) {
				return d.desktop
			}
		}
	}
	return DesktopOther
}
