//go:build linux

package linux

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// Helper is an optional tool one of the collaborators depends on.
type Helper struct {
	Tool    string
	Purpose string
	// Package is the package providing Tool, keyed by package manager.
	// The tool name is used when a manager is missing.
	Package map[string]string

	relevant func(Session) bool
}

func always(Session) bool        { return true }
func onX11(s Session) bool       { return s.Display == DisplayX11 }
func onGNOMEIdle(s Session) bool { return s.Desktop == DesktopGNOME && s.Display == DisplayWayland }

var helpers = []Helper{
	{Tool: ToolYdotool, Purpose: "moves the cursor on Wayland and X11", relevant: always},
	{Tool: ToolXdotool, Purpose: "moves the cursor on X11", relevant: onX11},
	{Tool: ToolXprintidle, Purpose: "reads idle time on X11 for auto-pause and auto-resume", relevant: onX11},
	{
		Tool:     ToolGdbus,
		Purpose:  "reads idle time from GNOME Shell on Wayland",
		Package:  map[string]string{"apt": "libglib2.0-bin", "dnf": "glib2", "pacman": "glib2", "zypper": "glib2-tools"},
		relevant: onGNOMEIdle,
	},
	{
		Tool:     ToolDbusSend,
		Purpose:  "runs activity actions through the screensaver",
		Package:  map[string]string{"apt": "dbus", "dnf": "dbus-tools", "pacman": "dbus"},
		relevant: always,
	},
	{
		Tool:     ToolLoginctl,
		Purpose:  "detects a locked session",
		Package:  map[string]string{"apt": "systemd", "dnf": "systemd", "pacman": "systemd"},
		relevant: always,
	},
	{
		Tool:     ToolPactl,
		Purpose:  "sets the running volume",
		Package:  map[string]string{"apt": "pulseaudio-utils", "dnf": "pulseaudio-utils", "pacman": "libpulse"},
		relevant: always,
	},
}

// MissingHelpers lists the helpers relevant to s that are not installed.
func (s Session) MissingHelpers() []Helper {
	var missing []Helper
	for _, h := range helpers {
		if h.relevant(s) && !s.Has(h.Tool) {
			missing = append(missing, h)
		}
	}
	return missing
}

// InstallCommand returns the command installing h with manager, or "" for
// an unknown manager.
func (h Helper) InstallCommand(manager string) string {
	pkg := h.Tool
	if p, ok := h.Package[manager]; ok {
		pkg = p
	}
	switch manager {
	case "apt":
		return "sudo apt install " + pkg
	case "dnf", "yum", "zypper":
		return fmt.Sprintf("sudo %s install %s", manager, pkg)
	case "pacman":
		return "sudo pacman -S " + pkg
	case "apk":
		return "sudo apk add " + pkg
	}
	return ""
}

// PackageManager guesses the package manager from /etc/os-release, falling
// back to whichever manager is on PATH.
func PackageManager() string {
	if m := managerFromOSRelease("/etc/os-release"); m != "" {
		return m
	}
	for _, m := range []string{"apt", "dnf", "yum", "pacman", "zypper", "apk"} {
		if hasCommand(m) {
			return m
		}
	}
	return ""
}

func managerFromOSRelease(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if ok && (key == "ID" || key == "ID_LIKE") {
			ids = append(ids, strings.Fields(strings.ToLower(strings.Trim(value, `"`)))...)
		}
	}
	for _, id := range ids {
		switch id {
		case "debian", "ubuntu", "pop", "linuxmint":
			return "apt"
		case "fedora", "rhel", "centos":
			if hasCommand("dnf") {
				return "dnf"
			}
			return "yum"
		case "arch", "manjaro", "endeavouros":
			return "pacman"
		case "suse", "opensuse", "opensuse-leap", "opensuse-tumbleweed":
			return "zypper"
		case "alpine":
			return "apk"
		}
	}
	return ""
}

// Report describes the missing helpers and how to install them, or ""
// when nothing relevant is missing.
func Report(s Session, manager string) string {
	missing := s.MissingHelpers()
	if len(missing) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Some optional helpers are missing:\n")
	for _, h := range missing {
		fmt.Fprintf(&b, "  - %s %s", h.Tool, h.Purpose)
		if cmd := h.InstallCommand(manager); cmd != "" {
			fmt.Fprintf(&b, " (install: %s)", cmd)
		}
		b.WriteString("\n")
	}
	if ok, _ := UinputAccess(); !ok {
		b.WriteString("Granting access to " + uinputDevicePath + " moves the cursor without any helper.\n")
	}
	return b.String()
}

// UinputAccess reports whether /dev/uinput can be opened for writing and,
// when not, how to fix it.
func UinputAccess() (ok bool, hint string) {
	f, err := os.OpenFile(uinputDevicePath, os.O_WRONLY, 0)
	if err == nil {
		f.Close()
		return true, ""
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, uinputDevicePath + " does not exist. Load the module with: sudo modprobe uinput"
	}

	const udevRule = `echo 'KERNEL=="uinput", MODE="0660", GROUP="input"' | sudo tee /etc/udev/rules.d/99-uinput.rules`
	if gid := groupID("/etc/group", "input"); gid >= 0 && !inGroup(gid) {
		return false, "Cursor moves need access to " + uinputDevicePath + ". Add yourself to the input group:\n" +
			"  sudo usermod -aG input $USER\nthen log out and back in. If the device is not group owned, add:\n  " + udevRule
	}
	return false, fmt.Sprintf("Cannot open %s: %v\nAdd a udev rule granting the input group access:\n  %s", uinputDevicePath, err, udevRule)
}

// groupID looks a group up in an /etc/group style file, -1 when absent.
func groupID(path, name string) int {
	f, err := os.Open(path)
	if err != nil {
		return -1
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Split(sc.Text(), ":")
		if len(fields) >= 3 && fields[0] == name {
			if gid, err := strconv.Atoi(fields[2]); err == nil {
				return gid
			}
		}
	}
	return -1
}

func inGroup(gid int) bool {
	groups, err := os.Getgroups()
	if err != nil {
		return false
	}
	for _, g := range groups {
		if g == gid {
			return true
		}
	}
	return false
}
