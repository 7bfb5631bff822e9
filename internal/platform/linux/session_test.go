//go:build linux

package linux

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func envMap(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func TestDetectDisplay(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want DisplayServer
	}{
		{"wayland socket", map[string]string{"WAYLAND_DISPLAY": "wayland-0", "DISPLAY": ":0"}, DisplayWayland},
		{"wayland session type", map[string]string{"XDG_SESSION_TYPE": "Wayland"}, DisplayWayland},
		{"x11 display", map[string]string{"DISPLAY": ":0"}, DisplayX11},
		{"x11 session type", map[string]string{"XDG_SESSION_TYPE": "x11"}, DisplayX11},
		{"nothing set", nil, DisplayUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectDisplay(envMap(tt.env)); got != tt.want {
				t.Errorf("detectDisplay() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectDesktop(t *testing.T) {
	tests := []struct {
		xdg, session string
		want         Desktop
	}{
		{"GNOME", "", DesktopGNOME},
		{"ubuntu:GNOME", "", DesktopGNOME},
		{"KDE", "", DesktopKDE},
		{"", "plasma", DesktopKDE},
		{"pop:GNOME", "", DesktopCosmic},
		{"sway", "", DesktopOther},
		{"", "", DesktopUnknown},
	}
	for _, tt := range tests {
		env := map[string]string{"XDG_CURRENT_DESKTOP": tt.xdg, "DESKTOP_SESSION": tt.session}
		if got := detectDesktop(envMap(env)); got != tt.want {
			t.Errorf("detectDesktop(%q, %q) = %q, want %q", tt.xdg, tt.session, got, tt.want)
		}
	}
}

func TestMissingHelpers(t *testing.T) {
	s := Session{
		Display: DisplayWayland,
		Desktop: DesktopGNOME,
		tools:   map[string]bool{ToolYdotool: true, ToolDbusSend: true, ToolLoginctl: true},
	}
	var names []string
	for _, h := range s.MissingHelpers() {
		names = append(names, h.Tool)
	}
	// X11-only helpers are not reported on Wayland.
	want := []string{ToolGdbus, ToolPactl}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("MissingHelpers() = %v, want %v", names, want)
	}

	report := Report(s, "apt")
	for _, part := range []string{"gdbus", "sudo apt install libglib2.0-bin", "sudo apt install pulseaudio-utils"} {
		if !strings.Contains(report, part) {
			t.Errorf("report missing %q:\n%s", part, report)
		}
	}

	complete := Session{Display: DisplayX11, tools: map[string]bool{}}
	for _, tool := range knownTools {
		complete.tools[tool] = true
	}
	if got := Report(complete, "apt"); got != "" {
		t.Errorf("expected empty report, got %q", got)
	}
}

func TestInstallCommand(t *testing.T) {
	var pactl, xprintidle Helper
	for _, h := range helpers {
		switch h.Tool {
		case ToolPactl:
			pactl = h
		case ToolXprintidle:
			xprintidle = h
		}
	}
	tests := []struct {
		helper  Helper
		manager string
		want    string
	}{
		{xprintidle, "apt", "sudo apt install xprintidle"},
		{pactl, "pacman", "sudo pacman -S libpulse"},
		{pactl, "zypper", "sudo zypper install pactl"},
		{xprintidle, "apk", "sudo apk add xprintidle"},
		{xprintidle, "", ""},
	}
	for _, tt := range tests {
		if got := tt.helper.InstallCommand(tt.manager); got != tt.want {
			t.Errorf("InstallCommand(%s, %q) = %q, want %q", tt.helper.Tool, tt.manager, got, tt.want)
		}
	}
}

func TestManagerFromOSRelease(t *testing.T) {
	dir := t.TempDir()
	write := func(body string) string {
		path := filepath.Join(dir, "os-release")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	if got := managerFromOSRelease(write("NAME=\"Pop!_OS\"\nID=pop\nID_LIKE=\"ubuntu debian\"\n")); got != "apt" {
		t.Errorf("pop = %q, want apt", got)
	}
	if got := managerFromOSRelease(write("ID=endeavouros\nID_LIKE=arch\n")); got != "pacman" {
		t.Errorf("endeavouros = %q, want pacman", got)
	}
	if got := managerFromOSRelease(write("ID=nixos\n")); got != "" {
		t.Errorf("nixos = %q, want empty", got)
	}
	if got := managerFromOSRelease(filepath.Join(dir, "missing")); got != "" {
		t.Errorf("missing file = %q, want empty", got)
	}
}

func TestGroupID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "group")
	if err := os.WriteFile(path, []byte("root:x:0:\ninput:x:104:alice\nbad:x:nan:\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := groupID(path, "input"); got != 104 {
		t.Errorf("groupID(input) = %d, want 104", got)
	}
	if got := groupID(path, "bad"); got != -1 {
		t.Errorf("groupID(bad) = %d, want -1", got)
	}
	if got := groupID(path, "video"); got != -1 {
		t.Errorf("groupID(video) = %d, want -1", got)
	}
}

func TestCommandMoverName(t *testing.T) {
	if got := NewYdotoolMover().Name(); got != ToolYdotool {
		t.Errorf("Name() = %q", got)
	}
	if got := NewXdotoolMover().Args; len(got) != 2 || got[0] != "mousemove_relative" {
		t.Errorf("xdotool args = %v", got)
	}
}
