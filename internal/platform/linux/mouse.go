//go:build linux

package linux

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// XprintidleTimer reads idle time with xprintidle.
// Note: xprintidle only works on X11, not Wayland.
type XprintidleTimer struct{}

// IdleTime returns the X11 idle time.
func (XprintidleTimer) IdleTime() (time.Duration, error) {
	if DetectDisplayServer() == DisplayWayland {
		return 0, fmt.Errorf("xprintidle does not work on Wayland (only X11)")
	}
	if !hasCommand("xprintidle") {
		return 0, fmt.Errorf("xprintidle not found")
	}
	out, err := runVerbose(context.Background(), "xprintidle")
	if err != nil {
		return 0, err
	}
	millis, err := strconv.ParseInt(out, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse xprintidle output %q: %v", out, err)
	}
	return time.Duration(millis) * time.Millisecond, nil
}

// CommandMover moves the cursor with a command-line tool.
type CommandMover struct {
	Cmd  string
	Args []string
}

func (c *CommandMover) Move(dx, dy int) error {
	args := append(append([]string(nil), c.Args...), strconv.Itoa(dx), strconv.Itoa(dy))
	out, err := runVerbose(context.Background(), c.Cmd, args...)
	if err != nil {
		return fmt.Errorf("%w (output: %q)", err, out)
	}
	return nil
}

func (c *CommandMover) Name() string {
	return c.Cmd
}

// NewYdotoolMover returns a mover backed by ydotool (X11 and Wayland).
func NewYdotoolMover() *CommandMover {
	return &CommandMover{Cmd: "ydotool", Args: []string{"mousemove", "--"}}
}

// NewXdotoolMover returns a mover backed by xdotool (X11 only).
func NewXdotoolMover() *CommandMover {
	return &CommandMover{Cmd: "xdotool", Args: []string{"mousemove_relative", "--"}}
}

// DBusActivity pokes the freedesktop and GNOME screensaver interfaces.
type DBusActivity struct {
	Logger *slog.Logger
}

// SimulateActivity uses DBus to simulate user activity.
func (d DBusActivity) SimulateActivity(ctx context.Context) error {
	if !hasCommand("dbus-send") {
		return fmt.Errorf("dbus-send not found")
	}
	runBestEffort(ctx, d.Logger, "dbus-send", "--session", "--type=method_call", "--dest=org.freedesktop.ScreenSaver", "/org/freedesktop/ScreenSaver", "org.freedesktop.ScreenSaver.SimulateUserActivity")
	runBestEffort(ctx, d.Logger, "dbus-send", "--session", "--type=method_call", "--dest=org.gnome.ScreenSaver", "/org/gnome/ScreenSaver", "org.gnome.ScreenSaver.SimulateUserActivity")

	if DetectDisplayServer() == DisplayWayland && hasCommand("loginctl") {
		runBestEffort(ctx, d.Logger, "loginctl", "user-status")
	}
	return nil
}
