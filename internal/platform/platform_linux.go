//go:build linux

package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/stigoleg/movemouse/internal/platform/linux"
	"github.com/stigoleg/movemouse/internal/util"
)

// New detects the Linux session and returns the collaborators it supports.
func New(logger *slog.Logger) (*System, error) {
	session := linux.DetectSession()
	logger.Info("detected session", "display", session.Display, "desktop", session.Desktop)

	sys := &System{
		Idle:     linuxIdle(session),
		Power:    SysfsPower{},
		Session:  loginctlSession{id: os.Getenv("XDG_SESSION_ID")},
		Volume:   pactlVolume{},
		Activity: linux.DBusActivity{Logger: logger},
	}

	sys.Mover, sys.Capability = linuxMover(session, logger)
	if ptr, ok := sys.Mover.(*linux.VirtualPointer); ok {
		sys.onClose(ptr.Close)
	}
	if report := linux.Report(session, linux.PackageManager()); report != "" {
		logger.Warn("optional helpers missing", "report", report)
	}
	return sys, nil
}

// linuxMover prefers the uinput device, then ydotool, then xdotool on X11.
func linuxMover(session linux.Session, logger *slog.Logger) (Mover, Capability) {
	ptr, err := linux.OpenVirtualPointer()
	if err == nil {
		return ptr, Capability{CanSimulate: true, Method: "uinput"}
	}
	logger.Debug("uinput unavailable", "err", err)
	if session.Has(linux.ToolYdotool) {
		return linux.NewYdotoolMover(), Capability{CanSimulate: true, Method: linux.ToolYdotool}
	}
	if session.Display == linux.DisplayX11 && session.Has(linux.ToolXdotool) {
		return linux.NewXdotoolMover(), Capability{CanSimulate: true, Method: linux.ToolXdotool}
	}
	_, hint := linux.UinputAccess()
	return Unsupported{}, Capability{Method: "none", Instructions: hint}
}

func linuxIdle(session linux.Session) IdleTimer {
	switch {
	case session.Display == linux.DisplayX11 && session.Has(linux.ToolXprintidle):
		return linux.XprintidleTimer{}
	case session.Desktop == linux.DesktopGNOME && session.Has(linux.ToolGdbus):
		return mutterIdle{}
	}
	return Unsupported{}
}

// mutterIdle asks GNOME Shell for the idle time, which also works on Wayland.
type mutterIdle struct{}

func (mutterIdle) IdleTime() (time.Duration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), scriptExecutionTimeout)
	defer cancel()
	out, err := util.Run(ctx, "gdbus", "call", "--session",
		"--dest", "org.gnome.Mutter.IdleMonitor",
		"--object-path", "/org/gnome/Mutter/IdleMonitor/Core",
		"--method", "org.gnome.Mutter.IdleMonitor.GetIdletime")
	if err != nil {
		return 0, fmt.Errorf("gdbus idle monitor: %w", err)
	}
	ms, err := parseGdbusUint64(out)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// loginctlSession reads the LockedHint property of the current logind session.
type loginctlSession struct {
	id string
}

func (s loginctlSession) Locked() (bool, error) {
	if !hasCommand("loginctl") {
		return false, ErrUnsupported
	}
	id := s.id
	if id == "" {
		id = "self"
	}
	ctx, cancel := context.WithTimeout(context.Background(), scriptExecutionTimeout)
	defer cancel()
	out, err := util.Run(ctx, "loginctl", "show-session", id, "-p", "LockedHint", "--value")
	if err != nil {
		return false, fmt.Errorf("loginctl: %w", err)
	}
	return parseYesNo(out)
}

// pactlVolume drives the default PulseAudio/PipeWire sink.
type pactlVolume struct{}

func (pactlVolume) Volume() (int, error) {
	if !hasCommand("pactl") {
		return 0, ErrUnsupported
	}
	ctx, cancel := context.WithTimeout(context.Background(), scriptExecutionTimeout)
	defer cancel()
	out, err := util.Run(ctx, "pactl", "get-sink-volume", "@DEFAULT_SINK@")
	if err != nil {
		return 0, fmt.Errorf("pactl: %w", err)
	}
	return parseVolumePercent(out)
}

func (pactlVolume) SetVolume(level int) error {
	if !hasCommand("pactl") {
		return ErrUnsupported
	}
	if level < 0 || level > 100 {
		return errors.New("volume must be between 0 and 100")
	}
	ctx, cancel := context.WithTimeout(context.Background(), scriptExecutionTimeout)
	defer cancel()
	if out, err := util.Run(ctx, "pactl", "set-sink-volume", "@DEFAULT_SINK@", strconv.Itoa(level)+"%"); err != nil {
		return fmt.Errorf("pactl: %w (output: %q)", err, out)
	}
	return nil
}
