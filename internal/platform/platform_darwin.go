//go:build darwin

package platform

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"github.com/stigoleg/movemouse/internal/util"
)

// New returns the macOS collaborators. Cursor moves need the Accessibility
// permission for the terminal or app bundle running the process.
func New(logger *slog.Logger) (*System, error) {
	sys := &System{
		Idle:     ioregIdle{},
		Power:    pmsetPower{},
		Session:  ioregSession{},
		Volume:   osascriptVolume{},
		Mover:    unsupportedMover("osascript not found"),
		Activity: caffeinateActivity{logger: logger},
		Capability: Capability{
			Method:       "none",
			Instructions: "osascript is required for cursor moves",
		},
	}
	if hasCommand("osascript") {
		sys.Mover = jxaMover{}
		sys.Capability = Capability{
			CanSimulate:  true,
			Method:       "osascript",
			Instructions: "Enable Accessibility for this terminal or app in System Settings, Privacy and Security, Accessibility.",
		}
	}
	return sys, nil
}

func runScript(name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), scriptExecutionTimeout)
	defer cancel()
	out, err := util.Run(ctx, name, args...)
	if ctx.Err() == context.DeadlineExceeded {
		return out, fmt.Errorf("%s timed out after %s", name, scriptExecutionTimeout)
	}
	return out, err
}

// ioregIdle returns the system idle time on macOS.
type ioregIdle struct{}

func (ioregIdle) IdleTime() (time.Duration, error) {
	out, err := exec.Command("ioreg", "-c", "IOHIDSystem").Output()
	if err != nil {
		return 0, err
	}
	return parseHIDIdle(string(out))
}

type pmsetPower struct{}

func (pmsetPower) OnBattery() (bool, error) {
	out, err := runScript("pmset", "-g", "batt")
	if err != nil {
		return false, fmt.Errorf("pmset: %w", err)
	}
	return parsePmsetBattery(out)
}

type ioregSession struct{}

func (ioregSession) Locked() (bool, error) {
	out, err := runScript("ioreg", "-n", "Root", "-d1", "-a")
	if err != nil {
		return false, fmt.Errorf("ioreg: %w", err)
	}
	return parseScreenLocked(out), nil
}

type osascriptVolume struct{}

func (osascriptVolume) Volume() (int, error) {
	out, err := runScript("osascript", "-e", "output volume of (get volume settings)")
	if err != nil {
		return 0, fmt.Errorf("osascript: %w", err)
	}
	return parseVolumeNumber(out)
}

func (osascriptVolume) SetVolume(level int) error {
	level = clampVolume(level)
	if out, err := runScript("osascript", "-e", "set volume output volume "+strconv.Itoa(level)); err != nil {
		return fmt.Errorf("osascript: %w (output: %q)", err, out)
	}
	return nil
}

// jxaMover posts CoreGraphics mouse-moved events relative to the current location.
type jxaMover struct{}

const jxaMoveScript = `
ObjC.import('CoreGraphics');
var ev = $.CGEventCreate(null);
var p = $.CGEventGetLocation(ev);
var target = {x: p.x + %d, y: p.y + %d};
var moveEvent = $.CGEventCreateMouseEvent(null, $.kCGEventMouseMoved, target, $.kCGMouseButtonLeft);
$.CGEventPost($.kCGHIDEventTap, moveEvent);
`

func (jxaMover) Move(dx, dy int) error {
	out, err := runScript("osascript", "-l", "JavaScript", "-e", fmt.Sprintf(jxaMoveScript, dx, dy))
	if err != nil {
		return fmt.Errorf("osascript failed: %v (output: %q)", err, out)
	}
	return nil
}

func (jxaMover) Name() string { return "osascript" }

type unsupportedMover string

func (m unsupportedMover) Move(int, int) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, string(m))
}

func (m unsupportedMover) Name() string { return "none" }

// caffeinateActivity declares user activity, which wakes the display and
// resets the idle timers used by chat apps.
type caffeinateActivity struct {
	logger *slog.Logger
}

func (c caffeinateActivity) SimulateActivity(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, scriptExecutionTimeout)
	defer cancel()
	if _, err := util.Run(ctx, "caffeinate", "-u", "-t", "1"); err != nil {
		return fmt.Errorf("caffeinate: %w", err)
	}
	util.RunBestEffort(ctx, c.logger, "pmset", "touch")
	return nil
}
