package notify

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/stigoleg/movemouse/internal/util"
)

// DesktopNotifier shows a native notification through notify-send on
// Linux or osascript on macOS.
type DesktopNotifier struct {
	goos string
	run  func(ctx context.Context, name string, args ...string) (string, error)
}

// NewDesktopNotifier returns a notifier for the running OS. It fails when
// no notification helper is installed.
func NewDesktopNotifier() (*DesktopNotifier, error) {
	d := &DesktopNotifier{goos: runtime.GOOS, run: util.Run}
	name, _ := d.command("", "")
	if name == "" {
		return nil, fmt.Errorf("desktop notifications are not supported on %s", d.goos)
	}
	if !util.HasCommand(name) {
		return nil, fmt.Errorf("%s not found in PATH", name)
	}
	return d, nil
}

func (d *DesktopNotifier) Send(ctx context.Context, title, body string) error {
	name, args := d.command(title, body)
	if name == "" {
		return fmt.Errorf("desktop notifications are not supported on %s", d.goos)
	}
	if out, err := d.run(ctx, name, args...); err != nil {
		return fmt.Errorf("%s: %w (output: %s)", name, err, out)
	}
	return nil
}

func (d *DesktopNotifier) command(title, body string) (string, []string) {
	switch d.goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "notify-send", []string{"--app-name=Move Mouse", title, body}
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", strconv.Quote(body), strconv.Quote(title))
		return "osascript", []string{"-e", script}
	default:
		return "", nil
	}
}
