package action

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stigoleg/movemouse/internal/util"
)

// DefaultCommandTimeout bounds a command action without an explicit timeout.
const DefaultCommandTimeout = 30 * time.Second

// Command runs an external program.
type Command struct {
	Path    string
	Args    []string
	Timeout time.Duration
	Logger  *slog.Logger
}

func (c *Command) Kind() string             { return "command" }
func (c *Command) Valid() bool              { return strings.TrimSpace(c.Path) != "" }
func (c *Command) InterruptsIdleTime() bool { return false }

func (c *Command) Execute(ctx context.Context) error {
	if !c.Valid() {
		return fmt.Errorf("command: no program configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := util.Run(ctx, c.Path, c.Args...)
	if err != nil {
		return fmt.Errorf("command %s: %w (output: %s)", c.Path, err, out)
	}
	if c.Logger != nil && out != "" {
		c.Logger.Debug("command output", "cmd", c.Path, "output", out)
	}
	return nil
}
