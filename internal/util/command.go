package util

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
)

// HasCommand checks if a command is available in the system PATH.
func HasCommand(name string) bool {
	if name == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}

// Run executes a command bound to ctx and returns the trimmed combined output.
func Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return strings.TrimSpace(buf.String()), err
}

// RunBestEffort executes a command and only logs a failure.
func RunBestEffort(ctx context.Context, logger *slog.Logger, name string, args ...string) {
	if out, err := Run(ctx, name, args...); err != nil && logger != nil {
		logger.Debug("best-effort command failed", "cmd", name, "args", strings.Join(args, " "), "err", err, "output", out)
	}
}
