//go:build linux

package linux

import (
	"context"
	"log/slog"
	"time"

	"github.com/stigoleg/movemouse/internal/util"
)

// commandTimeout bounds every helper process we spawn.
const commandTimeout = 3 * time.Second

var hasCommand = util.HasCommand

// runVerbose runs a helper and returns its combined output.
func runVerbose(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return util.Run(ctx, name, args...)
}

// runBestEffort runs a helper whose failure only deserves a log line.
func runBestEffort(ctx context.Context, logger *slog.Logger, name string, args ...string) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	util.RunBestEffort(ctx, logger, name, args...)
}
