//go:build !darwin && !windows && !linux

package platform

import "log/slog"

// New returns a bundle whose collaborators all report ErrUnsupported.
func New(logger *slog.Logger) (*System, error) {
	logger.Warn("platform collaborators unavailable on this OS")
	return unsupportedSystem(), nil
}
