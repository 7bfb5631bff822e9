//go:build windows

// Package integration holds end-to-end tests wiring the settings document,
// the keeper, the journal and the control API together.
package integration

import (
	"os"
)

func terminationSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

var signalsByName = map[string]os.Signal{}

// Windows cannot deliver signals to a child process.
func signalSupported() bool { return false }
