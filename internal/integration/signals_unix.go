//go:build !windows

// Package integration holds end-to-end tests wiring the settings document,
// the keeper, the journal and the control API together.
package integration

import (
	"os"
	"syscall"
)

// terminationSignals are the signals the helper process treats as a
// request to stop.
func terminationSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}
}

var signalsByName = map[string]os.Signal{
	"SIGINT":  syscall.SIGINT,
	"SIGTERM": syscall.SIGTERM,
	"SIGQUIT": syscall.SIGQUIT,
}

func signalSupported() bool { return true }
