//go:build !windows

package main

import (
	"os"
	"syscall"
)

// watchedSignals are the signals main reacts to.
func watchedSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
		syscall.SIGTSTP,
	}
}

// isSuspend reports whether sig asks for a suspend rather than an exit.
func isSuspend(sig os.Signal) bool {
	return sig == syscall.SIGTSTP
}
