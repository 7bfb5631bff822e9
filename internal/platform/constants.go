package platform

import (
	"time"

	"github.com/stigoleg/movemouse/internal/util"
)

const (
	// WatchInterval is how often the watcher samples power and lock state.
	WatchInterval = 2 * time.Second

	// scriptExecutionTimeout limits how long we wait for helper processes
	// such as osascript or pactl.
	scriptExecutionTimeout = 3 * time.Second
)

var hasCommand = util.HasCommand
