package util

import (
	"fmt"
	"strconv"
	"time"
)

// ParseDuration accepts a bare integer (minutes) or a Go duration string.
func ParseDuration(input string) (time.Duration, error) {
	if minutes, err := strconv.Atoi(input); err == nil {
		if minutes < 0 {
			return 0, durationError(input)
		}
		return time.Duration(minutes) * time.Minute, nil
	}

	duration, err := time.ParseDuration(input)
	if err != nil || duration < 0 {
		return 0, durationError(input)
	}
	return duration, nil
}

func durationError(input string) error {
	return fmt.Errorf("invalid duration format: %q\n\nValid formats:\n"+
		"• minutes as a number (e.g., '90')\n"+
		"• duration string (e.g., '1h30m', '45s')", input)
}

// FormatCountdown renders d as H:MM:SS, or M:SS below one hour.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
