package util

import (
	"fmt"
	"strings"
	"time"
)

// ParseClock parses a time of day and returns its offset from midnight.
// Supported formats:
// - 24-hour: "HH:MM" or "HH:MM:SS" (e.g., "23:30", "09:45:10")
// - 12-hour: "HH:MM[AM|PM]" (e.g., "11:30PM", "9:45 AM")
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToUpper(s))

	formats := []string{"15:04", "15:04:05", "3:04PM", "3:04 PM", "03:04PM", "03:04 PM"}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}

	return 0, fmt.Errorf("invalid time format: %s\n\nValid formats:\n"+
		"• 24-hour format: HH:MM[:SS] (e.g., '23:30', '09:45')\n"+
		"• 12-hour format: HH:MM[AM|PM] (e.g., '11:30PM', '9:45 AM')", s)
}

// FormatClock renders an offset from midnight as HH:MM, with seconds only when present.
func FormatClock(d time.Duration) string {
	d %= 24 * time.Hour
	if d < 0 {
		d += 24 * time.Hour
	}
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	sec := int(d%time.Minute) / int(time.Second)
	if sec != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// TimeOfDay returns t's wall clock reading as an offset from midnight. On
// daylight saving days it differs from the time elapsed since midnight.
func TimeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}
