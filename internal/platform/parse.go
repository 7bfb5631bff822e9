package platform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	hidIdleRe     = regexp.MustCompile(`"HIDIdleTime"\s*=\s*(\d+)`)
	screenLockRe  = regexp.MustCompile(`"CGSSessionScreenIsLocked"\s*=\s*(Yes|No|true|false|1|0)`)
	volumePercent = regexp.MustCompile(`(\d{1,3})%`)
)

// parseHIDIdle extracts HIDIdleTime (nanoseconds) from `ioreg -c IOHIDSystem`.
func parseHIDIdle(out string) (time.Duration, error) {
	matches := hidIdleRe.FindStringSubmatch(out)
	if len(matches) < 2 {
		return 0, fmt.Errorf("HIDIdleTime not found in ioreg output")
	}
	nanos, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse HIDIdleTime: %w", err)
	}
	return time.Duration(nanos), nil
}

// parseScreenLocked reads CGSSessionScreenIsLocked from `ioreg -n Root -d1 -a`
// or its plain text form. Absence of the key means unlocked.
func parseScreenLocked(out string) bool {
	if m := screenLockRe.FindStringSubmatch(out); len(m) == 2 {
		switch strings.ToLower(m[1]) {
		case "yes", "true", "1":
			return true
		}
		return false
	}
	idx := strings.Index(out, "<key>CGSSessionScreenIsLocked</key>")
	if idx < 0 {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(out[idx+len("<key>CGSSessionScreenIsLocked</key>"):]), "<true/>")
}

// parsePmsetBattery reports whether `pmset -g batt` says the machine draws
// from its battery.
func parsePmsetBattery(out string) (bool, error) {
	switch {
	case strings.Contains(out, "'Battery Power'"):
		return true, nil
	case strings.Contains(out, "'AC Power'"), strings.Contains(out, "'UPS Power'"):
		return false, nil
	}
	return false, fmt.Errorf("unrecognised pmset output %q", firstLine(out))
}

// parseVolumePercent returns the first "NN%" figure, as printed by pactl.
func parseVolumePercent(out string) (int, error) {
	m := volumePercent.FindStringSubmatch(out)
	if len(m) < 2 {
		return 0, fmt.Errorf("no volume percentage in %q", firstLine(out))
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, err
	}
	return clampVolume(v), nil
}

// parseVolumeNumber parses a bare integer level such as osascript prints.
func parseVolumeNumber(out string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("invalid volume %q: %w", out, err)
	}
	return clampVolume(v), nil
}

// parseYesNo parses loginctl style boolean properties.
func parseYesNo(out string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(out)) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", out)
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// parseGdbusUint64 reads replies such as "(uint64 12345,)".
func parseGdbusUint64(out string) (uint64, error) {
	s := strings.TrimSpace(out)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	s = strings.TrimSuffix(strings.TrimSpace(s), ",")
	s = strings.TrimSpace(strings.TrimPrefix(s, "uint64"))
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid gdbus reply %q: %w", out, err)
	}
	return v, nil
}
