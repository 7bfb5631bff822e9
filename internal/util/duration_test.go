package util

import (
	"strings"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	valid := map[string]time.Duration{
		"0":        0,
		"30":       30 * time.Minute,
		"120":      2 * time.Hour,
		"45s":      45 * time.Second,
		"2h":       2 * time.Hour,
		"2h30m":    2*time.Hour + 30*time.Minute,
		"1h30m45s": time.Hour + 30*time.Minute + 45*time.Second,
	}
	for in, want := range valid {
		got, err := ParseDuration(in)
		if err != nil {
			t.Errorf("ParseDuration(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseDuration(%q) = %v, want %v", in, got, want)
		}
	}

	for _, in := range []string{"", "abc", "2x30m", "-5", "-1h"} {
		_, err := ParseDuration(in)
		if err == nil {
			t.Errorf("ParseDuration(%q) accepted", in)
			continue
		}
		if !strings.Contains(err.Error(), "Valid formats") {
			t.Errorf("ParseDuration(%q) error lacks format help: %v", in, err)
		}
	}
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{-3 * time.Second, "0:00"},
		{59 * time.Second, "0:59"},
		{90 * time.Second, "1:30"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{1499 * time.Millisecond, "0:01"},
	}
	for _, tt := range tests {
		if got := FormatCountdown(tt.in); got != tt.want {
			t.Errorf("FormatCountdown(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
