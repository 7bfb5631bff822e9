// Package blackout evaluates recurring quiet windows during which no
// synthetic input may be produced.
package blackout

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/stigoleg/movemouse/internal/util"
)

// Days is a set of weekdays stored as a bitmask indexed by time.Weekday.
type Days uint8

// Weekdays and Weekend are the usual presets; Everyday enables all seven.
const (
	Weekdays Days = 1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday | 1<<time.Thursday | 1<<time.Friday
	Weekend  Days = 1<<time.Saturday | 1<<time.Sunday
	Everyday      = Weekdays | Weekend
)

// DaysOf builds a set from individual weekdays.
func DaysOf(days ...time.Weekday) Days {
	var d Days
	for _, wd := range days {
		d |= 1 << wd
	}
	return d
}

// Has reports whether wd is enabled.
func (d Days) Has(wd time.Weekday) bool {
	return d&(1<<wd) != 0
}

// List returns the enabled weekdays starting from Sunday.
func (d Days) List() []time.Weekday {
	var out []time.Weekday
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if d.Has(wd) {
			out = append(out, wd)
		}
	}
	return out
}

func (d Days) String() string {
	names := make([]string, 0, 7)
	for _, wd := range d.List() {
		names = append(names, strings.ToLower(wd.String()[:3]))
	}
	return strings.Join(names, ",")
}

// MarshalYAML writes the set as a list of short day names.
func (d Days) MarshalYAML() (interface{}, error) {
	names := make([]string, 0, 7)
	for _, wd := range d.List() {
		names = append(names, strings.ToLower(wd.String()[:3]))
	}
	return names, nil
}

// UnmarshalYAML accepts a list of day names, or one of the presets
// "weekdays", "weekend" and "everyday".
func (d *Days) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		preset, err := parsePreset(value.Value)
		if err != nil {
			return err
		}
		*d = preset
		return nil
	}
	var names []string
	if err := value.Decode(&names); err != nil {
		return err
	}
	var out Days
	for _, name := range names {
		wd, err := ParseWeekday(name)
		if err != nil {
			return err
		}
		out |= 1 << wd
	}
	*d = out
	return nil
}

func parsePreset(s string) (Days, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekdays":
		return Weekdays, nil
	case "weekend":
		return Weekend, nil
	case "everyday", "daily", "all":
		return Everyday, nil
	case "", "none":
		return 0, nil
	}
	wd, err := ParseWeekday(s)
	if err != nil {
		return 0, err
	}
	return DaysOf(wd), nil
}

// ParseWeekday accepts full or three-letter English day names.
func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := strings.ToLower(wd.String())
		if key == full || key == full[:3] {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// Rule is one recurring quiet window: on each enabled day it starts at
// Start (offset from local midnight) and lasts Duration.
type Rule struct {
	ID       string
	Days     Days
	Start    time.Duration
	Duration time.Duration
}

// NewRule returns a rule with a fresh id.
func NewRule(days Days, start, duration time.Duration) Rule {
	return Rule{ID: uuid.NewString(), Days: days, Start: start, Duration: duration}
}

// Covers reports whether now falls inside this rule's window, including a
// window that opened yesterday and runs past midnight. Times are compared
// on the wall clock, so a window keeps its clock hours across daylight
// saving changes.
func (r Rule) Covers(now time.Time) bool {
	if r.Duration <= 0 || r.Days == 0 {
		return false
	}
	tod := util.TimeOfDay(now)
	end := r.Start + r.Duration

	if r.Days.Has(now.AddDate(0, 0, -1).Weekday()) && end > tod+24*time.Hour {
		return true
	}
	return r.Days.Has(now.Weekday()) && r.Start <= tod && tod < end
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %s for %s", r.Days, util.FormatClock(r.Start), r.Duration)
}

// Active reports whether any rule covers now.
func Active(now time.Time, rules []Rule) bool {
	for _, r := range rules {
		if r.Covers(now) {
			return true
		}
	}
	return false
}
