// Package config loads the YAML settings document and converts it into the
// profiles, blackout rules, schedules and keeper snapshot used at runtime.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/stigoleg/movemouse/internal/action"
	"github.com/stigoleg/movemouse/internal/blackout"
	"github.com/stigoleg/movemouse/internal/profile"
	"github.com/stigoleg/movemouse/internal/schedule"
	"github.com/stigoleg/movemouse/internal/util"
)

// ErrNotFound is returned by Load when the settings file does not exist.
var ErrNotFound = errors.New("settings file not found")

const (
	appDir          = "movemouse"
	settingsFile    = "settings.yaml"
	journalFile     = "journal.db"
	defaultLogLevel = "info"

	// Action kinds understood by the settings document.
	KindMove     = "move"
	KindActivity = "activity"
	KindCommand  = "command"
	KindSleep    = "sleep"
)

// idSpace namespaces the ids derived for entries saved without one, so the
// same document always yields the same ids across reloads.
var idSpace = uuid.MustParse("6f1c2f0e-8d3b-4a52-9a57-4b8e0c6d2a10")

// Settings is the top-level settings document.
type Settings struct {
	ActiveProfile string             `yaml:"activeProfile,omitempty"`
	Profiles      []ProfileConfig    `yaml:"profiles"`
	Blackouts     []BlackoutConfig   `yaml:"blackouts,omitempty"`
	Schedules     []ScheduleConfig   `yaml:"schedules,omitempty"`
	Presentation  PresentationConfig `yaml:"presentation"`
	Notifications NotificationConfig `yaml:"notifications"`
	Server        ServerConfig       `yaml:"server"`
	Log           LogConfig          `yaml:"log"`
	Journal       JournalConfig      `yaml:"journal"`
}

// ProfileConfig is the stored form of a profile.
type ProfileConfig struct {
	ID                  string         `yaml:"id,omitempty"`
	Name                string         `yaml:"name"`
	LowerInterval       int            `yaml:"lowerInterval"`
	UpperInterval       int            `yaml:"upperInterval"`
	RandomInterval      bool           `yaml:"randomInterval,omitempty"`
	AutoPause           bool           `yaml:"autoPause,omitempty"`
	AutoResume          bool           `yaml:"autoResume,omitempty"`
	AutoResumeSeconds   int            `yaml:"autoResumeSeconds,omitempty"`
	AdjustRunningVolume bool           `yaml:"adjustRunningVolume,omitempty"`
	RunningVolume       int            `yaml:"runningVolume,omitempty"`
	ActiveWhenLocked    bool           `yaml:"activeWhenLocked,omitempty"`
	PauseOnBattery      bool           `yaml:"pauseOnBattery,omitempty"`
	EnableLogging       bool           `yaml:"enableLogging,omitempty"`
	Actions             []ActionConfig `yaml:"actions"`
}

// ActionConfig is the stored form of an action. Kind selects which of the
// kind specific fields apply.
type ActionConfig struct {
	ID         string            `yaml:"id,omitempty"`
	Name       string            `yaml:"name,omitempty"`
	Kind       string            `yaml:"kind"`
	Enabled    *bool             `yaml:"enabled,omitempty"`
	Trigger    action.Trigger    `yaml:"trigger"`
	Repeat     bool              `yaml:"repeat,omitempty"`
	RepeatMode action.RepeatMode `yaml:"repeatMode"`
	Throttle   int               `yaml:"throttle,omitempty"`

	// move
	Shape   string  `yaml:"shape,omitempty"`
	MinSize float64 `yaml:"minSize,omitempty"`
	MaxSize float64 `yaml:"maxSize,omitempty"`

	// command
	Command string        `yaml:"command,omitempty"`
	Args    []string      `yaml:"args,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// sleep
	Duration time.Duration `yaml:"duration,omitempty"`
}

// BlackoutConfig is the stored form of a blackout rule.
type BlackoutConfig struct {
	ID       string        `yaml:"id,omitempty"`
	Days     blackout.Days `yaml:"days"`
	Start    string        `yaml:"start"`
	Duration time.Duration `yaml:"duration"`
}

// ScheduleConfig is the stored form of a cron schedule.
type ScheduleConfig struct {
	ID      string          `yaml:"id,omitempty"`
	Action  schedule.Action `yaml:"action"`
	Cron    string          `yaml:"cron"`
	Enabled *bool           `yaml:"enabled,omitempty"`
}

// PresentationConfig holds the window behaviour flags.
type PresentationConfig struct {
	ActivateOnStart      bool `yaml:"activateOnStart,omitempty"`
	MinimiseOnStop       bool `yaml:"minimiseOnStop,omitempty"`
	HideFromTaskSwitcher bool `yaml:"hideFromTaskSwitcher,omitempty"`
}

// NotificationConfig selects where notifications go.
type NotificationConfig struct {
	Disabled bool       `yaml:"disabled,omitempty"`
	Desktop  bool       `yaml:"desktop"`
	Bark     BarkConfig `yaml:"bark,omitempty"`
}

// BarkConfig holds Bark push settings.
type BarkConfig struct {
	URL     string `yaml:"url,omitempty"`
	Enabled bool   `yaml:"enabled,omitempty"`
}

// ServerConfig holds the control API settings. An empty Listen disables it.
type ServerConfig struct {
	Listen string `yaml:"listen,omitempty"`
	Token  string `yaml:"token,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
	File  string `yaml:"file,omitempty"`
}

// JournalConfig holds the activity journal settings. An empty Path disables
// the journal.
type JournalConfig struct {
	Path      string        `yaml:"path,omitempty"`
	Retention time.Duration `yaml:"retention,omitempty"`
}

// Dir returns the directory holding the settings file and journal,
// honouring XDG_CONFIG_HOME.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, appDir), nil
}

// DefaultPath returns the default settings file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, settingsFile), nil
}

// Default returns the settings written on first run: one profile with a
// single cursor jiggle repeating forever.
func Default() *Settings {
	s := &Settings{
		Profiles: []ProfileConfig{{
			Name:              "Default",
			LowerInterval:     profile.DefaultLowerInterval,
			UpperInterval:     profile.DefaultUpperInterval,
			AutoResumeSeconds: profile.DefaultAutoResumeSeconds,
			RunningVolume:     profile.DefaultRunningVolume,
			Actions: []ActionConfig{{
				Name:       "Jiggle",
				Kind:       KindMove,
				Trigger:    action.TriggerInterval,
				Repeat:     true,
				RepeatMode: action.RepeatForever,
				Shape:      "nudge",
			}},
		}},
		Notifications: NotificationConfig{Desktop: true},
		Log:           LogConfig{Level: defaultLogLevel},
	}
	s.applyDefaults()
	return s
}

// Load reads and validates the settings document at path.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadOrCreate loads path, writing Default to it first when it is missing.
// created reports whether the file was written.
func LoadOrCreate(path string) (s *Settings, created bool, err error) {
	s, err = Load(path)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return s, false, err
	}
	s = Default()
	if err := Save(path, s); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// Save writes s to path, replacing the file atomically.
func Save(path string, s *Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

func (s *Settings) applyDefaults() {
	if s.Log.Level == "" {
		s.Log.Level = defaultLogLevel
	}
	for i := range s.Profiles {
		p := &s.Profiles[i]
		if p.ID == "" {
			p.ID = derivedID("profile", p.Name)
		}
		if p.LowerInterval == 0 && p.UpperInterval == 0 {
			p.LowerInterval = profile.DefaultLowerInterval
			p.UpperInterval = profile.DefaultUpperInterval
		}
		if p.AutoResumeSeconds == 0 {
			p.AutoResumeSeconds = profile.DefaultAutoResumeSeconds
		}
		for j := range p.Actions {
			a := &p.Actions[j]
			if a.ID == "" {
				a.ID = derivedID("action", p.ID, fmt.Sprint(j), a.Kind, a.Name)
			}
		}
	}
	for i := range s.Blackouts {
		b := &s.Blackouts[i]
		if b.ID == "" {
			b.ID = derivedID("blackout", fmt.Sprint(i), b.Days.String(), b.Start, b.Duration.String())
		}
	}
	for i := range s.Schedules {
		sc := &s.Schedules[i]
		if sc.ID == "" {
			sc.ID = derivedID("schedule", fmt.Sprint(i), sc.Action.String(), sc.Cron)
		}
	}
}

func derivedID(parts ...string) string {
	return uuid.NewSHA1(idSpace, []byte(strings.Join(parts, "\x00"))).String()
}

// Validate performs basic sanity checks.
func (s *Settings) Validate() error {
	if len(s.Profiles) == 0 {
		return fmt.Errorf("settings must define at least one profile")
	}
	names := map[string]struct{}{}
	ids := map[string]struct{}{}
	for i, p := range s.Profiles {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return fmt.Errorf("profile %d: name is required", i)
		}
		key := strings.ToLower(name)
		if _, exists := names[key]; exists {
			return fmt.Errorf("duplicate profile %q", name)
		}
		names[key] = struct{}{}
		if _, exists := ids[p.ID]; exists {
			return fmt.Errorf("duplicate profile id %q", p.ID)
		}
		ids[p.ID] = struct{}{}
		if p.LowerInterval < 0 || p.UpperInterval < 0 {
			return fmt.Errorf("profile %q: intervals cannot be negative", name)
		}
		if p.AutoResumeSeconds < 0 {
			return fmt.Errorf("profile %q: autoResumeSeconds cannot be negative", name)
		}
		for j, a := range p.Actions {
			if err := a.validate(); err != nil {
				return fmt.Errorf("profile %q action %d: %w", name, j, err)
			}
		}
	}
	if s.ActiveProfile != "" && s.profileIndex(s.ActiveProfile) < 0 {
		return fmt.Errorf("active profile %q is not defined", s.ActiveProfile)
	}
	for i, b := range s.Blackouts {
		if _, err := b.rule(); err != nil {
			return fmt.Errorf("blackout %d: %w", i, err)
		}
	}
	for i, sc := range s.Schedules {
		if _, err := schedule.ParseCron(sc.Cron); err != nil {
			return fmt.Errorf("schedule %d: %w", i, err)
		}
	}
	if s.Journal.Retention < 0 {
		return fmt.Errorf("journal.retention cannot be negative")
	}
	return nil
}

func (a ActionConfig) validate() error {
	if a.Throttle < 0 {
		return fmt.Errorf("throttle cannot be negative")
	}
	switch a.Kind {
	case KindMove:
		if _, err := parseShape(a.Shape); err != nil {
			return err
		}
		if a.MinSize < 0 || a.MaxSize < 0 {
			return fmt.Errorf("move sizes cannot be negative")
		}
	case KindActivity:
	case KindCommand:
		if strings.TrimSpace(a.Command) == "" {
			return fmt.Errorf("command is required")
		}
		if a.Timeout < 0 {
			return fmt.Errorf("timeout cannot be negative")
		}
	case KindSleep:
		if a.Duration <= 0 {
			return fmt.Errorf("sleep duration must be positive")
		}
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
	return nil
}

func (b BlackoutConfig) rule() (blackout.Rule, error) {
	start, err := util.ParseClock(b.Start)
	if err != nil {
		return blackout.Rule{}, err
	}
	if b.Duration <= 0 || b.Duration > 24*time.Hour {
		return blackout.Rule{}, fmt.Errorf("duration must be between 0 and 24h, got %s", b.Duration)
	}
	if b.Days == 0 {
		return blackout.Rule{}, fmt.Errorf("at least one day is required")
	}
	return blackout.Rule{ID: b.ID, Days: b.Days, Start: start, Duration: b.Duration}, nil
}

// profileIndex finds a profile by id or case-insensitive name.
func (s *Settings) profileIndex(ref string) int {
	for i, p := range s.Profiles {
		if p.ID == ref || strings.EqualFold(p.Name, ref) {
			return i
		}
	}
	return -1
}

// SetActiveProfile records ref (id or name) as the active profile.
func (s *Settings) SetActiveProfile(ref string) error {
	i := s.profileIndex(ref)
	if i < 0 {
		return fmt.Errorf("%w: %s", profile.ErrUnknownProfile, ref)
	}
	s.ActiveProfile = s.Profiles[i].ID
	return nil
}

// JournalPath returns the configured journal path or the default next to
// the settings file.
func (s *Settings) JournalPath() (string, error) {
	if s.Journal.Path != "" {
		return s.Journal.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, journalFile), nil
}

// NewProfile returns a profile entry named name with a fresh id. When from
// is set the entry copies that profile's settings and actions, otherwise it
// starts from the defaults. The entry is not added to s.
func (s *Settings) NewProfile(name, from string) (ProfileConfig, error) {
	pc := ProfileConfig{
		LowerInterval:     profile.DefaultLowerInterval,
		UpperInterval:     profile.DefaultUpperInterval,
		AutoResumeSeconds: profile.DefaultAutoResumeSeconds,
		RunningVolume:     profile.DefaultRunningVolume,
	}
	if from != "" {
		i := s.profileIndex(from)
		if i < 0 {
			return ProfileConfig{}, fmt.Errorf("%w: %s", profile.ErrUnknownProfile, from)
		}
		pc = s.Profiles[i]
		pc.Actions = slices.Clone(pc.Actions)
		for j := range pc.Actions {
			pc.Actions[j].ID = uuid.NewString()
		}
	}
	pc.ID = uuid.NewString()
	pc.Name = strings.TrimSpace(name)
	return pc, nil
}

// AddProfile appends pc. Names and ids must be unique.
func (s *Settings) AddProfile(pc ProfileConfig) error {
	if strings.TrimSpace(pc.Name) == "" {
		return fmt.Errorf("profile name is required")
	}
	for _, p := range s.Profiles {
		if p.ID == pc.ID || strings.EqualFold(p.Name, pc.Name) {
			return fmt.Errorf("%w: %q", profile.ErrDuplicateProfile, pc.Name)
		}
	}
	s.Profiles = append(s.Profiles, pc)
	return nil
}

// RemoveProfile deletes the profile named by ref. Removing the active
// profile makes the first remaining one active.
func (s *Settings) RemoveProfile(ref string) error {
	i := s.profileIndex(ref)
	if i < 0 {
		return fmt.Errorf("%w: %s", profile.ErrUnknownProfile, ref)
	}
	if len(s.Profiles) == 1 {
		return profile.ErrLastProfile
	}
	wasActive := s.ActiveProfile != "" && s.profileIndex(s.ActiveProfile) == i
	s.Profiles = slices.Delete(s.Profiles, i, i+1)
	if wasActive {
		s.ActiveProfile = s.Profiles[0].ID
	}
	return nil
}

// RenameProfile renames the profile named by ref. An activeProfile that
// referred to the old name is rewritten to the id.
func (s *Settings) RenameProfile(ref, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("profile name is required")
	}
	i := s.profileIndex(ref)
	if i < 0 {
		return fmt.Errorf("%w: %s", profile.ErrUnknownProfile, ref)
	}
	for j, p := range s.Profiles {
		if j != i && strings.EqualFold(p.Name, name) {
			return fmt.Errorf("%w: %q", profile.ErrDuplicateProfile, name)
		}
	}
	if s.ActiveProfile != "" && s.profileIndex(s.ActiveProfile) == i {
		s.ActiveProfile = s.Profiles[i].ID
	}
	s.Profiles[i].Name = name
	return nil
}
