package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/stigoleg/movemouse/internal/action"
	"github.com/stigoleg/movemouse/internal/blackout"
	"github.com/stigoleg/movemouse/internal/keepalive"
	"github.com/stigoleg/movemouse/internal/platform"
	"github.com/stigoleg/movemouse/internal/platform/patterns"
	"github.com/stigoleg/movemouse/internal/profile"
	"github.com/stigoleg/movemouse/internal/schedule"
)

// Performers supplies the platform collaborators concrete actions run on.
type Performers struct {
	Mover     platform.Mover
	Activity  platform.ActivitySimulator
	Generator *patterns.Generator
	Logger    *slog.Logger
}

// Runtime is the settings document converted into live objects.
type Runtime struct {
	Profiles  *profile.Manager
	Blackouts []blackout.Rule
	Schedules []schedule.Schedule

	Presentation         PresentationConfig
	DisableNotifications bool
}

// Build converts s into runtime objects. Actions are bound to the
// collaborators in perf.
func (s *Settings) Build(perf Performers) (*Runtime, error) {
	profiles := make([]*profile.Profile, 0, len(s.Profiles))
	for _, pc := range s.Profiles {
		p, err := pc.Build(perf)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	mgr := profile.NewManager(profiles...)
	if s.ActiveProfile != "" {
		if _, err := mgr.SetActive(s.ActiveProfile); err != nil {
			return nil, err
		}
	}

	rules := make([]blackout.Rule, 0, len(s.Blackouts))
	for i, bc := range s.Blackouts {
		r, err := bc.rule()
		if err != nil {
			return nil, fmt.Errorf("blackout %d: %w", i, err)
		}
		rules = append(rules, r)
	}

	schedules := make([]schedule.Schedule, 0, len(s.Schedules))
	for _, sc := range s.Schedules {
		schedules = append(schedules, schedule.Schedule{
			ID:      sc.ID,
			Action:  sc.Action,
			Cron:    sc.Cron,
			Enabled: sc.Enabled == nil || *sc.Enabled,
		})
	}

	return &Runtime{
		Profiles:             mgr,
		Blackouts:            rules,
		Schedules:            schedules,
		Presentation:         s.Presentation,
		DisableNotifications: s.Notifications.Disabled,
	}, nil
}

// Snapshot returns the keeper configuration for the active profile.
func (r *Runtime) Snapshot() keepalive.Snapshot {
	return keepalive.Snapshot{
		Profile:              r.Profiles.Active(),
		Blackouts:            r.Blackouts,
		ActivateOnStart:      r.Presentation.ActivateOnStart,
		MinimiseOnStop:       r.Presentation.MinimiseOnStop,
		HideFromTaskSwitcher: r.Presentation.HideFromTaskSwitcher,
		DisableNotifications: r.DisableNotifications,
	}
}

// Build converts the entry into a profile whose actions are bound to the
// collaborators in perf.
func (pc ProfileConfig) Build(perf Performers) (*profile.Profile, error) {
	p := profile.New(strings.TrimSpace(pc.Name))
	p.ID = pc.ID
	p.SetIntervals(pc.LowerInterval, pc.UpperInterval)
	p.RandomInterval = pc.RandomInterval
	p.AutoPause = pc.AutoPause
	p.AutoResume = pc.AutoResume
	p.AutoResumeSeconds = pc.AutoResumeSeconds
	p.AdjustRunningVolume = pc.AdjustRunningVolume
	p.RunningVolume = pc.RunningVolume
	p.ActiveWhenLocked = pc.ActiveWhenLocked
	p.PauseOnBattery = pc.PauseOnBattery
	p.EnableLogging = pc.EnableLogging

	for i, ac := range pc.Actions {
		performer, err := ac.performer(perf)
		if err != nil {
			return nil, fmt.Errorf("profile %q action %d: %w", pc.Name, i, err)
		}
		p.Actions = append(p.Actions, action.Action{
			ID:         ac.ID,
			Name:       ac.Name,
			Enabled:    ac.Enabled == nil || *ac.Enabled,
			Trigger:    ac.Trigger,
			Repeat:     ac.Repeat,
			RepeatMode: ac.RepeatMode,
			Throttle:   ac.Throttle,
			Performer:  performer,
		})
	}
	return p, nil
}

// performer binds an action to its collaborator. A missing collaborator
// yields a performer that reports itself invalid, so the action is skipped
// rather than failing the whole document.
func (ac ActionConfig) performer(perf Performers) (action.Performer, error) {
	switch ac.Kind {
	case KindMove:
		shape, err := parseShape(ac.Shape)
		if err != nil {
			return nil, err
		}
		return &action.Move{
			Mover:     perf.Mover,
			Generator: perf.Generator,
			Shape:     shape,
			MinSize:   ac.MinSize,
			MaxSize:   ac.MaxSize,
		}, nil
	case KindActivity:
		return &action.Activity{Simulator: perf.Activity}, nil
	case KindCommand:
		return &action.Command{Path: ac.Command, Args: ac.Args, Timeout: ac.Timeout, Logger: perf.Logger}, nil
	case KindSleep:
		return &action.Sleep{Duration: ac.Duration}, nil
	}
	return nil, fmt.Errorf("unknown action kind %q", ac.Kind)
}

func parseShape(name string) (patterns.Shape, error) {
	return patterns.ParseShape(strings.ToLower(strings.TrimSpace(name)))
}
