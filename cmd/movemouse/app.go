package main

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/stigoleg/movemouse/internal/config"
	"github.com/stigoleg/movemouse/internal/keepalive"
	"github.com/stigoleg/movemouse/internal/logging"
	"github.com/stigoleg/movemouse/internal/profile"
	"github.com/stigoleg/movemouse/internal/schedule"
)

// app owns the settings document and keeps the keeper, the schedule runner
// and the settings file in step with it.
type app struct {
	mu       sync.Mutex
	path     string
	settings *config.Settings
	flags    config.Flags
	runtime  *config.Runtime
	perf     config.Performers
	// chosen is the profile picked in this process. It outranks the
	// environment and -profile on reload.
	chosen string

	keeper    *keepalive.Keeper
	runner    *schedule.Runner
	logger    *slog.Logger
	verbosity *logging.Verbosity
}

// Profiles returns every configured profile in document order.
func (a *app) Profiles() []*profile.Profile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runtime.Profiles.Profiles()
}

// Active returns the active profile.
func (a *app) Active() *profile.Profile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runtime.Profiles.Active()
}

// ActiveName names the active profile for the journal.
func (a *app) ActiveName() string {
	return a.Active().Name
}

// Activate switches to the profile named by ref (id or name) and persists
// the choice.
func (a *app) Activate(ref string) (*profile.Profile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, err := a.runtime.Profiles.SetActive(ref)
	if err != nil {
		return nil, err
	}
	a.switched(p)
	return p, nil
}

// Cycle activates the profile delta positions away from the active one.
func (a *app) Cycle(delta int) (*profile.Profile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.runtime.Profiles.Cycle(delta)
	a.switched(p)
	return p, nil
}

// Create adds a profile named name, copying the settings and actions of
// from when it is set, and saves it to the settings file.
func (a *app) Create(name, from string) (*profile.Profile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var pc config.ProfileConfig
	err := a.persist(func(doc *config.Settings) error {
		var err error
		if pc, err = doc.NewProfile(name, from); err != nil {
			return err
		}
		return doc.AddProfile(pc)
	})
	if err != nil {
		return nil, err
	}
	p, err := pc.Build(a.perf)
	if err != nil {
		return nil, err
	}
	if err := a.runtime.Profiles.Add(p); err != nil {
		return nil, err
	}
	if err := a.settings.AddProfile(pc); err != nil {
		a.logger.Warn("settings out of step with file", "err", err)
	}
	a.logger.Info("profile created", "profile", p.Name)
	return p, nil
}

// Remove deletes the profile named by ref. Removing the active profile
// activates the first remaining one.
func (a *app) Remove(ref string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	target, err := a.runtime.Profiles.Get(ref)
	if err != nil {
		return err
	}
	wasActive := a.runtime.Profiles.Active().ID == target.ID
	if err := a.persist(func(doc *config.Settings) error { return doc.RemoveProfile(target.ID) }); err != nil {
		return err
	}
	if err := a.runtime.Profiles.Remove(target.ID); err != nil {
		return err
	}
	if err := a.settings.RemoveProfile(target.ID); err != nil {
		a.logger.Warn("settings out of step with file", "err", err)
	}
	a.logger.Info("profile removed", "profile", target.Name)
	if wasActive {
		a.activated(a.runtime.Profiles.Active())
	}
	return nil
}

// Rename renames the profile named by ref. The keeper is handed the renamed
// copy when it is the active profile.
func (a *app) Rename(ref, name string) (*profile.Profile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	target, err := a.runtime.Profiles.Get(ref)
	if err != nil {
		return nil, err
	}
	if err := a.persist(func(doc *config.Settings) error { return doc.RenameProfile(target.ID, name) }); err != nil {
		return nil, err
	}
	p, err := a.runtime.Profiles.Rename(target.ID, name)
	if err != nil {
		return nil, err
	}
	if err := a.settings.RenameProfile(target.ID, name); err != nil {
		a.logger.Warn("settings out of step with file", "err", err)
	}
	a.logger.Info("profile renamed", "from", target.Name, "to", p.Name)
	if a.runtime.Profiles.Active().ID == p.ID {
		a.keeper.Apply(a.runtime.Snapshot())
		a.followLogging(p)
	}
	return p, nil
}

// switched applies the new active profile and saves it. A save failure only
// costs persistence, so it is logged. Callers hold mu.
func (a *app) switched(p *profile.Profile) {
	a.activated(p)
	if err := a.persist(func(doc *config.Settings) error { return doc.SetActiveProfile(p.ID) }); err != nil {
		a.logger.Warn("saving active profile failed", "err", err)
	}
}

// activated hands the keeper the active profile p. Callers hold mu.
func (a *app) activated(p *profile.Profile) {
	a.keeper.Apply(a.runtime.Snapshot())
	a.followLogging(p)
	a.logger.Info("profile activated", "profile", p.Name)
	a.settings.ActiveProfile = p.ID
	a.chosen = p.ID
}

// followLogging drops the log level to debug while the active profile has
// detailed logging enabled.
func (a *app) followLogging(p *profile.Profile) {
	if a.verbosity != nil {
		a.verbosity.SetDebug(p.EnableLogging)
	}
}

// persist applies edit to the settings file as stored, leaving out the
// environment and flag overrides held in a.settings, and writes it back.
func (a *app) persist(edit func(doc *config.Settings) error) error {
	doc, err := config.Load(a.path)
	if err != nil {
		return err
	}
	if err := edit(doc); err != nil {
		return err
	}
	return config.Save(a.path, doc)
}

// Reload replaces the settings after the file changed on disk. Environment
// and flag overrides are applied again so they keep precedence.
func (a *app) Reload(s *config.Settings) {
	if err := a.reload(s); err != nil {
		a.logger.Error("settings reload rejected", "err", err)
		return
	}
	a.logger.Info("settings reloaded", "profile", a.ActiveName())
}

func (a *app) reload(s *config.Settings) error {
	a.mu.Lock()
	flags, chosen := a.flags, a.chosen
	a.mu.Unlock()

	config.ApplyEnv(s)
	if err := flags.Apply(s); err != nil {
		return err
	}
	missing := false
	if chosen != "" {
		missing = s.SetActiveProfile(chosen) != nil
	}
	rt, err := s.Build(a.perf)
	if err != nil {
		return fmt.Errorf("build settings: %w", err)
	}
	if missing {
		a.logger.Warn("chosen profile no longer exists", "profile", chosen, "available", rt.Profiles.Names())
	}

	a.mu.Lock()
	a.settings = s
	a.runtime = rt
	a.mu.Unlock()

	a.keeper.Apply(rt.Snapshot())
	if a.verbosity != nil {
		a.verbosity.SetBase(s.Log.Level)
	}
	a.followLogging(rt.Profiles.Active())
	if a.runner != nil {
		a.runner.Sync(rt.Schedules)
	}
	return nil
}
