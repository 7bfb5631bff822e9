package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stigoleg/movemouse/internal/config"
	"github.com/stigoleg/movemouse/internal/keepalive"
	"github.com/stigoleg/movemouse/internal/logging"
	"github.com/stigoleg/movemouse/internal/notify"
	"github.com/stigoleg/movemouse/internal/platform"
	"github.com/stigoleg/movemouse/internal/platform/patterns"
	"github.com/stigoleg/movemouse/internal/schedule"
	"github.com/stigoleg/movemouse/internal/server"
	"github.com/stigoleg/movemouse/internal/store"
	"github.com/stigoleg/movemouse/internal/ui"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

const (
	appName        = "movemouse"
	cleanupTimeout = 5 * time.Second
	pruneInterval  = time.Hour
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags, err := config.ParseFlags(appName, args, os.Stderr)
	switch {
	case errors.Is(err, config.ErrVersion):
		fmt.Printf("%s %s\n", appName, version)
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case err != nil:
		fmt.Fprintln(os.Stderr, config.FormatError(err))
		return 2
	}

	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, config.FormatError(err))
	}

	path := flags.ConfigPath
	if path == "" {
		if path, err = config.DefaultPath(); err != nil {
			fmt.Fprintln(os.Stderr, config.FormatError(err))
			return 1
		}
	}
	settings, created, err := config.LoadOrCreate(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, config.FormatError(err))
		return 1
	}
	config.ApplyEnv(settings)
	if err := flags.Apply(settings); err != nil {
		fmt.Fprintln(os.Stderr, config.FormatError(err))
		return 1
	}

	verbosity := logging.NewVerbosity(settings.Log.Level)
	logger, logFile, err := newLogger(settings.Log, verbosity, flags.Headless)
	if err != nil {
		fmt.Fprintln(os.Stderr, config.FormatError(err))
		return 1
	}
	cleanup := keepalive.NewCleanupManager(cleanupTimeout, logger)
	if logFile != nil {
		cleanup.RegisterFunc("log file", logFile.Close)
	}
	defer cleanup.Execute()

	if created {
		logger.Info("wrote default settings", "path", path)
	}
	if err := serve(flags, path, settings, logger, verbosity, cleanup); err != nil {
		logger.Error("movemouse failed", "err", err)
		fmt.Fprintln(os.Stderr, config.FormatError(err))
		return 1
	}
	return 0
}

// serve wires the components together and blocks until the user quits, a
// signal arrives or the -duration deadline passes.
func serve(flags *config.Flags, path string, settings *config.Settings, logger *slog.Logger, verbosity *logging.Verbosity, cleanup *keepalive.CleanupManager) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	goRun := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	sys, err := platform.New(logging.Component(logger, "platform"))
	if err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	cleanup.RegisterFunc("platform", sys.Close)

	a := &app{
		path:      path,
		settings:  settings,
		flags:     *flags,
		logger:    logging.Component(logger, "app"),
		verbosity: verbosity,
		perf: config.Performers{
			Mover:     sys.Mover,
			Activity:  sys.Activity,
			Generator: patterns.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano()))),
			Logger:    logging.Component(logger, "action"),
		},
	}
	if a.runtime, err = settings.Build(a.perf); err != nil {
		return fmt.Errorf("build settings: %w", err)
	}
	a.followLogging(a.runtime.Profiles.Active())

	events := keepalive.NewBroadcaster(64)
	a.keeper = keepalive.New(a.runtime.Snapshot(), keepalive.Options{
		Logger:   logger,
		Idle:     sys.Idle,
		Power:    sys.Power,
		Volume:   sys.Volume,
		Notifier: newNotifier(settings, logger),
		Observer: events,
	})

	var history server.History
	if journal, err := openJournal(ctx, settings, logger); err != nil {
		logger.Warn("activity journal disabled", "err", err)
	} else {
		history = journal
		cleanup.RegisterFunc("journal", journal.Close)
		feed, unsubscribe := events.Subscribe()
		goRun(func() {
			defer unsubscribe()
			journal.Follow(ctx, feed, a.ActiveName, logging.Component(logger, "journal"))
		})
		if retention := settings.Journal.Retention; retention > 0 {
			goRun(func() { pruneJournal(ctx, journal, retention, logger) })
		}
	}
	// Goroutines reading the journal or the platform must end before either
	// is closed.
	cleanup.RegisterFunc("background", func() error {
		cancel()
		wg.Wait()
		return nil
	})

	a.runner = schedule.NewRunner(a.keeper.HandleSchedule, logging.Component(logger, "schedule"), nil)
	a.runner.Sync(a.runtime.Schedules)
	a.runner.Start()
	cleanup.RegisterFunc("schedules", func() error {
		a.runner.Stop()
		return nil
	})

	sessionWatcher := &platform.Watcher{
		Power:   sys.Power,
		Session: sys.Session,
		Logger:  logging.Component(logger, "watcher"),
		OnPower: a.keeper.HandlePowerChange,
		OnLock:  a.keeper.HandleSessionLock,
	}
	goRun(func() { sessionWatcher.Run(ctx) })

	if cw, err := config.NewWatcher(path, logger); err != nil {
		logger.Warn("settings live reload disabled", "err", err)
	} else {
		cleanup.RegisterFunc("settings watcher", cw.Close)
		goRun(func() { cw.Run(ctx, a.Reload) })
	}

	if listen := settings.Server.Listen; listen != "" {
		srv := server.NewServer(listen, settings.Server.Token, server.Deps{
			Keeper:   a.keeper,
			Profiles: a,
			History:  history,
			Events:   events,
		}, logging.Component(logger, "server"))
		goRun(func() { srv.Run(ctx) })
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error("control api stopped", "err", err)
			}
		}()
		cleanup.RegisterFunc("server", func() error {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	// Registered last so it runs first: Stop actions still have every
	// collaborator available.
	cleanup.RegisterFunc("keeper", a.keeper.Close)

	handleSignals(ctx, cancel, a.keeper, logger)

	var deadline time.Time
	if flags.Duration > 0 {
		deadline = time.Now().Add(flags.Duration)
		timer := time.AfterFunc(flags.Duration, func() {
			logger.Info("duration elapsed, stopping", "duration", flags.Duration)
			a.keeper.Stop(keepalive.Idle)
			cancel()
		})
		defer timer.Stop()
	}
	if flags.Start || flags.Duration > 0 {
		a.keeper.Start()
	}

	if flags.Headless {
		logger.Info("running headless", "profile", a.ActiveName(), "mover", sys.Capability.Method)
		<-ctx.Done()
		return nil
	}

	feed, unsubscribe := events.Subscribe()
	defer unsubscribe()
	_, err = ui.Run(ctx, ui.Options{
		Keeper:   a.keeper,
		Profiles: a,
		Events:   feed,
		Deadline: deadline,
		Notice:   sys.Capability.Instructions,
	}, tea.WithAltScreen(), tea.WithoutSignalHandler())
	return err
}

// handleSignals cancels ctx on a shutdown signal. A suspend request only
// stops the simulation.
func handleSignals(ctx context.Context, cancel context.CancelFunc, keeper *keepalive.Keeper, logger *slog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, watchedSignals()...)
	go func() {
		defer signal.Stop(sigCh)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if isSuspend(sig) {
					logger.Info("suspend requested, stopping simulation", "signal", sig)
					keeper.Stop(keepalive.Idle)
					continue
				}
				logger.Info("received signal", "signal", sig)
				cancel()
				return
			}
		}
	}()
}

// newLogger writes to stderr when headless and to a log file otherwise,
// since the terminal belongs to the UI.
func newLogger(cfg config.LogConfig, level slog.Leveler, headless bool) (*slog.Logger, io.Closer, error) {
	if headless && cfg.File == "" {
		return logging.NewWithLevel(level, os.Stderr), nil, nil
	}

	path := cfg.File
	if path == "" {
		dir, err := config.Dir()
		if err != nil {
			return nil, nil, err
		}
		path = filepath.Join(dir, "debug.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	if headless {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return logging.NewWithLevel(level, f), f, nil
	}
	f, err := tea.LogToFile(path, appName)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.NewWithLevel(level, f), f, nil
}

// newNotifier fans notifications out to every configured channel. The log
// notifier is always present so headless runs keep a record.
func newNotifier(s *config.Settings, logger *slog.Logger) keepalive.Notifier {
	notifiers := []notify.Notifier{&notify.LogNotifier{Logger: logging.Component(logger, "notify")}}
	if s.Notifications.Desktop {
		if d, err := notify.NewDesktopNotifier(); err != nil {
			logger.Warn("desktop notifications unavailable", "err", err)
		} else {
			notifiers = append(notifiers, d)
		}
	}
	if s.Notifications.Bark.Enabled {
		if b, err := notify.NewBarkNotifier(s.Notifications.Bark.URL); err != nil {
			logger.Warn("bark notifications unavailable", "err", err)
		} else {
			notifiers = append(notifiers, b)
		}
	}
	return notify.NewMultiNotifier(notifiers...)
}

func openJournal(ctx context.Context, s *config.Settings, logger *slog.Logger) (*store.Store, error) {
	path, err := s.JournalPath()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	logger.Debug("journal opened", "path", path)
	return st, nil
}

func pruneJournal(ctx context.Context, st *store.Store, retention time.Duration, logger *slog.Logger) {
	prune := func() {
		n, err := st.Prune(ctx, time.Now().Add(-retention))
		switch {
		case err != nil && ctx.Err() == nil:
			logger.Warn("journal prune failed", "err", err)
		case n > 0:
			logger.Info("journal pruned", "rows", n)
		}
	}
	prune()
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
