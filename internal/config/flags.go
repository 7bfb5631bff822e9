package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/stigoleg/movemouse/internal/ui"
	"github.com/stigoleg/movemouse/internal/util"
)

// ErrVersion is returned by ParseFlags when -version was requested.
var ErrVersion = errors.New("version requested")

// Flags holds the command line options. Zero values mean "not given" and
// leave the settings file and environment untouched.
type Flags struct {
	ConfigPath string
	Profile    string
	LogLevel   string
	LogFile    string
	Listen     string
	Headless   bool
	Start      bool
	Duration   time.Duration
}

// FormatError renders err for the terminal, giving duration errors the
// boxed layout used by the help screen.
func FormatError(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "invalid duration format:") {
		parts := strings.SplitN(msg, "\n\n", 2)
		if len(parts) == 2 {
			errorBox := ui.Current.Help.
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#FF4040"))

			header := lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FF4040")).
				Render(parts[0])

			details := lipgloss.NewStyle().
				Foreground(lipgloss.Color("#999999")).
				Render(parts[1])

			return errorBox.Render(fmt.Sprintf("%s\n\n%s", header, details))
		}
	}
	return ui.Current.Error.Render(msg)
}

// NewFlagSet declares every flag on a new set and returns it with the
// destination Flags. Exposed for cmd/gen-docs.
func NewFlagSet(name string, out io.Writer) (*flag.FlagSet, *Flags, *string, *bool) {
	f := &Flags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&f.ConfigPath, "config", "", "Path to the settings file")
	fs.StringVar(&f.Profile, "profile", "", "Profile to activate (id or name)")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Write logs to this file")
	fs.StringVar(&f.Listen, "listen", "", "Control API listen address (e.g. \"127.0.0.1:7071\")")
	fs.BoolVar(&f.Headless, "headless", false, "Run without the terminal UI")
	fs.BoolVar(&f.Start, "start", false, "Start simulating immediately")

	duration := fs.String("duration", "", "Stop automatically after this long (e.g., \"2h30m\")")
	fs.StringVar(duration, "d", "", "Stop automatically after this long (e.g., \"2h30m\")")
	showVersion := fs.Bool("version", false, "Show version information")
	fs.BoolVar(showVersion, "v", false, "Show version information")

	fs.Usage = func() {
		fmt.Fprintln(out, ui.Current.Title.Render("movemouse"))
		fmt.Fprintln(out, ui.Current.Help.Render("Usage: "+name+" [flags]"))
		fs.PrintDefaults()
	}
	return fs, f, duration, showVersion
}

// ParseFlags parses args (without the program name). It returns
// flag.ErrHelp for -h and ErrVersion for -version.
func ParseFlags(name string, args []string, out io.Writer) (*Flags, error) {
	fs, f, duration, showVersion := NewFlagSet(name, out)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if *showVersion {
		return f, ErrVersion
	}
	if *duration != "" {
		d, err := util.ParseDuration(*duration)
		if err != nil {
			return nil, err
		}
		f.Duration = d
	}
	return f, nil
}

// Apply overrides s with the flags that were given.
func (f *Flags) Apply(s *Settings) error {
	if f.LogLevel != "" {
		s.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		s.Log.File = f.LogFile
	}
	if f.Listen != "" {
		s.Server.Listen = f.Listen
	}
	if f.Profile != "" {
		if err := s.SetActiveProfile(f.Profile); err != nil {
			return err
		}
	}
	return nil
}
