package ui

import (
	"fmt"
	"strings"

	"github.com/stigoleg/movemouse/internal/action"
	"github.com/stigoleg/movemouse/internal/keepalive"
	"github.com/stigoleg/movemouse/internal/util"
)

// View renders the current state of the model to a string.
func View(m Model) string {
	if m.quitting {
		return ""
	}
	if m.ShowHelp {
		return helpView(m)
	}
	return statusView(m)
}

func statusView(m Model) string {
	var b strings.Builder

	b.WriteString(Current.Title.Render("Move Mouse"))
	b.WriteString("\n\n")

	style, caption := badge(m.Status.State)
	b.WriteString(" " + style.Render(caption) + " " + describe(m.Status.State))
	b.WriteString("\n\n")

	name := m.Status.Profile
	if m.Profile != nil {
		name = m.Profile.Name
	}
	b.WriteString(Current.Label.Render("Profile") + Current.Value.Render(name))
	if m.Profile != nil {
		b.WriteString(Current.Label.Render(intervalText(m.Profile.LowerInterval(), m.Profile.UpperInterval(), m.Profile.RandomInterval)))
	}
	b.WriteString("\n")

	if m.Status.State == keepalive.Running && !m.Status.ExecutionTime.IsZero() {
		b.WriteString(Current.Label.Render("Next run in") + Current.Countdown.Render(util.FormatCountdown(m.NextExecution())))
		b.WriteString("\n")
	}
	if !m.opts.Deadline.IsZero() {
		b.WriteString(Current.Label.Render("Stops in") + Current.Countdown.Render(util.FormatCountdown(m.TimeRemaining())))
		b.WriteString("\n")
	}
	if m.Status.Health == keepalive.SimulationHealthFailed {
		b.WriteString(Current.Error.Render("The last run had failing actions, see the log"))
		b.WriteString("\n")
	}

	if m.Profile != nil && len(m.Profile.Actions) > 0 {
		b.WriteString("\n" + Current.Label.Render("Actions") + "\n")
		for _, a := range m.Profile.Actions {
			b.WriteString(actionLine(a) + "\n")
		}
	}

	if m.LastMessage != "" {
		b.WriteString("\n" + Current.Message.Render(fmt.Sprintf("%s  %s", m.LastAt.Format("15:04:05"), m.LastMessage)))
		b.WriteString("\n")
	}
	if m.opts.Notice != "" {
		b.WriteString("\n" + Current.Help.Render(m.opts.Notice) + "\n")
	}
	if m.ErrorMessage != "" {
		b.WriteString("\n" + Current.Error.Render(m.ErrorMessage) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func intervalText(lower, upper int, random bool) string {
	if random && upper > lower {
		return fmt.Sprintf("every %d-%ds", lower, upper)
	}
	return fmt.Sprintf("every %ds", lower)
}

func actionLine(a action.Action) string {
	line := fmt.Sprintf("  • %s (%s, %s)", a.Label(), a.Trigger, repeatText(a))
	switch {
	case !a.Enabled:
		return Current.DisabledItem.Render(line)
	case !a.Valid():
		return Current.Error.Render(line + " not configured")
	}
	return line
}

func repeatText(a action.Action) string {
	if a.Trigger != action.TriggerInterval || !a.Repeat {
		return "once"
	}
	switch a.RepeatMode {
	case action.RepeatForever:
		return "forever"
	case action.RepeatThrottle:
		return fmt.Sprintf("up to %d times", a.Throttle)
	}
	return "once"
}

func helpView(m Model) string {
	help := `Move Mouse Help

Move Mouse keeps the session active by running the active profile's
actions on an interval. It pauses while you are using the machine,
sleeps through blackout windows and waits while on battery or locked
when the profile asks it to.

Usage:
  movemouse [flags]

Flags:
  -config string      Path to the settings file
  -profile string     Profile to activate
  -d, -duration       Stop automatically after this long (e.g., "2h30m")
  -start              Start simulating immediately
  -headless           Run without this screen
  -listen string      Serve the control API on this address
  -v, -version        Show version information
`
	return Current.Help.Render(help) + "\n" + m.help.View(m.keys)
}
