package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the status screen until the user quits or ctx is done.
// quit reports whether the user asked to leave.
func Run(ctx context.Context, opts Options, programOpts ...tea.ProgramOption) (quit bool, err error) {
	programOpts = append(programOpts, tea.WithContext(ctx))
	p := tea.NewProgram(NewModel(opts), programOpts...)
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return false, nil
		}
		return false, err
	}
	if m, ok := final.(Model); ok {
		return m.Quitting(), nil
	}
	return true, nil
}
