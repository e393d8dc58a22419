package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"baobab/src/render"
)

// ProgramDisplay forwards descriptors to a running Bubble Tea program.
type ProgramDisplay struct {
	program *tea.Program
}

func NewProgramDisplay(p *tea.Program) *ProgramDisplay {
	return &ProgramDisplay{program: p}
}

// Render implements render.Display. It never fails; after the program exits the descriptor is dropped.
func (d *ProgramDisplay) Render(desc render.Descriptor) error {
	d.program.Send(SnapshotMsg(desc))
	return nil
}

// WatchFunc runs a watch that draws on display and returns when it is over.
type WatchFunc func(ctx context.Context, display render.Display) error

// Run shows the watch view while watch runs in the background. Quitting the
// view cancels the watch; the watch finishing quits the view. It returns the
// watch's error.
func Run(ctx context.Context, buildURL string, watch WatchFunc) error {
	_, err := run(ctx, NewWatchModel(buildURL), watch)
	return err
}

func run(ctx context.Context, model WatchModel, watch WatchFunc, opts ...tea.ProgramOption) (WatchModel, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(model, opts...)

	watchErr := make(chan error, 1)
	go func() {
		err := watch(ctx, NewProgramDisplay(p))
		p.Send(DoneMsg{Err: err})
		watchErr <- err
	}()

	final, runErr := p.Run()
	cancel()
	err := <-watchErr

	if runErr != nil {
		return model, fmt.Errorf("TUI error: %w", runErr)
	}

	finalModel, ok := final.(WatchModel)
	if !ok {
		return model, err
	}
	return finalModel, err
}
