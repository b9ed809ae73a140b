package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/servup/servup/internal/notify"
)

// App wraps the bubbletea program together with the background
// reconciliation loop.
type App struct {
	deps    Deps
	program *tea.Program
}

// New creates the dashboard application.
func New(deps Deps) *App {
	return &App{deps: deps}
}

// Run starts the reconciliation loop and blocks in the dashboard until
// the user quits. Loop and bus subscription are torn down on exit.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.program = tea.NewProgram(NewModel(a.deps), tea.WithAltScreen())

	subID := a.deps.Bus.SubscribeAll(func(e notify.Event) {
		a.program.Send(busMsg{event: e})
	})
	defer a.deps.Bus.Unsubscribe(subID)

	loopDone := make(chan struct{})
	go func() {
		a.deps.Loop.Run(ctx)
		close(loopDone)
	}()

	_, err := a.program.Run()
	cancel()
	<-loopDone
	return err
}
