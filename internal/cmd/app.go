package cmd

import (
	"fmt"
	"time"

	"github.com/servup/servup/internal/config"
	"github.com/servup/servup/internal/launcher"
	"github.com/servup/servup/internal/lifecycle"
	"github.com/servup/servup/internal/logging"
	"github.com/servup/servup/internal/notify"
	"github.com/servup/servup/internal/probe"
	"github.com/servup/servup/internal/project"
	"github.com/servup/servup/internal/reconcile"
)

// app is the assembled engine every command runs against.
type app struct {
	cfg        *config.Config
	logger     *logging.Logger
	store      *project.Store
	launcher   *launcher.Launcher
	bus        *notify.Bus
	desktop    *notify.Desktop
	controller *lifecycle.Controller
	reconciler *reconcile.Reconciler
	loop       *reconcile.Loop
}

// newApp loads configuration and wires the engine together.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	stateDir := config.StateDir()
	var logger *logging.Logger
	if cfg.Logging.Enabled {
		logger, err = logging.NewLogger(stateDir, cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("failed to open log: %w", err)
		}
	} else {
		logger = logging.NopLogger()
	}

	store, err := project.OpenStore(stateDir)
	if err != nil {
		logger.Close()
		return nil, err
	}

	bus := notify.NewBus(logger)
	desktop := notify.NewDesktop(bus, logger)
	if cfg.Notifications.Desktop {
		desktop.Enable()
	}

	launch := launcher.New(cfg.Launcher.Bin, logger)
	ports := probe.NewPortProbe()
	web := probe.NewHTTPProbe()

	controller := lifecycle.NewController(store, launch, ports, web, bus, logger)
	controller.SetGraceTimeout(time.Duration(cfg.Lifecycle.GraceTimeoutSeconds) * time.Second)
	controller.SetBufferCap(cfg.Lifecycle.OutputBufferLines)

	reconciler := reconcile.New(store, launch, web, controller, bus, logger)
	loop := reconcile.NewLoop(reconciler, time.Duration(cfg.Reconcile.IntervalSeconds)*time.Second)
	controller.SetReconcileHooks(loop.Trigger, reconciler.StillRunning)

	for _, p := range store.List() {
		loop.WatchProject(p.Path)
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		launcher:   launch,
		bus:        bus,
		desktop:    desktop,
		controller: controller,
		reconciler: reconciler,
		loop:       loop,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	a.logger.Close()
}

// findProject resolves a project by name or path. An empty key resolves
// against the current directory.
func (a *app) findProject(key string) (project.Project, bool) {
	for _, p := range a.store.List() {
		if p.Name == key || p.Path == key || p.ID == key {
			return p, true
		}
	}
	return project.Project{}, false
}
