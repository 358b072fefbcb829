package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Veraticus/idlewatch/pkg/config"
	"github.com/Veraticus/idlewatch/pkg/display"
	"github.com/Veraticus/idlewatch/pkg/idle"
	"github.com/Veraticus/idlewatch/pkg/interfaces"
	"github.com/Veraticus/idlewatch/pkg/probe"
	"github.com/Veraticus/idlewatch/pkg/process"
)

// Dependencies holds all the dependencies for the application
type Dependencies struct {
	Config   *config.Config
	Logger   interfaces.Logger
	Prober   interfaces.ActivityProber
	Launcher *process.Launcher
	Display  interfaces.DisplayController
	Machine  *idle.Machine
	closed   bool
}

// NewDependencies creates all dependencies with the given configuration
func NewDependencies(cfg *config.Config, logger interfaces.Logger) (*Dependencies, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("no command configured")
	}

	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.Prober = probe.NewProber(logger)
	deps.Launcher = process.NewLauncher(cfg, logger)

	ctrl, err := display.New(cfg, deps.Launcher)
	if err != nil {
		return nil, fmt.Errorf("failed to create display controller: %w", err)
	}
	deps.Display = ctrl

	deps.Machine = idle.NewMachine(cfg, deps.Prober, deps.Launcher, deps.Display, logger)

	return deps, nil
}

// Close releases resources held by the dependencies. Launched commands
// are left running; they were never ours to wait for.
func (d *Dependencies) Close() {
	if d.closed {
		return
	}
	d.closed = true

	if closer, ok := d.Display.(io.Closer); ok {
		_ = closer.Close() // Best effort
	}
}

// Application represents the main application
type Application struct {
	deps *Dependencies
}

// NewApplication creates a new application with the given dependencies
func NewApplication(deps *Dependencies) *Application {
	return &Application{
		deps: deps,
	}
}

// Run drives the idle state machine until ctx is cancelled
func (a *Application) Run(ctx context.Context) error {
	a.deps.Logger.Debug("config: devices=%v tour=%v/%d sleep=%d backend=%s",
		a.deps.Config.Devices, a.deps.Config.TourCheckPeriod, a.deps.Config.TourThreshold,
		a.deps.Config.SleepThreshold, a.deps.Config.Display.Backend)

	return a.deps.Machine.Run(ctx)
}
