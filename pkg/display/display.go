// Package display powers the presentation display on and off.
package display

import (
	"fmt"

	"github.com/Veraticus/idlewatch/pkg/config"
	"github.com/Veraticus/idlewatch/pkg/interfaces"
)

// New creates the display controller selected by display.backend.
func New(cfg *config.Config, launcher interfaces.CommandLauncher) (interfaces.DisplayController, error) {
	switch cfg.Display.Backend {
	case config.BackendCommand, "":
		return NewCommandController(cfg, launcher), nil
	case config.BackendDPMS:
		return NewDPMSController(cfg.Display.Selector), nil
	default:
		return nil, fmt.Errorf("unknown display backend %q", cfg.Display.Backend)
	}
}

// CommandController runs the configured wake and sleep shell commands
// with DISPLAY pointing at the presentation screen.
type CommandController struct {
	launcher     interfaces.CommandLauncher
	wakeCommand  string
	sleepCommand string
	env          []string
}

// Ensure CommandController implements DisplayController
var _ interfaces.DisplayController = (*CommandController)(nil)

// NewCommandController creates a controller that shells out through launcher
func NewCommandController(cfg *config.Config, launcher interfaces.CommandLauncher) *CommandController {
	var env []string
	if cfg.Display.Selector != "" {
		env = append(env, "DISPLAY="+cfg.Display.Selector)
	}
	return &CommandController{
		launcher:     launcher,
		wakeCommand:  cfg.Display.WakeCommand,
		sleepCommand: cfg.Display.SleepCommand,
		env:          env,
	}
}

// Wake launches the wake command
func (c *CommandController) Wake() error {
	return c.launcher.Launch("wake", c.wakeCommand, c.env)
}

// Sleep launches the sleep command
func (c *CommandController) Sleep() error {
	return c.launcher.Launch("sleep", c.sleepCommand, c.env)
}
