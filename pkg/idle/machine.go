// Package idle runs the idle-detection state machine.
//
// Each cycle asks the prober whether any input device was touched during
// the dwell window for the current mode, updates the idle counter and
// fires at most one action:
//
//	touched, display asleep     -> wake display, back to tour mode
//	idle >= sleep threshold     -> sleep display once, enter display-sleep mode
//	idle >= tour threshold      -> run the periodic command (every cycle)
//	otherwise                   -> wait
package idle

import (
	"context"
	"errors"
	"time"

	"github.com/Veraticus/idlewatch/pkg/config"
	"github.com/Veraticus/idlewatch/pkg/interfaces"
	"github.com/Veraticus/idlewatch/pkg/probe"
	"github.com/Veraticus/idlewatch/pkg/process"
	"github.com/Veraticus/idlewatch/pkg/types"
)

// Action is the side effect chosen for a cycle.
type Action int

const (
	// ActionNone means the cycle only waits
	ActionNone Action = iota
	// ActionWake turns the display back on after a touch
	ActionWake
	// ActionSleep powers the display down on crossing the sleep threshold
	ActionSleep
	// ActionPeriodic runs the user's command
	ActionPeriodic
)

// String returns a human-readable name for the action
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionWake:
		return "wake"
	case ActionSleep:
		return "sleep"
	case ActionPeriodic:
		return "periodic"
	default:
		return "unknown"
	}
}

// Transition describes the outcome of one cycle.
type Transition struct {
	Result    types.ProbeResult
	IdleCount int
	Mode      types.RunMode
	Action    Action
}

// Machine holds the run mode and idle counter. It is driven by a single
// goroutine and is not safe for concurrent use.
type Machine struct {
	cfg      *config.Config
	prober   interfaces.ActivityProber
	launcher interfaces.CommandLauncher
	display  interfaces.DisplayController
	logger   interfaces.Logger

	mode      types.RunMode
	idleCount int
}

// NewMachine creates a machine in tour mode with a zero idle count
func NewMachine(cfg *config.Config, prober interfaces.ActivityProber, launcher interfaces.CommandLauncher,
	display interfaces.DisplayController, logger interfaces.Logger) *Machine {
	return &Machine{
		cfg:      cfg,
		prober:   prober,
		launcher: launcher,
		display:  display,
		logger:   logger,
		mode:     types.ModeTour,
	}
}

// Mode returns the current run mode
func (m *Machine) Mode() types.RunMode {
	return m.mode
}

// IdleCount returns the number of consecutive untouched cycles
func (m *Machine) IdleCount() int {
	return m.idleCount
}

// Dwell returns the probe window for the current mode. Once the display is
// asleep the machine polls on the shorter wake period to notice a touch sooner.
func (m *Machine) Dwell() time.Duration {
	if m.mode == types.ModeDisplaySleep {
		return m.cfg.WakeCheckPeriod
	}
	return m.cfg.TourCheckPeriod
}

// Run cycles until ctx is done and returns the context's error.
func (m *Machine) Run(ctx context.Context) error {
	m.logger.Debug("watching %v (tour every %v after %d idle cycles, sleep threshold %d)",
		m.cfg.Devices, m.cfg.TourCheckPeriod, m.cfg.TourThreshold, m.cfg.SleepThreshold)

	for {
		if _, err := m.Cycle(ctx); err != nil {
			return err
		}
	}
}

// Cycle probes once, applies the transition and dispatches its action.
// The only error returned is the context's.
func (m *Machine) Cycle(ctx context.Context) (Transition, error) {
	result, err := m.prober.Probe(ctx, m.cfg.Devices, m.Dwell())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Transition{}, ctxErr
		}
		if errors.Is(err, probe.ErrDeviceUnavailable) {
			m.logger.Warn("%v; counting cycle as idle", err)
			result = types.Unavailable
		} else {
			m.logger.Warn("probe failed: %v; counting cycle as idle", err)
			result = types.NotTouched
		}
	}

	tr := m.Step(result)
	m.dispatch(tr)
	return tr, nil
}

// Step applies one probe result to the counters and returns the chosen
// action without performing it. Unavailable counts as not touched.
func (m *Machine) Step(result types.ProbeResult) Transition {
	action := ActionNone

	if result == types.Touched {
		m.idleCount = 0
		if m.mode == types.ModeDisplaySleep {
			m.mode = types.ModeTour
			action = ActionWake
		}
	} else {
		m.idleCount++
		switch {
		case m.cfg.SleepEnabled() && m.idleCount >= m.cfg.SleepThreshold:
			// One-shot on the crossing; further idle cycles just keep polling
			if m.mode != types.ModeDisplaySleep {
				m.mode = types.ModeDisplaySleep
				action = ActionSleep
			}
		case m.idleCount >= m.cfg.TourThreshold:
			action = ActionPeriodic
		}
	}

	return Transition{
		Result:    result,
		IdleCount: m.idleCount,
		Mode:      m.mode,
		Action:    action,
	}
}

// dispatch logs the cycle and fires its action. Failures are logged and
// never stop the loop.
func (m *Machine) dispatch(tr Transition) {
	if tr.Result == types.Touched {
		m.logger.Status("Touched.")
	}

	switch tr.Action {
	case ActionWake:
		m.logger.Status("Waking display.")
		if err := m.display.Wake(); err != nil {
			m.logger.Error("wake display: %v", err)
		}
	case ActionSleep:
		m.logger.Status("Sleeping display.")
		if err := m.display.Sleep(); err != nil {
			m.logger.Error("sleep display: %v", err)
		}
	case ActionPeriodic:
		m.logger.Status("%s", m.cfg.Command)
		if err := m.launcher.Launch("periodic", m.cfg.Command, nil); err != nil {
			if errors.Is(err, process.ErrAlreadyRunning) {
				m.logger.Warn("%v; skipping this cycle", err)
			} else {
				m.logger.Error("%v", err)
			}
		}
	case ActionNone:
		switch {
		case tr.Result == types.Touched:
		case tr.Mode == types.ModeDisplaySleep:
			m.logger.Status("Asleep... %d", tr.IdleCount)
		default:
			m.logger.Status("Wait... %d", tr.IdleCount)
		}
	}
}
