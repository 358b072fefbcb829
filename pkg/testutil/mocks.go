// Package testutil provides thread-safe mocks of the core interfaces.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/Veraticus/idlewatch/pkg/interfaces"
	"github.com/Veraticus/idlewatch/pkg/types"
)

// ProbeCall records one call to MockProber.Probe
type ProbeCall struct {
	Devices []string
	Dwell   time.Duration
}

// MockProber is a mock implementation of interfaces.ActivityProber.
// It replays scripted results in order. Past the end of the script it runs
// the OnExhausted callback and returns ctx.Err() if the context is done,
// otherwise NotTouched.
type MockProber struct {
	mu      sync.Mutex
	results []types.ProbeResult
	errs    []error
	calls   []ProbeCall
	onEmpty func()
}

var _ interfaces.ActivityProber = (*MockProber)(nil)

// NewMockProber creates a prober that returns the given results in order
func NewMockProber(results ...types.ProbeResult) *MockProber {
	return &MockProber{results: results}
}

// NewTouchScript creates a prober from a touched/not-touched sequence
func NewTouchScript(touches ...bool) *MockProber {
	results := make([]types.ProbeResult, len(touches))
	for i, touched := range touches {
		if touched {
			results[i] = types.Touched
		} else {
			results[i] = types.NotTouched
		}
	}
	return NewMockProber(results...)
}

// SetErrors sets per-call errors returned alongside the scripted results
func (m *MockProber) SetErrors(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = errs
}

// OnExhausted registers a callback run when a call finds the script empty,
// typically a context cancel func to stop a Run loop
func (m *MockProber) OnExhausted(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEmpty = fn
}

// Probe implements the ActivityProber interface
func (m *MockProber) Probe(ctx context.Context, devices []string, dwell time.Duration) (types.ProbeResult, error) {
	m.mu.Lock()
	idx := len(m.calls)
	m.calls = append(m.calls, ProbeCall{
		Devices: append([]string(nil), devices...),
		Dwell:   dwell,
	})
	onEmpty := m.onEmpty
	var result types.ProbeResult
	var err error
	exhausted := idx >= len(m.results)
	if !exhausted {
		result = m.results[idx]
		if idx < len(m.errs) {
			err = m.errs[idx]
		}
	}
	m.mu.Unlock()

	if exhausted {
		if onEmpty != nil {
			onEmpty()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.NotTouched, ctxErr
		}
		return types.NotTouched, nil
	}
	return result, err
}

// GetCalls returns a copy of all recorded calls
func (m *MockProber) GetCalls() []ProbeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]ProbeCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// Launch records one call to MockLauncher.Launch
type Launch struct {
	Name    string
	Command string
	Env     []string
}

// MockLauncher is a mock implementation of interfaces.CommandLauncher
type MockLauncher struct {
	mu        sync.Mutex
	launches  []Launch
	launchErr error
}

var _ interfaces.CommandLauncher = (*MockLauncher)(nil)

// NewMockLauncher creates a new mock launcher
func NewMockLauncher() *MockLauncher {
	return &MockLauncher{launches: []Launch{}}
}

// Launch implements the CommandLauncher interface
func (m *MockLauncher) Launch(name, command string, env []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.launches = append(m.launches, Launch{
		Name:    name,
		Command: command,
		Env:     append([]string(nil), env...),
	})
	return m.launchErr
}

// SetError sets the error to return on Launch calls
func (m *MockLauncher) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.launchErr = err
}

// GetLaunches returns a copy of all recorded launches
func (m *MockLauncher) GetLaunches() []Launch {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Launch, len(m.launches))
	copy(result, m.launches)
	return result
}

// CountByName returns how many launches used the given name
func (m *MockLauncher) CountByName(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.launches {
		if l.Name == name {
			n++
		}
	}
	return n
}

// MockDisplay is a mock implementation of interfaces.DisplayController
type MockDisplay struct {
	mu         sync.Mutex
	wakeCount  int
	sleepCount int
	err        error
}

var _ interfaces.DisplayController = (*MockDisplay)(nil)

// NewMockDisplay creates a new mock display
func NewMockDisplay() *MockDisplay {
	return &MockDisplay{}
}

// Wake implements the DisplayController interface
func (m *MockDisplay) Wake() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wakeCount++
	return m.err
}

// Sleep implements the DisplayController interface
func (m *MockDisplay) Sleep() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleepCount++
	return m.err
}

// SetError sets the error to return from Wake and Sleep
func (m *MockDisplay) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// GetWakeCount returns how many times Wake was called
func (m *MockDisplay) GetWakeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wakeCount
}

// GetSleepCount returns how many times Sleep was called
func (m *MockDisplay) GetSleepCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sleepCount
}
