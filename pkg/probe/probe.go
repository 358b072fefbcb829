// Package probe detects input activity on character devices.
//
// A probe opens every configured device, switches it to non-blocking reads,
// sleeps for the dwell window and then checks whether the kernel queued any
// events in the meantime. Handles never outlive a probe, so a device that is
// unplugged and replugged is picked up again on the next cycle.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/idlewatch/pkg/interfaces"
	"github.com/Veraticus/idlewatch/pkg/types"
)

// ReadLimit caps a single drain read. Large enough to empty a dwell window's
// worth of input_event records from a busy device.
const ReadLimit = 8192

// ErrDeviceUnavailable is returned when none of the configured devices could be opened.
var ErrDeviceUnavailable = errors.New("no input device could be opened")

// Device is an opened, non-blocking input source.
// Read returns an error satisfying IsWouldBlock when nothing is queued.
type Device interface {
	Read(p []byte) (int, error)
	Close() error
}

// Opener opens a device path for non-blocking reads.
type Opener func(path string) (Device, error)

// Sleeper blocks for the dwell window. It returns early only when ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Prober implements interfaces.ActivityProber over a set of device paths.
type Prober struct {
	open   Opener
	sleep  Sleeper
	logger interfaces.Logger
}

// Ensure Prober implements ActivityProber
var _ interfaces.ActivityProber = (*Prober)(nil)

// NewProber creates a prober that opens real devices and sleeps on the wall clock.
func NewProber(logger interfaces.Logger) *Prober {
	return &Prober{
		open:   OpenDevice,
		sleep:  Sleep,
		logger: logger,
	}
}

// SetOpener replaces the device opener.
// This is primarily useful for testing.
func (p *Prober) SetOpener(open Opener) {
	p.open = open
}

// SetSleeper replaces the dwell sleeper.
// This is primarily useful for testing.
func (p *Prober) SetSleeper(sleep Sleeper) {
	p.sleep = sleep
}

type openedDevice struct {
	path string
	dev  Device
}

// Probe reports whether any device in devicePaths produced data during dwell.
//
// Devices that fail to open are skipped with a warning. When none open the
// result is types.Unavailable, reported after the dwell, and the error wraps
// ErrDeviceUnavailable. The only other error is the context's, when it ends
// the dwell early.
func (p *Prober) Probe(ctx context.Context, devicePaths []string, dwell time.Duration) (types.ProbeResult, error) {
	opened := make([]openedDevice, 0, len(devicePaths))
	defer func() {
		for _, d := range opened {
			if err := d.dev.Close(); err != nil {
				p.logger.Debug("close %s: %v", d.path, err)
			}
		}
	}()

	for _, path := range devicePaths {
		dev, err := p.open(path)
		if err != nil {
			p.logger.Warn("skipping device %s: %v", path, err)
			continue
		}
		opened = append(opened, openedDevice{path: path, dev: dev})
	}

	// The dwell is kept even with nothing open so a missing device does not
	// turn the control loop into a busy loop.
	if err := p.sleep(ctx, dwell); err != nil {
		return types.NotTouched, err
	}

	if len(opened) == 0 {
		return types.Unavailable, fmt.Errorf("%w (tried %d)", ErrDeviceUnavailable, len(devicePaths))
	}

	buf := make([]byte, ReadLimit)
	for _, d := range opened {
		outcome, err := drain(d.dev, buf)
		if err != nil {
			p.logger.Debug("read %s: %v", d.path, err)
		}
		if outcome == readData {
			return types.Touched, nil
		}
	}

	return types.NotTouched, nil
}

// readOutcome is the result of one bounded read from a device.
type readOutcome int

const (
	readEmpty readOutcome = iota
	readData
)

// drain performs one bounded read. Would-block and EOF are the normal
// "nothing queued" answers and are not reported as errors; any other
// failure still counts as empty but is returned for logging.
func drain(dev Device, buf []byte) (readOutcome, error) {
	n, err := dev.Read(buf)
	if n > 0 {
		return readData, nil
	}
	if err == nil || IsWouldBlock(err) || errors.Is(err, io.EOF) {
		return readEmpty, nil
	}
	return readEmpty, err
}

// Sleep waits for d on the wall clock or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
