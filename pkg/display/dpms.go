package display

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/dpms"

	"github.com/Veraticus/idlewatch/pkg/interfaces"
)

// ErrDPMSUnsupported is returned when the X server has no usable DPMS extension.
var ErrDPMSUnsupported = errors.New("DPMS not supported by X server")

// dpmsConn is the subset of an X connection the controller needs.
type dpmsConn interface {
	Enable() error
	ForceLevel(level uint16) error
	Close()
}

// dialer opens a DPMS-capable connection to an X display.
type dialer func(display string) (dpmsConn, error)

// DPMSController forces the monitor power level through the X11 DPMS
// extension instead of shelling out to xset. The connection is opened on
// first use and dropped after any failure so the next call reconnects.
type DPMSController struct {
	display string
	dial    dialer

	mu   sync.Mutex
	conn dpmsConn
}

// Ensure DPMSController implements DisplayController
var _ interfaces.DisplayController = (*DPMSController)(nil)

// NewDPMSController creates a controller for the given X display (e.g. ":0")
func NewDPMSController(display string) *DPMSController {
	return &DPMSController{
		display: display,
		dial:    dialX,
	}
}

// Wake forces the display on
func (c *DPMSController) Wake() error {
	return c.force(dpms.DPMSModeOn)
}

// Sleep forces the display off
func (c *DPMSController) Sleep() error {
	return c.force(dpms.DPMSModeOff)
}

// Close releases the X connection
func (c *DPMSController) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked()
	return nil
}

func (c *DPMSController) force(level uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		conn, err := c.dial(c.display)
		if err != nil {
			return err
		}
		c.conn = conn
	}

	// Screensaver tools may have disabled DPMS; ForceLevel is a no-op then
	if err := c.conn.Enable(); err != nil {
		c.dropLocked()
		return fmt.Errorf("enable DPMS: %w", err)
	}

	if err := c.conn.ForceLevel(level); err != nil {
		c.dropLocked()
		return fmt.Errorf("force DPMS level %d: %w", level, err)
	}

	return nil
}

func (c *DPMSController) dropLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// xgbConn adapts an xgb connection to dpmsConn
type xgbConn struct {
	conn *xgb.Conn
}

func dialX(display string) (dpmsConn, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connect to X display %q: %w", display, err)
	}

	if err := dpms.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrDPMSUnsupported, err)
	}

	reply, err := dpms.Capable(conn).Reply()
	if err != nil || reply == nil || !reply.Capable {
		conn.Close()
		return nil, ErrDPMSUnsupported
	}

	return &xgbConn{conn: conn}, nil
}

func (x *xgbConn) Enable() error {
	return dpms.Enable(x.conn).Check()
}

func (x *xgbConn) ForceLevel(level uint16) error {
	return dpms.ForceLevel(x.conn, level).Check()
}

func (x *xgbConn) Close() {
	x.conn.Close()
}
