// Package types contains shared data structures used across the application.
package types

// ProbeResult is the outcome of one activity probe.
type ProbeResult int

const (
	// NotTouched means every opened device reported no pending input.
	NotTouched ProbeResult = iota
	// Touched means at least one device had input queued after the dwell.
	Touched
	// Unavailable means no configured device could be opened.
	Unavailable
)

// String returns a human-readable name for the result
func (r ProbeResult) String() string {
	switch r {
	case Touched:
		return "touched"
	case NotTouched:
		return "not-touched"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// RunMode selects the dwell period and the thresholds that apply.
type RunMode int

const (
	// ModeTour is the initial mode: display on, tour command escalation.
	ModeTour RunMode = iota
	// ModeDisplaySleep is entered once the sleep threshold is crossed.
	ModeDisplaySleep
)

// String returns a human-readable name for the mode
func (m RunMode) String() string {
	switch m {
	case ModeTour:
		return "tour"
	case ModeDisplaySleep:
		return "display-sleep"
	default:
		return "unknown"
	}
}
