package domain

import "strings"

// Phase is the lifecycle state of the supervised application process.
type Phase string

const (
	// PhaseStarting is the state before the child has been spawned.
	PhaseStarting Phase = "starting"
	// PhaseRunning indicates the child was spawned and no readiness signal has been seen yet.
	PhaseRunning Phase = "running"
	// PhaseReadyDetected indicates a Ready line arrived before the timeout or exit.
	PhaseReadyDetected Phase = "ready"
	// PhaseExited indicates the child ended on its own or after Terminate.
	PhaseExited Phase = "exited"
	// PhaseTimedOut indicates the startup timeout elapsed with the child still alive.
	PhaseTimedOut Phase = "timed_out"
	// PhaseFailed indicates the child could not be spawned.
	PhaseFailed Phase = "failed"
)

// IsTerminal reports whether no further transition can happen from the phase.
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseExited, PhaseFailed:
		return true
	default:
		return false
	}
}

// NormalizePhase converts a string to a Phase, defaulting to starting if unknown.
func NormalizePhase(s string) Phase {
	switch p := Phase(strings.ToLower(s)); p {
	case PhaseStarting, PhaseRunning, PhaseReadyDetected, PhaseExited, PhaseTimedOut, PhaseFailed:
		return p
	default:
		return PhaseStarting
	}
}

// SupervisionState is a snapshot of the supervisor's view of its child.
type SupervisionState struct {
	Phase    Phase
	ExitCode int
	Reason   string
}

// LineClass is the classification of one line of child output.
type LineClass int

const (
	// LineNoise is any line that matched no rule.
	LineNoise LineClass = iota
	// LineReady signals that the application finished starting.
	LineReady
	// LineError is surfaced to the operator as a warning.
	LineError
	// LineSuppressed looks like an error but matched the benign allow-list.
	LineSuppressed
)

// String returns the string representation of the LineClass.
func (c LineClass) String() string {
	switch c {
	case LineReady:
		return "ready"
	case LineError:
		return "error"
	case LineSuppressed:
		return "suppressed"
	default:
		return "noise"
	}
}
