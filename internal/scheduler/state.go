package scheduler

import "fmt"

// State is the scheduler lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
	StateFaulted
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further ticks can run.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateFaulted
}

// FaultPolicy decides what a domain error does to the run.
type FaultPolicy int

const (
	// FaultHalt faults the run on the first domain error. The failing tick
	// does not commit.
	FaultHalt FaultPolicy = iota
	// FaultSkipTick reports the domain error in the TickResult, commits the
	// tick as it stands and keeps running. Fatal errors still halt.
	FaultSkipTick
)

// String returns the policy name used in manifests and flags.
func (p FaultPolicy) String() string {
	switch p {
	case FaultHalt:
		return "halt"
	case FaultSkipTick:
		return "skip-tick"
	default:
		return "unknown"
	}
}

// ParseFaultPolicy parses "halt" or "skip-tick".
func ParseFaultPolicy(s string) (FaultPolicy, error) {
	switch s {
	case "halt", "":
		return FaultHalt, nil
	case "skip-tick":
		return FaultSkipTick, nil
	default:
		return 0, fmt.Errorf("unknown fault policy %q: must be halt or skip-tick", s)
	}
}
