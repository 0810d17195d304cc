package scheduler

import (
	"errors"
	"fmt"

	"github.com/organization-ai-projects/simcore/internal/arena"
	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/world"
)

var (
	// ErrReplayInput is returned by Submit in replay mode: inputs come from
	// the recording only.
	ErrReplayInput = errors.New("inputs cannot be submitted while replaying")

	// ErrRecordingExhausted is returned by RunTick when a replay has consumed
	// every recorded tick. The scheduler transitions to Stopped.
	ErrRecordingExhausted = errors.New("recording exhausted")
)

// StateError is returned when an operation is not valid in the current state.
type StateError struct {
	Op    string
	State State
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s: scheduler is %s", e.Op, e.State)
}

// DomainError wraps an error returned by a system's execute function.
type DomainError struct {
	Tick   core.Tick
	System core.SystemID
	Err    error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return fmt.Sprintf("tick %d: system %q failed: %v", e.Tick, e.System, e.Err)
}

// Unwrap returns the system's error.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// ReplayDesyncError reports the first tick at which a replay diverged from
// its recording.
type ReplayDesyncError struct {
	Tick     core.Tick
	Expected core.StateHash
	Actual   core.StateHash
	Reason   string // set when divergence was detected before hashing
	Err      error  // the replayed tick's own failure, if any
}

// Error implements the error interface.
func (e *ReplayDesyncError) Error() string {
	if e.Reason != "" {
		if e.Err != nil {
			return fmt.Sprintf("replay desync at tick %d: %s: %v", e.Tick, e.Reason, e.Err)
		}
		return fmt.Sprintf("replay desync at tick %d: %s", e.Tick, e.Reason)
	}
	return fmt.Sprintf("replay desync at tick %d: expected hash %s, got %s", e.Tick, e.Expected, e.Actual)
}

// Unwrap returns the failure that revealed the divergence.
func (e *ReplayDesyncError) Unwrap() error {
	return e.Err
}

// PlanMismatchError is returned by Start when a log was recorded under a
// different set of system registrations.
type PlanMismatchError struct {
	Recorded string
	Current  string
}

// Error implements the error interface.
func (e *PlanMismatchError) Error() string {
	return fmt.Sprintf("plan fingerprint mismatch: log has %s, current plan is %s", e.Recorded, e.Current)
}

// IsDomainError reports whether err is or wraps a DomainError.
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// IsReplayDesync reports whether err is or wraps a ReplayDesyncError.
func IsReplayDesync(err error) bool {
	var re *ReplayDesyncError
	return errors.As(err, &re)
}

// IsStateError reports whether err is or wraps a StateError.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

// IsFatal reports whether a system error indicates a caller bug rather than
// a domain condition. Fatal errors fault the run under every fault policy.
func IsFatal(err error) bool {
	return arena.IsStale(err) ||
		arena.IsOutOfCapacity(err) ||
		world.IsAccessError(err) ||
		world.IsMissingResource(err)
}
