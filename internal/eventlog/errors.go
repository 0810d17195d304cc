package eventlog

import (
	"errors"
	"fmt"

	"github.com/organization-ai-projects/simcore/internal/core"
)

var (
	// ErrReplayOnly is returned by record-only operations on a replayer.
	ErrReplayOnly = errors.New("event log is in replay mode: append is not allowed")

	// ErrCorruptRecording is returned by NewReplayer for recordings that
	// violate ordering.
	ErrCorruptRecording = errors.New("corrupt recording")
)

// OutOfOrderError is returned when an append or commit would move the log
// backwards in time.
type OutOfOrderError struct {
	Tick core.Tick // tick of the rejected operation
	Last core.Tick // highest tick the log already holds
}

// Error implements the error interface.
func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("event log out of order: tick %d after tick %d", e.Tick, e.Last)
}

// IsOutOfOrder reports whether err is or wraps an OutOfOrderError.
func IsOutOfOrder(err error) bool {
	var oe *OutOfOrderError
	return errors.As(err, &oe)
}
