package arena

import (
	"errors"
	"fmt"
)

// StaleReason explains why an id was rejected.
type StaleReason string

const (
	// ReasonOutOfRange means the index was never allocated.
	ReasonOutOfRange StaleReason = "index out of range"
	// ReasonFreed means the slot is currently empty.
	ReasonFreed StaleReason = "slot freed"
	// ReasonGeneration means the slot was freed and reused since the id was issued.
	ReasonGeneration StaleReason = "generation mismatch"
)

// StaleIDError is returned when an id no longer refers to a live entity.
// It always indicates a caller bug (use after free) and is never retried.
type StaleIDError struct {
	ID      EntityID
	Current uint32 // current generation of the slot, 0 when out of range
	Reason  StaleReason
}

// Error implements the error interface.
func (e *StaleIDError) Error() string {
	if e.Reason == ReasonOutOfRange {
		return fmt.Sprintf("stale entity id %s: %s", e.ID, e.Reason)
	}
	return fmt.Sprintf("stale entity id %s: %s (slot generation %d)", e.ID, e.Reason, e.Current)
}

// OutOfCapacityError is returned by Allocate when the configured capacity
// limit is exhausted. Callers may raise the limit and retry.
type OutOfCapacityError struct {
	Limit int
}

// Error implements the error interface.
func (e *OutOfCapacityError) Error() string {
	return fmt.Sprintf("arena out of capacity: limit %d reached", e.Limit)
}

// IsStale reports whether err is or wraps a StaleIDError.
func IsStale(err error) bool {
	var se *StaleIDError
	return errors.As(err, &se)
}

// IsOutOfCapacity reports whether err is or wraps an OutOfCapacityError.
func IsOutOfCapacity(err error) bool {
	var oe *OutOfCapacityError
	return errors.As(err, &oe)
}
