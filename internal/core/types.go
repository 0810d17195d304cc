package core

import (
	"encoding/hex"
	"fmt"
)

// Tick is the unit of simulation time. Ticks are numbered from 1; a
// scheduler that has not executed anything is at tick 0.
type Tick uint64

// SystemID identifies a registered system. Unique within a graph.
type SystemID string

// ResourceTag names a unit of world state a system may read or write.
type ResourceTag string

// EventKind classifies an injected input record. The runtime never
// interprets it.
type EventKind string

// Seed is the root randomness source of a run.
type Seed uint64

// Mode selects whether a run produces or consumes an event log.
type Mode int

const (
	// ModeRecord samples live input and appends it to the log.
	ModeRecord Mode = iota + 1
	// ModeReplay reads inputs back from a recorded log and verifies hashes.
	ModeReplay
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	switch m {
	case ModeRecord:
		return "record"
	case ModeReplay:
		return "replay"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "record" or "replay".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "record":
		return ModeRecord, nil
	case "replay":
		return ModeReplay, nil
	default:
		return 0, fmt.Errorf("unknown mode %q: must be record or replay", s)
	}
}

// StateHashSize is the digest length in bytes.
const StateHashSize = 32

// StateHash is the canonical digest of world state at a tick boundary.
type StateHash [StateHashSize]byte

// String renders the hash as 64 lowercase hex characters.
func (h StateHash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is unset.
func (h StateHash) IsZero() bool {
	return h == StateHash{}
}

// ParseStateHash decodes a 64-character hex digest.
func ParseStateHash(s string) (StateHash, error) {
	var h StateHash
	if len(s) != hex.EncodedLen(StateHashSize) {
		return h, fmt.Errorf("state hash must be %d hex characters, got %d", hex.EncodedLen(StateHashSize), len(s))
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, fmt.Errorf("decode state hash: %w", err)
	}
	return h, nil
}
