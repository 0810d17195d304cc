package eventlog

import (
	"context"
	"slices"

	"github.com/organization-ai-projects/simcore/internal/core"
)

// Record is one externally supplied input.
type Record struct {
	// Seq is the 1-based position in append order, assigned by Append.
	Seq     uint64
	Tick    core.Tick
	System  core.SystemID
	Kind    core.EventKind
	Payload []byte
}

func (r Record) clone() Record {
	r.Payload = slices.Clone(r.Payload)
	return r
}

// TickHash is the StateHash committed at the end of a tick.
type TickHash struct {
	Tick   core.Tick
	Hash   core.StateHash
	Events int // number of records appended for the tick
}

// Header identifies a run and the inputs a replay must reproduce.
type Header struct {
	RunID         string
	Seed          core.Seed
	PlanHash      string
	EngineVersion string
	Label         string
	// Config is the domain configuration the run was recorded with, opaque
	// to the runtime. A replay rebuilds its world from it.
	Config []byte
}

func (h Header) clone() Header {
	h.Config = slices.Clone(h.Config)
	return h
}

// Recording is a complete run: header, every record and every tick hash.
type Recording struct {
	Header  Header
	Records []Record
	Hashes  []TickHash
}

// LastTick returns the last committed tick, or 0 for an empty recording.
func (r Recording) LastTick() core.Tick {
	if len(r.Hashes) == 0 {
		return 0
	}
	return r.Hashes[len(r.Hashes)-1].Tick
}

// RecordsAt returns the records for tick in append order.
func (r Recording) RecordsAt(tick core.Tick) []Record {
	var out []Record
	for _, rec := range r.Records {
		if rec.Tick == tick {
			out = append(out, rec.clone())
		}
	}
	return out
}

func (r Recording) clone() Recording {
	out := Recording{
		Header:  r.Header.clone(),
		Records: make([]Record, len(r.Records)),
		Hashes:  slices.Clone(r.Hashes),
	}
	for i, rec := range r.Records {
		out.Records[i] = rec.clone()
	}
	return out
}

// TickBatch is what a recorder flushes to its Sink when a tick commits.
type TickBatch struct {
	Tick    core.Tick
	Records []Record
	Hash    core.StateHash
}

// Sink persists committed ticks. CommitTick must store the whole batch or
// nothing.
type Sink interface {
	CommitTick(ctx context.Context, runID string, batch TickBatch) error
}
