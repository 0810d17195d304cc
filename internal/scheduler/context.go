package scheduler

import (
	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/determinism"
	"github.com/organization-ai-projects/simcore/internal/eventlog"
	"github.com/organization-ai-projects/simcore/internal/world"
)

// TickContext is everything a system may use during one execution.
type TickContext struct {
	Tick   core.Tick
	System core.SystemID
	View   *world.View
	Rand   *determinism.Stream
	Inputs *Inputs
}

// Inputs are the records addressed to one system for one tick, in append
// order. In record mode they were submitted live; in replay mode they come
// from the recording. Systems cannot tell the difference.
type Inputs struct {
	records []eventlog.Record
	next    int
}

// Next returns the next unread input.
func (in *Inputs) Next() (eventlog.Record, bool) {
	if in == nil || in.next >= len(in.records) {
		return eventlog.Record{}, false
	}
	r := in.records[in.next]
	in.next++
	return r, true
}

// Len returns how many inputs are unread.
func (in *Inputs) Len() int {
	if in == nil {
		return 0
	}
	return len(in.records) - in.next
}
