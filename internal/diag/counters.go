package diag

import (
	"sync/atomic"
	"time"

	"github.com/organization-ai-projects/simcore/internal/core"
)

// Counters aggregates diagnostics with atomic counters. Safe for concurrent
// use.
type Counters struct {
	ticks        atomic.Uint64
	failedTicks  atomic.Uint64
	systemRuns   atomic.Uint64
	systemErrors atomic.Uint64
	busy         atomic.Int64 // nanoseconds spent inside systems
	logSize      atomic.Int64
}

// CountersSnapshot is a point-in-time copy of Counters.
type CountersSnapshot struct {
	Ticks        uint64
	FailedTicks  uint64
	SystemRuns   uint64
	SystemErrors uint64
	SystemTime   time.Duration
	LogSize      int
}

// NewCounters creates zeroed counters.
func NewCounters() *Counters {
	return &Counters{}
}

func (c *Counters) TickStarted(core.Tick) error { return nil }

func (c *Counters) TickEnded(r TickReport) error {
	c.ticks.Add(1)
	if r.Err != nil {
		c.failedTicks.Add(1)
	}
	return nil
}

func (c *Counters) SystemRan(r SystemReport) error {
	c.systemRuns.Add(1)
	c.busy.Add(int64(r.Duration))
	if r.Err != nil {
		c.systemErrors.Add(1)
	}
	return nil
}

func (c *Counters) LogGrew(size int) error {
	c.logSize.Store(int64(size))
	return nil
}

// Snapshot returns the current values.
func (c *Counters) Snapshot() CountersSnapshot {
	return CountersSnapshot{
		Ticks:        c.ticks.Load(),
		FailedTicks:  c.failedTicks.Load(),
		SystemRuns:   c.systemRuns.Load(),
		SystemErrors: c.systemErrors.Load(),
		SystemTime:   time.Duration(c.busy.Load()),
		LogSize:      int(c.logSize.Load()),
	}
}
