// Package testutil provides deterministic stand-ins for wall-clock time and
// run ids so diagnostics and golden traces are reproducible in tests.
package testutil

import (
	"sync"
	"time"
)

// Epoch is the instant a DeterministicClock starts at.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock is a thread-safe fake clock. Every call to Now advances
// it by a fixed step, so a duration measured as two Now calls is always a
// multiple of the step regardless of host speed.
type DeterministicClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewDeterministicClock creates a clock at Epoch that advances by step on
// every Now call. A zero step freezes the clock until Advance.
func NewDeterministicClock(step time.Duration) *DeterministicClock {
	return &DeterministicClock{now: Epoch, step: step}
}

// Now returns the current instant, then advances by the step.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Advance moves the clock forward by d.
func (c *DeterministicClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Reset returns the clock to Epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = Epoch
}

// FixedRunIDGenerator returns the same run id on every call.
//
// The same scenario with the same FixedRunIDGenerator produces byte-identical
// ledgers. If id is empty, Generate returns "test-run-default".
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a constant run id generator.
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed id.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
