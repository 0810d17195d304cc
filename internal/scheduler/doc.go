// Package scheduler drives the deterministic tick loop.
//
// A Scheduler binds a World, a Plan and an event log, then advances one tick
// per RunTick:
//
//  1. Gather inputs: drain submitted inputs into the log (record mode) or read
//     them back from it (replay mode).
//  2. Execute the plan's waves in order. Systems within a wave run serially
//     or on a bounded worker pool; every wave ends at a barrier.
//  3. Hash the world snapshot. Record mode commits the hash with the tick's
//     inputs; replay mode compares it with the recorded hash.
//
// State machine:
//
//	Idle -> Running -> {Stopped, Faulted}
//
// Stopped and Faulted are terminal. RunTick in either returns a StateError
// without touching the tick counter, the world or the log.
//
// Each system receives a randomness stream derived from (seed, tick, system),
// so results do not depend on worker count or goroutine scheduling.
//
// Thread-safety model:
//   - Submit, Stop and the accessors: safe from any goroutine
//   - RunTick, Run: one caller at a time
package scheduler
