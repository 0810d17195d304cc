// Package session runs the colony simulation end to end.
//
// Record builds a colony from a Config, drives a scheduler for the requested
// number of ticks, submits scripted inputs at their ticks and, when given a
// Ledger, persists every committed tick. Replay rebuilds the colony from the
// configuration stored in a recording's header and re-executes it,
// verifying each tick hash.
//
// Both return an Outcome. Errors from the run itself (domain faults,
// desyncs, ledger failures) are reported in Outcome.Err; the returned error
// is reserved for problems that prevented the run from starting.
package session
