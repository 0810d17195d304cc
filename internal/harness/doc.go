// Package harness runs YAML scenarios against the colony simulation.
//
// A scenario is a run manifest (seed, ticks, workers, fault policy, colony
// parameters and scripted inputs) plus expectations. Run records the
// scenario into a fresh in-memory ledger, loads the recording back, replays
// it and, when the scenario asks for it, replays a tampered copy that must
// desync at a known tick.
//
// Every scenario implicitly asserts that the untampered replay reproduces
// every recorded hash.
//
// Golden traces hold only what the scenario determines directly: the plan
// fingerprint, the committed input records and the run's end state. Tick
// hashes are compared by replay, not by golden file.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
