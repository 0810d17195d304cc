// Package store provides SQLite-backed durable storage for recorded runs.
//
// The store is an append-only ledger with three tables:
//   - runs: one header per run (seed, plan fingerprint, engine version)
//   - events: every injected input record, keyed by (run_id, seq)
//   - tick_hashes: the StateHash committed at the end of each tick
//
// # Invariants
//
// Logical time only: ordering uses tick and seq integers, never timestamps.
// Runs are listed by created_seq, a per-database counter.
//
// Atomic ticks: CommitTick writes a tick's events and its hash in one
// transaction, so a crash never leaves a tick with events but no hash.
//
// Deterministic reads: every query orders by (tick, seq) or created_seq.
//
// Unsigned 64-bit values (seeds, ticks) are stored bit-cast to INTEGER.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
