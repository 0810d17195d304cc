// Package eventlog implements the append-only input ledger that makes a run
// replayable.
//
// A Log is either a recorder or a replayer, fixed at construction:
//
//   - Recorder: Append stores injected inputs in tick order; CommitTick seals
//     a tick together with its StateHash and flushes both to an optional Sink.
//   - Replayer: built from a Recording; Next and NextFor hand records back in
//     exactly the order they were appended; ExpectedHash exposes the recorded
//     StateHash for verification.
//
// Records are copied on the way in and on the way out. There is no API to
// mutate or reorder a record once appended.
package eventlog
