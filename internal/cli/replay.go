package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/organization-ai-projects/simcore/internal/diag"
	"github.com/organization-ai-projects/simcore/internal/scheduler"
	"github.com/organization-ai-projects/simcore/internal/session"
	"github.com/organization-ai-projects/simcore/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Workers  int
}

// ReplayResult is the replay command's output.
type ReplayResult struct {
	RunID      string `json:"run_id"`
	Recorded   uint64 `json:"recorded_ticks"`
	Replayed   uint64 `json:"replayed_ticks"`
	Verified   bool   `json:"verified"`
	Faults     int    `json:"faults"`
	DesyncTick uint64 `json:"desync_tick,omitempty"`
	Expected   string `json:"expected_hash,omitempty"`
	Actual     string `json:"actual_hash,omitempty"`
	Error      string `json:"error,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <run-id>",
		Short: "Replay a recorded run and verify every tick hash",
		Long: `Replay a recorded run from its seed, configuration and inputs.

Each tick's state hash is compared with the recorded one; the replay stops at
the first tick that differs.

Exit codes:
  0 - Every recorded tick was reproduced
  1 - Replay diverged, or the run was recorded under a different plan
  2 - Command error (database not found, unknown run, etc.)

Examples:
  simcore replay 0190f3c2-... --db runs.db
  simcore replay 0190f3c2-... --db runs.db --workers 4 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "simcore.db", "path to SQLite ledger")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "systems run in parallel per wave (1 = serial)")

	return cmd
}

func runReplay(opts *ReplayOptions, runID string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := opts.Formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	if opts.Workers < 1 {
		return fail(out, CodeInvalidInput, ExitCommandError, fmt.Sprintf("invalid workers %d: must be at least 1", opts.Workers), nil, nil)
	}

	st, err := openLedger(opts.Database)
	if err != nil {
		return fail(out, CodeLedger, ExitCommandError, "failed to open ledger", err, nil)
	}
	defer st.Close()

	rec, err := st.LoadRecording(ctx, runID)
	if err != nil {
		return fail(out, CodeLedger, ExitCommandError, "failed to load run", err, nil)
	}
	out.VerboseLog("Replaying %s: %d ticks, %d events", runID, rec.LastTick(), len(rec.Records))

	outcome, err := session.Replay(ctx, rec, opts.Workers,
		session.WithLogger(logger),
		session.WithObserver(diag.NewSlogObserver(logger)),
	)
	if err != nil {
		var mismatch *scheduler.PlanMismatchError
		if errors.As(err, &mismatch) {
			return fail(out, CodeReplayFailed, ExitFailure, "replay refused", err, nil)
		}
		return fail(out, CodeInvalidInput, ExitCommandError, "failed to start replay", err, nil)
	}

	result := ReplayResult{
		RunID:    runID,
		Recorded: uint64(rec.LastTick()),
		Replayed: uint64(outcome.Ticks),
		Verified: outcome.Verified(),
		Faults:   outcome.Faults,
	}
	var desync *scheduler.ReplayDesyncError
	if errors.As(outcome.Err, &desync) {
		result.DesyncTick = uint64(desync.Tick)
		result.Expected = desync.Expected.String()
		result.Actual = desync.Actual.String()
	}
	if outcome.Err != nil {
		result.Error = outcome.Err.Error()
	}

	if !result.Verified {
		if out.Format != "json" {
			writeReplayText(out.Writer, result)
		}
		return fail(out, CodeReplayFailed, ExitFailure, fmt.Sprintf("replay of %s diverged", runID), outcome.Err, result)
	}
	return out.Emit(result, func(w io.Writer) { writeReplayText(w, result) })
}

func writeReplayText(w io.Writer, r ReplayResult) {
	if r.Verified {
		fmt.Fprintf(w, "✓ %s: %d/%d ticks reproduced\n", r.RunID, r.Replayed, r.Recorded)
		if r.Faults > 0 {
			fmt.Fprintf(w, "  %d skipped faults reproduced\n", r.Faults)
		}
		return
	}
	fmt.Fprintf(w, "✗ %s: %d/%d ticks reproduced\n", r.RunID, r.Replayed, r.Recorded)
	if r.DesyncTick > 0 {
		fmt.Fprintf(w, "  tick %d diverged\n", r.DesyncTick)
		fmt.Fprintf(w, "    expected %s\n", r.Expected)
		fmt.Fprintf(w, "    actual   %s\n", r.Actual)
	} else if r.Error != "" {
		fmt.Fprintf(w, "  %s\n", r.Error)
	}
}

// openLedger opens an existing ledger. Unlike store.Open it refuses to
// create a new file, so a mistyped path is reported instead of silently
// producing an empty ledger.
func openLedger(path string) (*store.Store, error) {
	if err := requireFile(path); err != nil {
		return nil, err
	}
	return store.Open(path)
}
