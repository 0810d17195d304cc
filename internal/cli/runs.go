package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
}

// RunInfo is one row of the runs command's output.
type RunInfo struct {
	RunID         string `json:"run_id"`
	Seed          uint64 `json:"seed"`
	Label         string `json:"label,omitempty"`
	Ticks         uint64 `json:"ticks"`
	Events        int    `json:"events"`
	PlanHash      string `json:"plan_hash"`
	EngineVersion string `json:"engine_version"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Long: `List every run in the ledger in creation order.

Examples:
  simcore runs --db runs.db
  simcore runs --db runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "simcore.db", "path to SQLite ledger")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	out := opts.Formatter(cmd)

	st, err := openLedger(opts.Database)
	if err != nil {
		return fail(out, CodeLedger, ExitCommandError, "failed to open ledger", err, nil)
	}
	defer st.Close()

	summaries, err := st.ListRuns(cmd.Context())
	if err != nil {
		return fail(out, CodeLedger, ExitCommandError, "failed to list runs", err, nil)
	}

	runs := make([]RunInfo, 0, len(summaries))
	for _, s := range summaries {
		runs = append(runs, RunInfo{
			RunID:         s.RunID,
			Seed:          uint64(s.Seed),
			Label:         s.Label,
			Ticks:         uint64(s.Ticks),
			Events:        s.Events,
			PlanHash:      s.PlanHash,
			EngineVersion: s.EngineVersion,
		})
	}

	return out.Emit(runs, func(w io.Writer) {
		if len(runs) == 0 {
			fmt.Fprintln(w, "No runs found in ledger.")
			return
		}
		for _, r := range runs {
			fmt.Fprintf(w, "%s  seed=%d ticks=%d events=%d", r.RunID, r.Seed, r.Ticks, r.Events)
			if r.Label != "" {
				fmt.Fprintf(w, "  %s", r.Label)
			}
			fmt.Fprintln(w)
		}
	})
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
