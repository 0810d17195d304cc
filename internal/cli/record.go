package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/organization-ai-projects/simcore/internal/config"
	"github.com/organization-ai-projects/simcore/internal/demo"
	"github.com/organization-ai-projects/simcore/internal/diag"
	"github.com/organization-ai-projects/simcore/internal/session"
	"github.com/organization-ai-projects/simcore/internal/store"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Manifest    string
	Database    string
	Seed        uint64
	Ticks       uint64
	Workers     int
	Label       string
	FaultPolicy string
}

// RecordResult is the record command's output.
type RecordResult struct {
	RunID     string       `json:"run_id"`
	Seed      uint64       `json:"seed"`
	Ticks     uint64       `json:"ticks"`
	State     string       `json:"state"`
	Faults    int          `json:"faults"`
	Events    int          `json:"events"`
	FinalHash string       `json:"final_hash,omitempty"`
	PlanHash  string       `json:"plan_hash"`
	Colony    demo.Summary `json:"colony"`
	Error     string       `json:"error,omitempty"`
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a colony run into the ledger",
		Long: `Record a colony simulation run.

The run is configured by an optional YAML manifest; flags override manifest
values. Every tick's inputs and state hash are committed to the ledger.

Exit codes:
  0 - Run completed
  1 - Run ended with an error (domain fault under the halt policy, etc.)
  2 - Command error (invalid manifest, database not writable, etc.)

Examples:
  simcore record --ticks 100 --seed 42
  simcore record --manifest colony.yaml --db runs.db
  simcore record --manifest colony.yaml --workers 4 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Manifest, "manifest", "m", "", "path to run manifest (YAML)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite ledger (overrides manifest)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "root seed")
	cmd.Flags().Uint64Var(&opts.Ticks, "ticks", 0, "number of ticks to run")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "systems run in parallel per wave (1 = serial)")
	cmd.Flags().StringVar(&opts.Label, "label", "", "free-form run label")
	cmd.Flags().StringVar(&opts.FaultPolicy, "fault-policy", "", "domain error handling (halt|skip-tick)")

	return cmd
}

// loadManifest reads the manifest (or the defaults) and applies changed flags.
func loadManifest(opts *RecordOptions, cmd *cobra.Command) (*config.Manifest, error) {
	m := config.Default()
	if opts.Manifest != "" {
		loaded, err := config.Load(opts.Manifest)
		if err != nil {
			return nil, err
		}
		m = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		m.Ledger = opts.Database
	}
	if flags.Changed("seed") {
		m.Seed = opts.Seed
	}
	if flags.Changed("ticks") {
		m.Ticks = opts.Ticks
	}
	if flags.Changed("workers") {
		m.Workers = opts.Workers
	}
	if flags.Changed("label") {
		m.Label = opts.Label
	}
	if flags.Changed("fault-policy") {
		m.FaultPolicy = opts.FaultPolicy
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func runRecord(opts *RecordOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := opts.Formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	m, err := loadManifest(opts, cmd)
	if err != nil {
		return fail(out, CodeInvalidInput, ExitCommandError, "invalid run configuration", err, nil)
	}
	cfg, err := m.Session()
	if err != nil {
		return fail(out, CodeInvalidInput, ExitCommandError, "invalid run configuration", err, nil)
	}

	st, err := store.Open(m.Ledger)
	if err != nil {
		return fail(out, CodeLedger, ExitCommandError, "failed to open ledger", err, nil)
	}
	defer st.Close()
	out.VerboseLog("Recording %d ticks into %s", m.Ticks, m.Ledger)

	counters := diag.NewCounters()
	sessionOpts := []session.Option{
		session.WithLedger(st),
		session.WithLogger(logger),
		session.WithObserver(diag.Multi(counters, diag.NewSlogObserver(logger))),
	}
	if opts.RunIDs != nil {
		sessionOpts = append(sessionOpts, session.WithRunIDs(opts.RunIDs))
	}

	outcome, err := session.Record(ctx, cfg, sessionOpts...)
	if err != nil {
		return fail(out, CodeInvalidInput, ExitCommandError, "failed to start run", err, nil)
	}

	result := RecordResult{
		RunID:    outcome.Header.RunID,
		Seed:     uint64(outcome.Header.Seed),
		Ticks:    uint64(outcome.Ticks),
		State:    outcome.State.String(),
		Faults:   outcome.Faults,
		Events:   len(outcome.Recording.Records),
		PlanHash: outcome.Header.PlanHash,
		Colony:   outcome.Summary,
	}
	if n := len(outcome.Hashes); n > 0 {
		result.FinalHash = outcome.Hashes[n-1].Hash.String()
	}
	if outcome.Err != nil {
		result.Error = outcome.Err.Error()
	}

	stats := counters.Snapshot()
	out.VerboseLog("%d ticks, %d system runs, %s inside systems", stats.Ticks, stats.SystemRuns, stats.SystemTime)

	if outcome.Err != nil {
		if out.Format != "json" {
			writeRecordText(out.Writer, result)
		}
		msg := fmt.Sprintf("run %s ended at tick %d", result.RunID, result.Ticks)
		return fail(out, CodeRunFaulted, ExitFailure, msg, outcome.Err, result)
	}
	return out.Emit(result, func(w io.Writer) { writeRecordText(w, result) })
}

func writeRecordText(w io.Writer, r RecordResult) {
	fmt.Fprintf(w, "Run %s\n", r.RunID)
	fmt.Fprintf(w, "  seed:   %d\n", r.Seed)
	fmt.Fprintf(w, "  ticks:  %d (%s)\n", r.Ticks, r.State)
	fmt.Fprintf(w, "  events: %d\n", r.Events)
	if r.Faults > 0 {
		fmt.Fprintf(w, "  faults: %d skipped\n", r.Faults)
	}
	if r.FinalHash != "" {
		fmt.Fprintf(w, "  hash:   %s\n", r.FinalHash)
	}
	writeColonyText(w, r.Colony)
	if r.Error != "" {
		fmt.Fprintf(w, "  error:  %s\n", r.Error)
	}
}

func writeColonyText(w io.Writer, c demo.Summary) {
	fmt.Fprintf(w, "  colony: %d colonists, %d food, %s (rain %d)\n", c.Population, c.Food, c.Season, c.Rainfall)
	fmt.Fprintf(w, "          %d arrived, %d died, %d exiled, %d turned away\n", c.Arrivals, c.Deaths, c.Exiles, c.TurnedAway)
}
