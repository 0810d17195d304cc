package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/organization-ai-projects/simcore/internal/core"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database string
	Tick     uint64 // 0 = every tick
}

// InspectResult is the inspect command's output.
type InspectResult struct {
	RunInfo
	Config json.RawMessage `json:"config,omitempty"`
	Ticks  []TickInfo      `json:"tick_log"`
}

// TickInfo is one committed tick.
type TickInfo struct {
	Tick   uint64      `json:"tick"`
	Hash   string      `json:"hash"`
	Events []EventInfo `json:"events"`
}

// EventInfo is one recorded input.
type EventInfo struct {
	Seq     uint64 `json:"seq"`
	System  string `json:"system"`
	Kind    string `json:"kind"`
	Payload string `json:"payload"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <run-id>",
		Short: "Show a run's tick hashes and inputs",
		Long: `Show the header, configuration, tick hashes and recorded inputs of a run.

Examples:
  simcore inspect 0190f3c2-... --db runs.db
  simcore inspect 0190f3c2-... --db runs.db --tick 12
  simcore inspect 0190f3c2-... --db runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "simcore.db", "path to SQLite ledger")
	cmd.Flags().Uint64Var(&opts.Tick, "tick", 0, "show only this tick")

	return cmd
}

func runInspect(opts *InspectOptions, runID string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := opts.Formatter(cmd)

	st, err := openLedger(opts.Database)
	if err != nil {
		return fail(out, CodeLedger, ExitCommandError, "failed to open ledger", err, nil)
	}
	defer st.Close()

	h, err := st.ReadRun(ctx, runID)
	if err != nil {
		return fail(out, CodeLedger, ExitCommandError, "failed to read run", err, nil)
	}
	hashes, err := st.ReadTickHashes(ctx, runID)
	if err != nil {
		return fail(out, CodeLedger, ExitCommandError, "failed to read tick hashes", err, nil)
	}
	events, err := st.ReadEvents(ctx, runID)
	if err != nil {
		return fail(out, CodeLedger, ExitCommandError, "failed to read events", err, nil)
	}

	last := uint64(0)
	if n := len(hashes); n > 0 {
		last = uint64(hashes[n-1].Tick)
	}
	if opts.Tick > last {
		return fail(out, CodeInvalidInput, ExitCommandError,
			fmt.Sprintf("tick %d not recorded: run %s has %d ticks", opts.Tick, runID, last), nil, nil)
	}

	byTick := make(map[core.Tick][]EventInfo)
	for _, e := range events {
		byTick[e.Tick] = append(byTick[e.Tick], EventInfo{
			Seq:     e.Seq,
			System:  string(e.System),
			Kind:    string(e.Kind),
			Payload: string(e.Payload),
		})
	}

	result := InspectResult{
		RunInfo: RunInfo{
			RunID:         h.RunID,
			Seed:          uint64(h.Seed),
			Label:         h.Label,
			Ticks:         last,
			Events:        len(events),
			PlanHash:      h.PlanHash,
			EngineVersion: h.EngineVersion,
		},
		Ticks: []TickInfo{},
	}
	if len(h.Config) > 0 {
		result.Config = json.RawMessage(h.Config)
	}
	for _, th := range hashes {
		if opts.Tick != 0 && uint64(th.Tick) != opts.Tick {
			continue
		}
		evs := byTick[th.Tick]
		if evs == nil {
			evs = []EventInfo{}
		}
		result.Ticks = append(result.Ticks, TickInfo{Tick: uint64(th.Tick), Hash: th.Hash.String(), Events: evs})
	}

	return out.Emit(result, func(w io.Writer) { writeInspectText(w, result) })
}

func writeInspectText(w io.Writer, r InspectResult) {
	fmt.Fprintf(w, "Run %s\n", r.RunID)
	fmt.Fprintf(w, "  seed:    %d\n", r.Seed)
	if r.Label != "" {
		fmt.Fprintf(w, "  label:   %s\n", r.Label)
	}
	fmt.Fprintf(w, "  ticks:   %d\n", r.RunInfo.Ticks)
	fmt.Fprintf(w, "  events:  %d\n", r.Events)
	fmt.Fprintf(w, "  plan:    %s\n", r.PlanHash)
	fmt.Fprintf(w, "  engine:  %s\n", r.EngineVersion)
	if len(r.Config) > 0 {
		fmt.Fprintf(w, "  config:  %s\n", r.Config)
	}
	for _, t := range r.Ticks {
		fmt.Fprintf(w, "tick %d  %s\n", t.Tick, t.Hash)
		for _, e := range t.Events {
			fmt.Fprintf(w, "  #%d %s %s %s\n", e.Seq, e.System, e.Kind, e.Payload)
		}
	}
}
