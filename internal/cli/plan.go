package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/organization-ai-projects/simcore/internal/demo"
)

// PlanResult is the plan command's output.
type PlanResult struct {
	Fingerprint string       `json:"fingerprint"`
	Waves       [][]string   `json:"waves"`
	Systems     []SystemInfo `json:"systems"`
}

// SystemInfo describes one system's declared access.
type SystemInfo struct {
	ID        string   `json:"id"`
	Wave      int      `json:"wave"`
	Reads     []string `json:"reads"`
	Writes    []string `json:"writes"`
	DependsOn []string `json:"depends_on"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the colony execution plan",
		Long: `Show the colony systems, their declared resource access and the waves
the dependency graph schedules them in. Systems in one wave never conflict and
may run in parallel.

Examples:
  simcore plan
  simcore plan --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, cmd)
		},
	}
	return cmd
}

func runPlan(opts *RootOptions, cmd *cobra.Command) error {
	out := opts.Formatter(cmd)

	p, err := demo.Plan(demo.DefaultParams())
	if err != nil {
		return fail(out, CodeInvalidInput, ExitCommandError, "failed to build plan", err, nil)
	}
	exec := p.Execution()

	result := PlanResult{Fingerprint: p.Fingerprint()}
	for _, wave := range exec.Waves {
		ids := make([]string, len(wave))
		for i, id := range wave {
			ids[i] = string(id)
		}
		result.Waves = append(result.Waves, ids)
	}
	for _, id := range exec.Order {
		node, _ := exec.Node(id)
		wave, _ := exec.WaveOf(id)
		info := SystemInfo{ID: string(id), Wave: wave, Reads: []string{}, Writes: []string{}, DependsOn: []string{}}
		for _, t := range node.Reads {
			info.Reads = append(info.Reads, string(t))
		}
		for _, t := range node.Writes {
			info.Writes = append(info.Writes, string(t))
		}
		for _, dep := range exec.Dependencies(id) {
			info.DependsOn = append(info.DependsOn, string(dep))
		}
		result.Systems = append(result.Systems, info)
	}

	return out.Emit(result, func(w io.Writer) {
		fmt.Fprint(w, exec.String())
		fmt.Fprintf(w, "fingerprint: %s\n", result.Fingerprint)
		if opts.Verbose {
			for _, s := range result.Systems {
				fmt.Fprintf(w, "  %-12s reads [%s] writes [%s] after [%s]\n", s.ID,
					strings.Join(s.Reads, ", "), strings.Join(s.Writes, ", "), strings.Join(s.DependsOn, ", "))
			}
		}
	})
}
