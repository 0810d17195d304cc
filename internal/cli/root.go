package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/organization-ai-projects/simcore/internal/eventlog"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	LogLevel   string
	Profile    string // "" | "cpu" | "mem"
	ProfileDir string

	// RunIDs overrides the run id generator of recorded runs.
	RunIDs eventlog.RunIDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidProfiles defines the allowed --profile values.
var ValidProfiles = []string{"cpu", "mem"}

// NewRootCommand creates the root command for the simcore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "simcore",
		Short: "simcore - deterministic tick-based simulation runtime",
		Long: `Record, replay and inspect deterministic simulation runs.

Runs are recorded into a SQLite ledger: every external input and the state
hash of every tick. A replay re-executes the run from its seed and inputs and
fails at the first tick whose hash differs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if _, err := parseLevel(opts.LogLevel); err != nil {
				return WrapExitError(ExitCommandError, "invalid log level", err)
			}
			return opts.startProfile()
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Profile, "profile", "", "write a profile (cpu|mem)")
	cmd.PersistentFlags().StringVar(&opts.ProfileDir, "profile-dir", ".", "directory for profile output")

	// Add subcommands
	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// pkg/profile allows one profile per process, so the running one is
// process state rather than per-command state.
var (
	profileMu    sync.Mutex
	profiler     interface{ Stop() }
	finalizeOnce sync.Once
)

// StopProfile flushes a running profile. Safe to call more than once.
func (o *RootOptions) StopProfile() {
	stopProfile()
}

func stopProfile() {
	profileMu.Lock()
	defer profileMu.Unlock()
	if profiler != nil {
		profiler.Stop()
		profiler = nil
	}
}

func (o *RootOptions) startProfile() error {
	var mode func(*profile.Profile)
	switch o.Profile {
	case "":
		return nil
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfileAllocs
	default:
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid profile %q: must be one of %v", o.Profile, ValidProfiles))
	}

	// Finalizers also run when the command fails.
	finalizeOnce.Do(func() { cobra.OnFinalize(stopProfile) })

	profileMu.Lock()
	defer profileMu.Unlock()
	if profiler != nil {
		return NewExitError(ExitCommandError, "a profile is already running")
	}
	profiler = profile.Start(mode, profile.ProfilePath(o.ProfileDir), profile.NoShutdownHook, profile.Quiet)
	return nil
}

// Logger builds the structured logger for a command. Text output gets a
// human-readable leveled handler; JSON output gets JSON lines so logs on
// stderr stay machine readable.
func (o *RootOptions) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(o.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	if o.Verbose && level > slog.LevelInfo {
		level = slog.LevelInfo
	}

	if o.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(log.NewWithOptions(w, log.Options{
		Level:           log.Level(level),
		ReportTimestamp: true,
		Prefix:          "simcore",
	}))
}

// Formatter returns the output formatter for a command.
func (o *RootOptions) Formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return level, nil
}
