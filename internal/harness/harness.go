package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/organization-ai-projects/simcore/internal/eventlog"
	"github.com/organization-ai-projects/simcore/internal/scheduler"
	"github.com/organization-ai-projects/simcore/internal/session"
	"github.com/organization-ai-projects/simcore/internal/store"
	"github.com/organization-ai-projects/simcore/internal/testutil"
)

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Errors lists failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Record is the recorded run.
	Record *session.Outcome `json:"-"`

	// Replay re-executed the recording as loaded back from the ledger.
	Replay *session.Outcome `json:"-"`

	// Tampered replayed the altered recording, or is nil.
	Tampered *session.Outcome `json:"-"`
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger sets the logger handed to the scheduler. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// Run executes a scenario and evaluates its expectations.
//
// Each scenario runs in a fresh in-memory ledger with a fixed run id and a
// deterministic clock.
//
// Execution flow:
// 1. Record the manifest into the ledger
// 2. Load the recording back from the ledger and replay it
// 3. Replay a tampered copy, if the scenario has one
// 4. Evaluate expectations
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	rc := runConfig{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&rc)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	cfg, err := scenario.Run.Session()
	if err != nil {
		return nil, err
	}
	sessionOpts := []session.Option{
		session.WithRunIDs(testutil.NewFixedRunIDGenerator(scenario.RunID)),
		session.WithClock(testutil.NewDeterministicClock(time.Millisecond)),
		session.WithLogger(rc.logger),
	}

	recorded, err := session.Record(ctx, cfg, append(sessionOpts, session.WithLedger(st))...)
	if err != nil {
		return nil, fmt.Errorf("failed to record: %w", err)
	}

	rec, err := st.LoadRecording(ctx, recorded.Header.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recording: %w", err)
	}
	replayed, err := session.Replay(ctx, rec, cfg.Workers, sessionOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to replay: %w", err)
	}

	result := &Result{Record: recorded, Replay: replayed}

	if scenario.Tamper != nil {
		altered, err := tamper(rec, *scenario.Tamper)
		if err != nil {
			return nil, err
		}
		result.Tampered, err = session.Replay(ctx, altered, cfg.Workers, sessionOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to replay tampered recording: %w", err)
		}
	}

	for _, err := range evaluate(scenario.Expect, result) {
		result.Errors = append(result.Errors, err.Error())
	}
	result.Pass = len(result.Errors) == 0
	return result, nil
}

// tamper returns a copy of rec with one payload replaced.
func tamper(rec eventlog.Recording, t Tamper) (eventlog.Recording, error) {
	out := rec
	out.Records = slices.Clone(rec.Records)
	for i := range out.Records {
		if out.Records[i].Seq == t.Seq {
			out.Records[i].Payload = []byte(t.Payload)
			return out, nil
		}
	}
	return eventlog.Recording{}, fmt.Errorf("tamper: no record with seq %d (recording has %d)", t.Seq, len(rec.Records))
}

// desyncTick returns the tick at which a replay diverged, or 0.
func desyncTick(err error) uint64 {
	var desync *scheduler.ReplayDesyncError
	if errors.As(err, &desync) {
		return uint64(desync.Tick)
	}
	return 0
}
