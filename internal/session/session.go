package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/demo"
	"github.com/organization-ai-projects/simcore/internal/diag"
	"github.com/organization-ai-projects/simcore/internal/eventlog"
	"github.com/organization-ai-projects/simcore/internal/scheduler"
)

// Input is an external event submitted just before tick Tick executes.
type Input struct {
	Tick    core.Tick
	System  core.SystemID
	Kind    core.EventKind
	Payload []byte
}

// Config describes a recorded run.
type Config struct {
	Seed    core.Seed
	Ticks   uint64
	Workers int
	Label   string
	Domain  Domain
	Inputs  []Input
}

// Ledger persists runs. *store.Store implements it.
type Ledger interface {
	eventlog.Sink
	CreateRun(ctx context.Context, h eventlog.Header) error
}

// Option configures Record and Replay.
type Option func(*options)

type options struct {
	ledger   Ledger
	runIDs   eventlog.RunIDGenerator
	logger   *slog.Logger
	observer diag.Observer
	clock    scheduler.Clock
}

// WithLedger persists a recorded run. Ignored by Replay.
func WithLedger(l Ledger) Option {
	return func(o *options) {
		o.ledger = l
	}
}

// WithRunIDs sets the run id generator. Default: UUIDv7.
func WithRunIDs(g eventlog.RunIDGenerator) Option {
	return func(o *options) {
		o.runIDs = g
	}
}

// WithLogger sets the logger handed to the scheduler.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver attaches a diagnostics observer to the scheduler.
func WithObserver(obs diag.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithClock sets the scheduler clock.
func WithClock(c scheduler.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

func buildOptions(opts []Option) options {
	o := options{
		runIDs: eventlog.UUIDv7Generator{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) scheduler(workers int, policy scheduler.FaultPolicy) *scheduler.Scheduler {
	sopts := []scheduler.Option{
		scheduler.WithParallel(workers),
		scheduler.WithFaultPolicy(policy),
		scheduler.WithLogger(o.logger),
	}
	if o.observer != nil {
		sopts = append(sopts, scheduler.WithObserver(o.observer))
	}
	if o.clock != nil {
		sopts = append(sopts, scheduler.WithClock(o.clock))
	}
	return scheduler.New(sopts...)
}

// Outcome is the result of a run.
type Outcome struct {
	Header eventlog.Header
	// Ticks is the last committed tick.
	Ticks core.Tick
	State scheduler.State
	// Err is the error that ended the run early, or nil.
	Err error
	// Faults counts domain errors absorbed under FaultSkipTick.
	Faults int
	// Hashes are the hashes computed by this run, one per committed tick.
	Hashes []eventlog.TickHash
	// Recording is the committed log. For a replay it is the input recording.
	Recording eventlog.Recording
	Summary   demo.Summary
}

// Verified reports whether a replay reproduced every recorded tick.
func (o *Outcome) Verified() bool {
	return o.Err == nil && o.Ticks == o.Recording.LastTick()
}

// Record executes cfg.Ticks ticks in record mode.
func Record(ctx context.Context, cfg Config, opts ...Option) (*Outcome, error) {
	o := buildOptions(opts)

	if cfg.Ticks == 0 {
		return nil, errors.New("record: ticks must be at least 1")
	}
	colony, err := demo.New(cfg.Domain.Colony)
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	inputs, err := scriptInputs(cfg.Inputs, cfg.Ticks, colony.Plan)
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	domain, err := cfg.Domain.Encode()
	if err != nil {
		return nil, fmt.Errorf("record: encode domain: %w", err)
	}

	header := eventlog.Header{
		RunID:         o.runIDs.Generate(),
		Seed:          cfg.Seed,
		PlanHash:      colony.Plan.Fingerprint(),
		EngineVersion: core.EngineVersion,
		Label:         cfg.Label,
		Config:        domain,
	}

	var logOpts []eventlog.Option
	if o.ledger != nil {
		if err := o.ledger.CreateRun(ctx, header); err != nil {
			return nil, fmt.Errorf("record: %w", err)
		}
		logOpts = append(logOpts, eventlog.WithSink(o.ledger))
	}
	log := eventlog.NewRecorder(header, logOpts...)

	sched := o.scheduler(cfg.Workers, cfg.Domain.FaultPolicy)
	if err := sched.Start(colony.World, colony.Plan, log); err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}

	out := &Outcome{Header: header}
	for tick := core.Tick(1); uint64(tick) <= cfg.Ticks; tick++ {
		for _, in := range inputs[tick] {
			if err := sched.Submit(in.System, in.Kind, in.Payload); err != nil {
				out.Err = fmt.Errorf("tick %d: %w", tick, err)
				break
			}
		}
		if out.Err != nil {
			break
		}

		res, err := sched.RunTick(ctx)
		if err != nil {
			out.Err = err
			break
		}
		if res.Fault != nil {
			out.Faults++
		}
		out.Hashes = append(out.Hashes, eventlog.TickHash{Tick: res.Tick, Hash: res.Hash, Events: res.Inputs})
	}

	finish(sched, out)
	out.Recording = log.Recording()
	out.Summary = colony.Summary()
	return out, nil
}

// Replay re-executes rec and verifies every tick hash.
func Replay(ctx context.Context, rec eventlog.Recording, workers int, opts ...Option) (*Outcome, error) {
	o := buildOptions(opts)

	domain, err := DecodeDomain(rec.Header.Config)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", rec.Header.RunID, err)
	}
	colony, err := demo.New(domain.Colony)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", rec.Header.RunID, err)
	}
	log, err := eventlog.NewReplayer(rec)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", rec.Header.RunID, err)
	}

	sched := o.scheduler(workers, domain.FaultPolicy)
	if err := sched.Start(colony.World, colony.Plan, log); err != nil {
		return nil, fmt.Errorf("replay %s: %w", rec.Header.RunID, err)
	}

	out := &Outcome{Header: log.Header(), Recording: log.Recording()}
	for {
		res, err := sched.RunTick(ctx)
		if errors.Is(err, scheduler.ErrRecordingExhausted) {
			break
		}
		if err != nil {
			out.Err = err
			break
		}
		if res.Fault != nil {
			out.Faults++
		}
		out.Hashes = append(out.Hashes, eventlog.TickHash{Tick: res.Tick, Hash: res.Hash, Events: res.Inputs})
	}

	finish(sched, out)
	out.Summary = colony.Summary()
	return out, nil
}

func finish(sched *scheduler.Scheduler, out *Outcome) {
	if sched.State() == scheduler.StateRunning {
		sched.Stop()
	}
	out.Ticks = sched.Tick()
	out.State = sched.State()
}

// scriptInputs groups inputs by tick, keeping their relative order.
func scriptInputs(inputs []Input, ticks uint64, plan *scheduler.Plan) (map[core.Tick][]Input, error) {
	byTick := make(map[core.Tick][]Input)
	for i, in := range inputs {
		if in.Tick < 1 || uint64(in.Tick) > ticks {
			return nil, fmt.Errorf("input %d: tick %d outside 1..%d", i, in.Tick, ticks)
		}
		if !plan.Has(in.System) {
			return nil, fmt.Errorf("input %d: unknown system %q", i, in.System)
		}
		in.Payload = slices.Clone(in.Payload)
		byTick[in.Tick] = append(byTick[in.Tick], in)
	}
	return byTick, nil
}
