package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/determinism"
	"github.com/organization-ai-projects/simcore/internal/diag"
	"github.com/organization-ai-projects/simcore/internal/eventlog"
	"github.com/organization-ai-projects/simcore/internal/world"
)

// Clock supplies wall time for diagnostics durations only. It never
// influences scheduling or hashing.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Scheduler drives one simulation run. Construct a fresh Scheduler per run.
type Scheduler struct {
	mu       sync.Mutex
	state    State
	tick     core.Tick // last completed tick
	lastHash core.StateHash
	err      error
	inTick   bool
	stopReq  bool

	world *world.World
	plan  *Plan
	log   *eventlog.Log
	det   *determinism.Determinism
	queue *inputQueue

	workers     int
	policy      FaultPolicy
	rawObserver diag.Observer
	observer    *diag.Guarded
	logger      *slog.Logger
	clock       Clock
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithParallel runs systems of a wave on up to workers goroutines.
// Values below 2 run every wave serially (the default).
func WithParallel(workers int) Option {
	return func(s *Scheduler) {
		s.workers = workers
	}
}

// WithFaultPolicy sets how domain errors are handled. Default: FaultHalt.
func WithFaultPolicy(p FaultPolicy) Option {
	return func(s *Scheduler) {
		s.policy = p
	}
}

// WithObserver attaches a diagnostics observer.
func WithObserver(obs diag.Observer) Option {
	return func(s *Scheduler) {
		s.rawObserver = obs
	}
}

// WithLogger sets the structured logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithClock sets the clock used to time ticks and systems.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// New creates an idle scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		state:  StateIdle,
		queue:  newInputQueue(),
		logger: slog.New(slog.DiscardHandler),
		clock:  systemClock{},
	}

	for _, opt := range opts {
		opt(s)
	}
	s.observer = diag.Guard(s.rawObserver, s.logger)
	return s
}

// Start binds the run and enters Running. The mode and seed come from the
// log. A replay log must have been recorded under the same plan fingerprint,
// and every tag the plan declares must exist in w. A record log must be
// empty.
func (s *Scheduler) Start(w *world.World, p *Plan, log *eventlog.Log) error {
	if w == nil || p == nil || log == nil {
		return errors.New("start: world, plan and log are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return &StateError{Op: "start", State: s.state}
	}

	h := log.Header()
	switch log.Mode() {
	case core.ModeReplay:
		if h.PlanHash != p.Fingerprint() {
			return &PlanMismatchError{Recorded: h.PlanHash, Current: p.Fingerprint()}
		}
	case core.ModeRecord:
		if h.PlanHash != "" && h.PlanHash != p.Fingerprint() {
			return &PlanMismatchError{Recorded: h.PlanHash, Current: p.Fingerprint()}
		}
		if log.Len() > 0 || log.LastRecordedTick() > 0 {
			return errors.New("start: record log must be empty")
		}
	}

	if err := w.Require(p.Execution().Systems...); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	w.Seal()

	s.world = w
	s.plan = p
	s.log = log
	s.det = determinism.New(h.Seed)
	s.state = StateRunning

	s.logger.Info("scheduler started",
		"run_id", h.RunID,
		"mode", log.Mode().String(),
		"seed", uint64(h.Seed),
		"systems", len(p.Execution().Order),
		"waves", len(p.Execution().Waves),
		"plan", p.Fingerprint(),
		"workers", max(s.workers, 1),
	)
	if unhashed := w.Unhashed(); len(unhashed) > 0 {
		s.logger.Info("resources outside the state hash", "tags", unhashed)
	}
	return nil
}

// Submit queues an input for system. It is appended to the log at the next
// tick boundary and delivered to the system during that tick.
func (s *Scheduler) Submit(system core.SystemID, kind core.EventKind, payload []byte) error {
	s.mu.Lock()
	state, log, plan := s.state, s.log, s.plan
	s.mu.Unlock()

	if state != StateRunning {
		return &StateError{Op: "submit input", State: state}
	}
	if log.Mode() == core.ModeReplay {
		return ErrReplayInput
	}
	if !plan.Has(system) {
		return fmt.Errorf("submit input: unknown system %q", system)
	}
	s.queue.push(pendingInput{system: system, kind: kind, payload: slices.Clone(payload)})
	return nil
}

// Stop transitions to Stopped. If a tick is executing, the transition
// happens when it completes; the tick itself is never cut short.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state.Terminal():
		return
	case s.inTick:
		s.stopReq = true
	default:
		s.state = StateStopped
		s.logger.Info("scheduler stopped", "tick", s.tick)
	}
}

// State returns the lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Tick returns the last completed tick (0 before the first).
func (s *Scheduler) Tick() core.Tick {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// LastHash returns the state hash of the last completed tick.
func (s *Scheduler) LastHash() core.StateHash {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHash
}

// Err returns the error that faulted the run, if any.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Mode returns the bound log's mode, or 0 before Start.
func (s *Scheduler) Mode() core.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.log == nil {
		return 0
	}
	return s.log.Mode()
}

// Pending returns the number of submitted inputs waiting for the next tick.
func (s *Scheduler) Pending() int {
	return s.queue.len()
}
