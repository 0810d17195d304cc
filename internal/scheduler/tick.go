package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/determinism"
	"github.com/organization-ai-projects/simcore/internal/diag"
	"github.com/organization-ai-projects/simcore/internal/eventlog"
)

// TickResult summarizes a completed tick.
type TickResult struct {
	Tick    core.Tick
	Hash    core.StateHash
	Inputs  int
	Systems int
	// Fault is the domain error a FaultSkipTick run absorbed, or nil.
	Fault *DomainError
}

// RunTick executes the next tick. See the package documentation for the
// phases. On any error other than a skipped domain fault the run leaves
// Running: ErrRecordingExhausted stops it, everything else faults it.
func (s *Scheduler) RunTick(ctx context.Context) (TickResult, error) {
	if err := s.beginTick(ctx); err != nil {
		return TickResult{}, err
	}
	defer s.endTick()

	tick := s.Tick() + 1
	if s.log.Mode() == core.ModeReplay && tick > s.log.LastRecordedTick() {
		s.transition(StateStopped, nil)
		s.logger.Info("replay finished", "ticks", tick-1)
		return TickResult{}, ErrRecordingExhausted
	}

	start := s.clock.Now()
	s.observer.TickStarted(tick)
	result := TickResult{Tick: tick}

	inputs, n, err := s.gatherInputs(tick)
	if err != nil {
		return s.fail(tick, result, start, err)
	}
	result.Inputs = n

	ran, derr := s.executeWaves(tick, inputs)
	result.Systems = ran
	if derr != nil {
		if s.policy == FaultHalt || IsFatal(derr.Err) {
			// The recorded tick committed, so it ran without a fault that
			// halts the run. Failing here is a divergence.
			if s.log.Mode() == core.ModeReplay {
				return s.fail(tick, result, start, &ReplayDesyncError{
					Tick:   tick,
					Reason: "replayed tick failed",
					Err:    derr,
				})
			}
			return s.fail(tick, result, start, derr)
		}
		s.logger.Warn("domain error skipped",
			"tick", tick,
			"system", derr.System,
			"error", derr.Err,
		)
		result.Fault = derr
	}

	hash, err := s.hashWorld()
	if err != nil {
		return s.fail(tick, result, start, err)
	}
	result.Hash = hash

	// The tick has run to completion; a cancellation arriving now must not
	// abort its commit.
	if err := s.commit(context.WithoutCancel(ctx), tick, hash); err != nil {
		return s.fail(tick, result, start, err)
	}

	s.complete(tick, hash)
	s.observer.TickEnded(diag.TickReport{
		Tick:     tick,
		Mode:     s.log.Mode(),
		Hash:     hash,
		Duration: s.clock.Now().Sub(start),
		Systems:  result.Systems,
		Inputs:   result.Inputs,
	})
	return result, nil
}

// Run executes ticks until ctx is cancelled, maxTicks ticks have run
// (0 = unbounded), the scheduler is stopped, or the recording is exhausted.
// Cancellation is observed only at tick boundaries.
func (s *Scheduler) Run(ctx context.Context, maxTicks uint64) error {
	for ran := uint64(0); maxTicks == 0 || ran < maxTicks; ran++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.State() == StateStopped {
			return nil
		}
		if _, err := s.RunTick(ctx); err != nil {
			if errors.Is(err, ErrRecordingExhausted) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (s *Scheduler) beginTick(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return &StateError{Op: "run tick", State: s.state}
	}
	if s.inTick {
		return errors.New("run tick: a tick is already executing")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.inTick = true
	return nil
}

// endTick clears the in-tick flag and applies a deferred Stop.
func (s *Scheduler) endTick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inTick = false
	if s.stopReq && s.state == StateRunning {
		s.state = StateStopped
		s.logger.Info("scheduler stopped", "tick", s.tick)
	}
	s.stopReq = false
}

func (s *Scheduler) transition(to State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = to
	s.err = err
}

func (s *Scheduler) complete(tick core.Tick, hash core.StateHash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick = tick
	s.lastHash = hash
}

// fail faults the run with err. The tick counter is not advanced.
func (s *Scheduler) fail(tick core.Tick, result TickResult, start time.Time, err error) (TickResult, error) {
	s.transition(StateFaulted, err)

	if IsReplayDesync(err) {
		s.logger.Error("replay diverged", "tick", tick, "error", err)
	} else {
		s.logger.Warn("scheduler faulted", "tick", tick, "error", err)
	}
	s.observer.TickEnded(diag.TickReport{
		Tick:     tick,
		Mode:     s.log.Mode(),
		Duration: s.clock.Now().Sub(start),
		Systems:  result.Systems,
		Inputs:   result.Inputs,
		Err:      err,
	})
	return result, err
}

// gatherInputs returns the tick's inputs grouped by system in append order.
func (s *Scheduler) gatherInputs(tick core.Tick) (map[core.SystemID][]eventlog.Record, int, error) {
	inputs := make(map[core.SystemID][]eventlog.Record)
	n := 0

	if s.log.Mode() == core.ModeRecord {
		for _, in := range s.queue.drain() {
			stored, err := s.log.Append(eventlog.Record{
				Tick:    tick,
				System:  in.system,
				Kind:    in.kind,
				Payload: in.payload,
			})
			if err != nil {
				return nil, 0, fmt.Errorf("append input for %q: %w", in.system, err)
			}
			inputs[in.system] = append(inputs[in.system], stored)
			n++
		}
		if n > 0 {
			s.observer.LogGrew(s.log.Len())
		}
		return inputs, n, nil
	}

	for _, id := range s.plan.Execution().Order {
		for {
			r, ok := s.log.NextFor(tick, id)
			if !ok {
				break
			}
			inputs[id] = append(inputs[id], r)
			n++
		}
	}
	if left := s.log.Remaining(tick); left > 0 {
		return nil, 0, &ReplayDesyncError{
			Tick:   tick,
			Reason: fmt.Sprintf("%d recorded inputs address systems not in the plan", left),
		}
	}
	return inputs, n, nil
}

// executeWaves runs every wave in order. A wave always runs to its barrier;
// if any system in it failed, later waves are skipped and the failure of the
// earliest system in plan order is returned.
func (s *Scheduler) executeWaves(tick core.Tick, inputs map[core.SystemID][]eventlog.Record) (int, *DomainError) {
	ran := 0
	for w, wave := range s.plan.Execution().Waves {
		errs := make([]error, len(wave))

		if s.workers > 1 && len(wave) > 1 {
			var g errgroup.Group
			g.SetLimit(s.workers)
			for i, id := range wave {
				g.Go(func() error {
					errs[i] = s.runSystem(tick, w, id, inputs[id])
					return nil
				})
			}
			_ = g.Wait()
		} else {
			for i, id := range wave {
				errs[i] = s.runSystem(tick, w, id, inputs[id])
			}
		}
		ran += len(wave)

		for i, err := range errs {
			if err != nil {
				return ran, &DomainError{Tick: tick, System: wave[i], Err: err}
			}
		}
	}
	return ran, nil
}

func (s *Scheduler) runSystem(tick core.Tick, wave int, id core.SystemID, records []eventlog.Record) (err error) {
	node, _ := s.plan.Execution().Node(id)
	tc := &TickContext{
		Tick:   tick,
		System: id,
		View:   s.world.View(node),
		Rand:   s.det.SubStream(tick, id),
		Inputs: &Inputs{records: records},
	}

	start := s.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		s.observer.SystemRan(diag.SystemReport{
			Tick:     tick,
			System:   id,
			Wave:     wave,
			Duration: s.clock.Now().Sub(start),
			Err:      err,
		})
	}()
	return s.plan.systems[id](tc)
}

func (s *Scheduler) hashWorld() (core.StateHash, error) {
	snap, err := s.world.Snapshot()
	if err != nil {
		return core.StateHash{}, err
	}
	return determinism.HashState(snap)
}

// commit records the hash (record mode) or verifies it (replay mode).
func (s *Scheduler) commit(ctx context.Context, tick core.Tick, hash core.StateHash) error {
	if s.log.Mode() == core.ModeRecord {
		return s.log.CommitTick(ctx, tick, hash)
	}

	expected, ok := s.log.ExpectedHash(tick)
	if !ok {
		return &ReplayDesyncError{Tick: tick, Actual: hash, Reason: "no recorded hash"}
	}
	if expected != hash {
		return &ReplayDesyncError{Tick: tick, Expected: expected, Actual: hash}
	}
	return nil
}
