package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/eventlog"
)

// RunSummary is a run header plus ledger totals.
type RunSummary struct {
	eventlog.Header
	Ticks  core.Tick // last committed tick
	Events int
}

// ReadRun returns the header for runID, or ErrRunNotFound.
func (s *Store) ReadRun(ctx context.Context, runID string) (eventlog.Header, error) {
	var (
		h    eventlog.Header
		seed int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seed, plan_hash, engine_version, label, config
		FROM runs
		WHERE id = ?
	`, runID).Scan(&h.RunID, &seed, &h.PlanHash, &h.EngineVersion, &h.Label, &h.Config)
	if errors.Is(err, sql.ErrNoRows) {
		return eventlog.Header{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return eventlog.Header{}, fmt.Errorf("read run %s: %w", runID, err)
	}
	h.Seed = core.Seed(uint64(seed))
	h.Config = nilIfEmpty(h.Config)
	return h, nil
}

// ListRuns returns every run in creation order.
// Returns an empty slice (not nil) for an empty ledger.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.seed, r.plan_hash, r.engine_version, r.label, r.config,
		       (SELECT COALESCE(MAX(tick), 0) FROM tick_hashes t WHERE t.run_id = r.id),
		       (SELECT COUNT(*) FROM events e WHERE e.run_id = r.id)
		FROM runs r
		ORDER BY r.created_seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			sum  RunSummary
			seed int64
			tick int64
		)
		if err := rows.Scan(&sum.RunID, &seed, &sum.PlanHash, &sum.EngineVersion, &sum.Label, &sum.Config, &tick, &sum.Events); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		sum.Seed = core.Seed(uint64(seed))
		sum.Ticks = core.Tick(tick)
		sum.Config = nilIfEmpty(sum.Config)
		runs = append(runs, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadTickHashes returns the committed hashes of a run ordered by tick.
func (s *Store) ReadTickHashes(ctx context.Context, runID string) ([]eventlog.TickHash, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tick, hash, event_count
		FROM tick_hashes
		WHERE run_id = ?
		ORDER BY tick ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query tick hashes: %w", err)
	}
	defer rows.Close()

	hashes := []eventlog.TickHash{}
	for rows.Next() {
		var (
			tick int64
			hex  string
			th   eventlog.TickHash
		)
		if err := rows.Scan(&tick, &hex, &th.Events); err != nil {
			return nil, fmt.Errorf("scan tick hash: %w", err)
		}
		th.Tick = core.Tick(tick)
		th.Hash, err = core.ParseStateHash(hex)
		if err != nil {
			return nil, fmt.Errorf("tick %d: %w", tick, err)
		}
		hashes = append(hashes, th)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tick hashes: %w", err)
	}
	return hashes, nil
}

// ReadEvents returns the records of a run ordered by (tick, seq).
func (s *Store) ReadEvents(ctx context.Context, runID string) ([]eventlog.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, tick, system_id, kind, payload
		FROM events
		WHERE run_id = ?
		ORDER BY tick ASC, seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	records := []eventlog.Record{}
	for rows.Next() {
		var (
			seq, tick    int64
			system, kind string
			r            eventlog.Record
		)
		if err := rows.Scan(&seq, &tick, &system, &kind, &r.Payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		r.Seq = uint64(seq)
		r.Tick = core.Tick(tick)
		r.System = core.SystemID(system)
		r.Kind = core.EventKind(kind)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}

func nilIfEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
