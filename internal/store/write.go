package store

import (
	"context"
	"fmt"

	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/eventlog"
)

// CreateRun inserts a run header. The run is assigned the next created_seq so
// listings are ordered without wall-clock time. A duplicate id is an error.
func (s *Store) CreateRun(ctx context.Context, h eventlog.Header) error {
	if h.RunID == "" {
		return fmt.Errorf("create run: run id must not be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var next int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(created_seq), 0) + 1 FROM runs`).Scan(&next); err != nil {
		return fmt.Errorf("create run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seed, plan_hash, engine_version, label, config, created_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		h.RunID,
		int64(h.Seed),
		h.PlanHash,
		h.EngineVersion,
		h.Label,
		nonNil(h.Config),
		next,
	)
	if err != nil {
		return fmt.Errorf("create run %s: %w", h.RunID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create run: commit: %w", err)
	}
	return nil
}

// CommitTick writes one tick's events and hash in a single transaction.
// Ticks must arrive in order starting at 1, and record seqs must continue
// the run's sequence.
func (s *Store) CommitTick(ctx context.Context, runID string, batch eventlog.TickBatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit tick: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return fmt.Errorf("commit tick: check run: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("commit tick %d: %w: %s", batch.Tick, ErrRunNotFound, runID)
	}

	var lastTick, lastSeq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(tick), 0) FROM tick_hashes WHERE run_id = ?`, runID).Scan(&lastTick); err != nil {
		return fmt.Errorf("commit tick: last tick: %w", err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events WHERE run_id = ?`, runID).Scan(&lastSeq); err != nil {
		return fmt.Errorf("commit tick: last seq: %w", err)
	}
	if core.Tick(lastTick)+1 != batch.Tick {
		return &eventlog.OutOfOrderError{Tick: batch.Tick, Last: core.Tick(lastTick)}
	}

	for i, r := range batch.Records {
		if r.Tick != batch.Tick {
			return fmt.Errorf("commit tick %d: record seq %d belongs to tick %d", batch.Tick, r.Seq, r.Tick)
		}
		if int64(r.Seq) != lastSeq+int64(i)+1 {
			return fmt.Errorf("commit tick %d: record seq %d does not follow seq %d", batch.Tick, r.Seq, lastSeq+int64(i))
		}
		payload := nonNil(r.Payload)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO events (run_id, seq, tick, system_id, kind, payload)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			runID,
			int64(r.Seq),
			int64(r.Tick),
			string(r.System),
			string(r.Kind),
			payload,
		)
		if err != nil {
			return fmt.Errorf("commit tick %d: insert event seq %d: %w", batch.Tick, r.Seq, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tick_hashes (run_id, tick, hash, event_count)
		VALUES (?, ?, ?, ?)
	`,
		runID,
		int64(batch.Tick),
		batch.Hash.String(),
		len(batch.Records),
	)
	if err != nil {
		return fmt.Errorf("commit tick %d: insert hash: %w", batch.Tick, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tick %d: commit: %w", batch.Tick, err)
	}
	return nil
}

// nonNil keeps NOT NULL blob columns satisfied for empty payloads.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
