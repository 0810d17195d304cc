package scheduler

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/organization-ai-projects/simcore/internal/canon"
	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/eventlog"
	"github.com/organization-ai-projects/simcore/internal/world"
)

// cell is a snapshotting integer resource.
type cell struct {
	N int64
}

func (c *cell) Snapshot() (canon.Value, error) {
	return canon.Int(c.N), nil
}

func tags(ts ...core.ResourceTag) []core.ResourceTag { return ts }

func newWorld(t *testing.T, names ...core.ResourceTag) *world.World {
	t.Helper()
	w := world.New()
	for _, n := range names {
		require.NoError(t, w.Register(n, &cell{}))
	}
	return w
}

func cellOf(t *testing.T, w *world.World, tag core.ResourceTag) *cell {
	t.Helper()
	r, err := w.Get(tag)
	require.NoError(t, err)
	return r.(*cell)
}

// writerA adds a random draw plus every integer input to X.
func writerA(tc *TickContext) error {
	x, err := world.WriteAs[*cell](tc.View, "X")
	if err != nil {
		return err
	}
	x.N += int64(tc.Rand.IntN(100))
	for {
		in, ok := tc.Inputs.Next()
		if !ok {
			break
		}
		n, err := strconv.ParseInt(string(in.Payload), 10, 64)
		if err != nil {
			return err
		}
		x.N += n
	}
	return nil
}

// readerB sets Y from X.
func readerB(tc *TickContext) error {
	x, err := world.ReadAs[*cell](tc.View, "X")
	if err != nil {
		return err
	}
	y, err := world.WriteAs[*cell](tc.View, "Y")
	if err != nil {
		return err
	}
	y.N = x.N*2 + int64(tc.Rand.IntN(3))
	return nil
}

func abPlan(t *testing.T) *Plan {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register("A", nil, tags("X"), writerA))
	require.NoError(t, r.Register("B", tags("X"), tags("Y"), readerB))
	p, err := r.Build()
	require.NoError(t, err)
	return p
}

func recorder(p *Plan, seed core.Seed) *eventlog.Log {
	return eventlog.NewRecorder(eventlog.Header{
		RunID:         "run-1",
		Seed:          seed,
		PlanHash:      p.Fingerprint(),
		EngineVersion: core.EngineVersion,
	})
}

func replayer(t *testing.T, rec eventlog.Recording) *eventlog.Log {
	t.Helper()
	l, err := eventlog.NewReplayer(rec)
	require.NoError(t, err)
	return l
}
