package store

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/eventlog"
)

func TestCreateRun_ReadRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	h := createTestHeader("run-1", math.MaxUint64)
	h.Label = "overnight"
	h.Config = []byte(`{"capacity":8}`)
	require.NoError(t, s.CreateRun(ctx, h))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, h, got, "uint64 seed survives the int64 bit-cast")

	assert.Error(t, s.CreateRun(ctx, h), "duplicate run id")
	assert.Error(t, s.CreateRun(ctx, eventlog.Header{}), "empty run id")
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = s.LoadRecording(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns_CreationOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	for _, id := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, s.CreateRun(ctx, createTestHeader(id, 1)))
	}
	require.NoError(t, s.CommitTick(ctx, "alpha", eventlog.TickBatch{
		Tick:    1,
		Records: []eventlog.Record{{Seq: 1, Tick: 1, System: "a", Kind: "k", Payload: []byte("x")}},
		Hash:    testHash(1),
	}))

	runs, err = s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "zeta", runs[0].RunID)
	assert.Equal(t, "alpha", runs[1].RunID)
	assert.Equal(t, "mid", runs[2].RunID)
	assert.Equal(t, core.Tick(1), runs[1].Ticks)
	assert.Equal(t, 1, runs[1].Events)
	assert.Equal(t, core.Tick(0), runs[0].Ticks)
}

func TestCommitTick_RoundTripsThroughRecording(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateRun(ctx, createTestHeader("run-1", 42)))

	log := eventlog.NewRecorder(createTestHeader("run-1", 42), eventlog.WithSink(s))
	_, err := log.Append(eventlog.Record{Tick: 1, System: "immigration", Kind: "immigrant", Payload: []byte(`{"name":"ada"}`)})
	require.NoError(t, err)
	_, err = log.Append(eventlog.Record{Tick: 1, System: "harvest", Kind: "bonus", Payload: []byte("3")})
	require.NoError(t, err)
	require.NoError(t, log.CommitTick(ctx, 1, testHash(1)))
	require.NoError(t, log.CommitTick(ctx, 2, testHash(2)))
	_, err = log.Append(eventlog.Record{Tick: 3, System: "immigration", Kind: "immigrant", Payload: []byte(`{"name":"bo"}`)})
	require.NoError(t, err)
	require.NoError(t, log.CommitTick(ctx, 3, testHash(3)))

	rec, err := s.LoadRecording(ctx, "run-1")
	require.NoError(t, err)
	want := log.Recording()

	assert.Equal(t, want.Header, rec.Header)
	assert.Equal(t, want.Hashes, rec.Hashes)
	require.Len(t, rec.Records, len(want.Records))
	for i := range want.Records {
		assert.Equal(t, want.Records[i].Seq, rec.Records[i].Seq)
		assert.Equal(t, want.Records[i].Tick, rec.Records[i].Tick)
		assert.Equal(t, want.Records[i].System, rec.Records[i].System)
		assert.Equal(t, want.Records[i].Kind, rec.Records[i].Kind)
		assert.Equal(t, string(want.Records[i].Payload), string(rec.Records[i].Payload))
	}

	replayer, err := eventlog.NewReplayer(rec)
	require.NoError(t, err)
	first, ok := replayer.NextFor(1, "harvest")
	require.True(t, ok)
	assert.Equal(t, "3", string(first.Payload))
}

func TestCommitTick_Rejections(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateRun(ctx, createTestHeader("run-1", 1)))

	err := s.CommitTick(ctx, "ghost", eventlog.TickBatch{Tick: 1})
	assert.ErrorIs(t, err, ErrRunNotFound)

	err = s.CommitTick(ctx, "run-1", eventlog.TickBatch{Tick: 2})
	assert.True(t, eventlog.IsOutOfOrder(err), "tick gap")

	err = s.CommitTick(ctx, "run-1", eventlog.TickBatch{
		Tick:    1,
		Records: []eventlog.Record{{Seq: 2, Tick: 1, System: "a", Kind: "k"}},
	})
	assert.ErrorContains(t, err, "does not follow")

	err = s.CommitTick(ctx, "run-1", eventlog.TickBatch{
		Tick:    1,
		Records: []eventlog.Record{{Seq: 1, Tick: 2, System: "a", Kind: "k"}},
	})
	assert.ErrorContains(t, err, "belongs to tick 2")

	// Failed commits leave nothing behind.
	hashes, err := s.ReadTickHashes(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, hashes)
	events, err := s.ReadEvents(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCommitTick_IsAtomic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateRun(ctx, createTestHeader("run-1", 1)))

	// The second record fails validation after the first was already
	// inserted inside the transaction.
	err := s.CommitTick(ctx, "run-1", eventlog.TickBatch{
		Tick: 1,
		Records: []eventlog.Record{
			{Seq: 1, Tick: 1, System: "a", Kind: "k"},
			{Seq: 1, Tick: 1, System: "b", Kind: "k"},
		},
	})
	require.Error(t, err)

	events, err := s.ReadEvents(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, events, "partial tick was rolled back")
}
