package eventlog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/organization-ai-projects/simcore/internal/core"
)

type memorySink struct {
	batches []TickBatch
	fail    error
}

func (s *memorySink) CommitTick(_ context.Context, _ string, batch TickBatch) error {
	if s.fail != nil {
		return s.fail
	}
	s.batches = append(s.batches, batch)
	return nil
}

func hashOf(b byte) core.StateHash {
	var h core.StateHash
	h[0] = b
	return h
}

func rec(tick core.Tick, system core.SystemID, payload string) Record {
	return Record{Tick: tick, System: system, Kind: "immigrant", Payload: []byte(payload)}
}

func TestAppend_AssignsSeqAndCopies(t *testing.T) {
	l := NewRecorder(Header{RunID: "run-1"})

	payload := []byte("ada")
	stored, err := l.Append(Record{Tick: 1, System: "immigration", Kind: "immigrant", Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stored.Seq)

	payload[0] = 'X'
	stored.Payload[1] = 'X'

	require.NoError(t, l.CommitTick(context.Background(), 1, hashOf(1)))
	got := l.Recording().Records
	require.Len(t, got, 1)
	assert.Equal(t, "ada", string(got[0].Payload), "log owns its copy")
}

func TestAppend_OutOfOrder(t *testing.T) {
	l := NewRecorder(Header{})
	_, err := l.Append(rec(2, "a", "x"))
	require.NoError(t, err)

	_, err = l.Append(rec(1, "a", "y"))
	require.Error(t, err)
	assert.True(t, IsOutOfOrder(err))

	var oe *OutOfOrderError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, core.Tick(1), oe.Tick)
	assert.Equal(t, core.Tick(2), oe.Last)

	_, err = l.Append(rec(2, "b", "z"))
	assert.NoError(t, err, "same tick is allowed")

	_, err = l.Append(rec(0, "a", ""))
	assert.Error(t, err)
}

func TestAppend_RejectsCommittedTick(t *testing.T) {
	l := NewRecorder(Header{})
	require.NoError(t, l.CommitTick(context.Background(), 1, hashOf(1)))

	_, err := l.Append(rec(1, "a", "late"))
	assert.True(t, IsOutOfOrder(err))
}

func TestCommitTick_SequentialOnly(t *testing.T) {
	l := NewRecorder(Header{})
	ctx := context.Background()

	err := l.CommitTick(ctx, 2, hashOf(2))
	assert.True(t, IsOutOfOrder(err))

	require.NoError(t, l.CommitTick(ctx, 1, hashOf(1)))
	assert.True(t, IsOutOfOrder(l.CommitTick(ctx, 1, hashOf(1))))
	assert.Equal(t, core.Tick(1), l.LastRecordedTick())
}

func TestCommitTick_FlushesBatchToSink(t *testing.T) {
	sink := &memorySink{}
	l := NewRecorder(Header{RunID: "run-1"}, WithSink(sink))
	ctx := context.Background()

	_, err := l.Append(rec(1, "a", "one"))
	require.NoError(t, err)
	_, err = l.Append(rec(1, "b", "two"))
	require.NoError(t, err)
	require.NoError(t, l.CommitTick(ctx, 1, hashOf(1)))
	require.NoError(t, l.CommitTick(ctx, 2, hashOf(2)))

	require.Len(t, sink.batches, 2)
	assert.Len(t, sink.batches[0].Records, 2)
	assert.Equal(t, hashOf(1), sink.batches[0].Hash)
	assert.Empty(t, sink.batches[1].Records)

	hashes := l.Hashes()
	require.Len(t, hashes, 2)
	assert.Equal(t, 2, hashes[0].Events)
	assert.Equal(t, 0, hashes[1].Events)
}

func TestCommitTick_SinkFailureCommitsNothing(t *testing.T) {
	sink := &memorySink{fail: errors.New("disk full")}
	l := NewRecorder(Header{}, WithSink(sink))
	ctx := context.Background()

	_, err := l.Append(rec(1, "a", "x"))
	require.NoError(t, err)

	err = l.CommitTick(ctx, 1, hashOf(1))
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, core.Tick(0), l.LastRecordedTick())
	assert.Empty(t, l.Recording().Records, "uncommitted records are not part of the recording")

	sink.fail = nil
	require.NoError(t, l.CommitTick(ctx, 1, hashOf(1)))
	require.Len(t, sink.batches, 1)
	assert.Len(t, sink.batches[0].Records, 1)
}

func recorded(t *testing.T) Recording {
	t.Helper()
	l := NewRecorder(Header{RunID: "run-1", Seed: 42})
	ctx := context.Background()
	for _, r := range []Record{
		rec(1, "a", "1a"),
		rec(1, "b", "1b"),
		rec(1, "a", "1a-second"),
		rec(3, "b", "3b"),
	} {
		if r.Tick > l.LastRecordedTick()+1 {
			for tick := l.LastRecordedTick() + 1; tick < r.Tick; tick++ {
				require.NoError(t, l.CommitTick(ctx, tick, hashOf(byte(tick))))
			}
		}
		_, err := l.Append(r)
		require.NoError(t, err)
	}
	require.NoError(t, l.CommitTick(ctx, 3, hashOf(3)))
	return l.Recording()
}

func TestReplay_NextPreservesAppendOrder(t *testing.T) {
	l, err := NewReplayer(recorded(t))
	require.NoError(t, err)
	assert.Equal(t, core.ModeReplay, l.Mode())
	assert.Equal(t, core.Tick(3), l.LastRecordedTick())

	var payloads []string
	for {
		r, ok := l.Next(1)
		if !ok {
			break
		}
		payloads = append(payloads, string(r.Payload))
	}
	assert.Equal(t, []string{"1a", "1b", "1a-second"}, payloads)

	_, ok := l.Next(2)
	assert.False(t, ok)
}

func TestReplay_NextForFiltersBySystem(t *testing.T) {
	l, err := NewReplayer(recorded(t))
	require.NoError(t, err)

	assert.Equal(t, 3, l.Remaining(1))

	r, ok := l.NextFor(1, "a")
	require.True(t, ok)
	assert.Equal(t, "1a", string(r.Payload))
	r, ok = l.NextFor(1, "a")
	require.True(t, ok)
	assert.Equal(t, "1a-second", string(r.Payload))
	_, ok = l.NextFor(1, "a")
	assert.False(t, ok)

	assert.Equal(t, 1, l.Remaining(1))
	r, ok = l.Next(1)
	require.True(t, ok)
	assert.Equal(t, core.SystemID("b"), r.System)
	assert.Equal(t, 0, l.Remaining(1))
}

func TestReplay_ExpectedHash(t *testing.T) {
	l, err := NewReplayer(recorded(t))
	require.NoError(t, err)

	h, ok := l.ExpectedHash(2)
	require.True(t, ok)
	assert.Equal(t, hashOf(2), h)

	_, ok = l.ExpectedHash(4)
	assert.False(t, ok)
	_, ok = l.ExpectedHash(0)
	assert.False(t, ok)
}

func TestReplay_RejectsAppendAndCommit(t *testing.T) {
	l, err := NewReplayer(recorded(t))
	require.NoError(t, err)

	_, err = l.Append(rec(4, "a", "x"))
	assert.ErrorIs(t, err, ErrReplayOnly)
	assert.ErrorIs(t, l.CommitTick(context.Background(), 4, hashOf(4)), ErrReplayOnly)
}

func TestRecorder_NextIsEmpty(t *testing.T) {
	l := NewRecorder(Header{})
	_, err := l.Append(rec(1, "a", "x"))
	require.NoError(t, err)

	_, ok := l.Next(1)
	assert.False(t, ok)
	_, ok = l.NextFor(1, "a")
	assert.False(t, ok)
	assert.Equal(t, 0, l.Remaining(1))
}

func TestNewReplayer_RejectsCorruptRecordings(t *testing.T) {
	good := recorded(t)

	tests := []struct {
		name   string
		mutate func(*Recording)
	}{
		{"seq gap", func(r *Recording) { r.Records[1].Seq = 5 }},
		{"tick decreases", func(r *Recording) { r.Records[3].Tick = 0 }},
		{"record beyond last hash", func(r *Recording) { r.Hashes = r.Hashes[:2] }},
		{"hash tick gap", func(r *Recording) { r.Hashes[1].Tick = 5 }},
		{"event count mismatch", func(r *Recording) { r.Hashes[0].Events = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := good.clone()
			tt.mutate(&r)
			_, err := NewReplayer(r)
			assert.ErrorIs(t, err, ErrCorruptRecording)
		})
	}
}

func TestRecording_Accessors(t *testing.T) {
	r := recorded(t)
	assert.Equal(t, core.Tick(3), r.LastTick())
	assert.Len(t, r.RecordsAt(1), 3)
	assert.Empty(t, r.RecordsAt(2))
	assert.Equal(t, core.Tick(0), Recording{}.LastTick())
}

func TestUUIDv7Generator(t *testing.T) {
	id := UUIDv7Generator{}.Generate()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("run-1", "run-2")
	assert.Equal(t, "run-1", gen.Generate())
	assert.Equal(t, "run-2", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}
