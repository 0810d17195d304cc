package eventlog

import (
	"context"
	"fmt"
	"sync"

	"github.com/organization-ai-projects/simcore/internal/core"
)

// Log is a recorder or a replayer. It is safe for concurrent use.
type Log struct {
	mu     sync.Mutex
	mode   core.Mode
	header Header
	sink   Sink

	records []Record
	hashes  []TickHash

	// Record mode.
	lastTick  core.Tick // highest appended tick
	committed core.Tick // highest committed tick
	pending   int       // index of the first uncommitted record

	// Replay mode.
	byTick   map[core.Tick][]int
	consumed []bool
}

// Option configures a recorder.
type Option func(*Log)

// WithSink flushes every committed tick to s.
func WithSink(s Sink) Option {
	return func(l *Log) {
		l.sink = s
	}
}

// NewRecorder creates an empty log in record mode.
func NewRecorder(h Header, opts ...Option) *Log {
	l := &Log{mode: core.ModeRecord, header: h.clone()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewReplayer creates a log in replay mode over rec. The recording is
// copied. Records must carry sequential Seq values, non-decreasing ticks and
// no tick beyond the last committed hash; hashes must cover ticks 1..n.
func NewReplayer(rec Recording) (*Log, error) {
	if err := validateRecording(rec); err != nil {
		return nil, err
	}
	rec = rec.clone()

	l := &Log{
		mode:     core.ModeReplay,
		header:   rec.Header,
		records:  rec.Records,
		hashes:   rec.Hashes,
		byTick:   make(map[core.Tick][]int),
		consumed: make([]bool, len(rec.Records)),
	}
	for i, r := range rec.Records {
		l.byTick[r.Tick] = append(l.byTick[r.Tick], i)
	}
	if n := len(rec.Hashes); n > 0 {
		l.committed = rec.Hashes[n-1].Tick
		l.lastTick = l.committed
	}
	return l, nil
}

func validateRecording(rec Recording) error {
	for i, h := range rec.Hashes {
		if h.Tick != core.Tick(i+1) {
			return fmt.Errorf("%w: hash %d is for tick %d, want %d", ErrCorruptRecording, i, h.Tick, i+1)
		}
	}
	last := rec.LastTick()
	var prev core.Tick
	counts := make(map[core.Tick]int)
	for i, r := range rec.Records {
		if r.Seq != uint64(i+1) {
			return fmt.Errorf("%w: record %d has seq %d", ErrCorruptRecording, i, r.Seq)
		}
		if r.Tick == 0 || r.Tick < prev {
			return fmt.Errorf("%w: record seq %d at tick %d after tick %d", ErrCorruptRecording, r.Seq, r.Tick, prev)
		}
		if r.Tick > last {
			return fmt.Errorf("%w: record seq %d at tick %d beyond last committed tick %d", ErrCorruptRecording, r.Seq, r.Tick, last)
		}
		prev = r.Tick
		counts[r.Tick]++
	}
	for _, h := range rec.Hashes {
		if h.Events != counts[h.Tick] {
			return fmt.Errorf("%w: tick %d declares %d events, found %d", ErrCorruptRecording, h.Tick, h.Events, counts[h.Tick])
		}
	}
	return nil
}

// Mode returns the log's mode.
func (l *Log) Mode() core.Mode {
	return l.mode
}

// Header returns the run header.
func (l *Log) Header() Header {
	return l.header.clone()
}

// Len returns the number of records in the log.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// LastRecordedTick returns the highest committed tick.
func (l *Log) LastRecordedTick() core.Tick {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.committed
}

// Append stores a copy of r with Seq assigned and returns it.
func (l *Log) Append(r Record) (Record, error) {
	if l.mode != core.ModeRecord {
		return Record{}, ErrReplayOnly
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if r.Tick == 0 {
		return Record{}, fmt.Errorf("append: tick must be at least 1")
	}
	if r.Tick < l.lastTick {
		return Record{}, &OutOfOrderError{Tick: r.Tick, Last: l.lastTick}
	}
	if r.Tick <= l.committed {
		return Record{}, &OutOfOrderError{Tick: r.Tick, Last: l.committed}
	}

	stored := r.clone()
	stored.Seq = uint64(len(l.records) + 1)
	l.records = append(l.records, stored)
	l.lastTick = r.Tick
	return stored.clone(), nil
}

// CommitTick seals tick with its state hash. Ticks commit one at a time
// starting from 1. With a sink configured, the tick's records and hash are
// flushed first; on sink failure nothing is committed and the call may be
// retried.
func (l *Log) CommitTick(ctx context.Context, tick core.Tick, hash core.StateHash) error {
	if l.mode != core.ModeRecord {
		return ErrReplayOnly
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if tick != l.committed+1 {
		return &OutOfOrderError{Tick: tick, Last: l.committed}
	}
	if tick < l.lastTick {
		return &OutOfOrderError{Tick: tick, Last: l.lastTick}
	}

	batch := TickBatch{Tick: tick, Hash: hash}
	for _, r := range l.records[l.pending:] {
		batch.Records = append(batch.Records, r.clone())
	}

	if l.sink != nil {
		if err := l.sink.CommitTick(ctx, l.header.RunID, batch); err != nil {
			return fmt.Errorf("commit tick %d: %w", tick, err)
		}
	}

	l.hashes = append(l.hashes, TickHash{Tick: tick, Hash: hash, Events: len(batch.Records)})
	l.pending = len(l.records)
	l.committed = tick
	l.lastTick = tick
	return nil
}

// Next returns the next unread record for tick in append order. A recorder
// has nothing to read and always returns false.
func (l *Log) Next(tick core.Tick) (Record, bool) {
	return l.next(tick, func(Record) bool { return true })
}

// NextFor returns the next unread record for tick addressed to system.
func (l *Log) NextFor(tick core.Tick, system core.SystemID) (Record, bool) {
	return l.next(tick, func(r Record) bool { return r.System == system })
}

func (l *Log) next(tick core.Tick, match func(Record) bool) (Record, bool) {
	if l.mode != core.ModeReplay {
		return Record{}, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, i := range l.byTick[tick] {
		if l.consumed[i] || !match(l.records[i]) {
			continue
		}
		l.consumed[i] = true
		return l.records[i].clone(), true
	}
	return Record{}, false
}

// Remaining returns how many records for tick are still unread. Always 0
// for a recorder.
func (l *Log) Remaining(tick core.Tick) int {
	if l.mode != core.ModeReplay {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, i := range l.byTick[tick] {
		if !l.consumed[i] {
			n++
		}
	}
	return n
}

// ExpectedHash returns the recorded hash for tick (replay mode).
func (l *Log) ExpectedHash(tick core.Tick) (core.StateHash, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tick == 0 || int(tick) > len(l.hashes) {
		return core.StateHash{}, false
	}
	return l.hashes[tick-1].Hash, true
}

// Hashes returns a copy of the committed tick hashes.
func (l *Log) Hashes() []TickHash {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]TickHash(nil), l.hashes...)
}

// Recording returns a deep copy of the log's committed contents. Appended
// records of an uncommitted tick are excluded.
func (l *Log) Recording() Recording {
	l.mu.Lock()
	defer l.mu.Unlock()

	end := len(l.records)
	if l.mode == core.ModeRecord {
		end = l.pending
	}
	return Recording{
		Header:  l.header,
		Records: l.records[:end],
		Hashes:  l.hashes,
	}.clone()
}
