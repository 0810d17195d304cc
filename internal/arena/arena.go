package arena

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/organization-ai-projects/simcore/internal/canon"
)

type slot[T any] struct {
	generation uint32
	occupied   bool
	retired    bool // generation exhausted; never reissued
	value      T
}

// Arena stores values of type T in generation-counted slots.
type Arena[T any] struct {
	slots []slot[T]
	free  freeList
	live  int
	limit int
}

// Option configures an Arena.
type Option func(*config)

type config struct {
	limit int
}

// WithCapacityLimit caps the number of slots the arena may grow to.
// Zero (the default) means unbounded.
func WithCapacityLimit(n int) Option {
	return func(c *config) {
		c.limit = n
	}
}

// New creates an empty arena.
func New[T any](opts ...Option) *Arena[T] {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Arena[T]{limit: cfg.limit}
}

// Allocate stores v in the lowest-index free slot, growing storage when no
// slot is free, and returns the id (index, current generation).
func (a *Arena[T]) Allocate(v T) (EntityID, error) {
	if a.free.Len() > 0 {
		index := heap.Pop(&a.free).(uint32)
		s := &a.slots[index]
		s.occupied = true
		s.value = v
		a.live++
		return NewEntityID(index, s.generation), nil
	}

	if a.limit > 0 && len(a.slots) >= a.limit {
		return 0, &OutOfCapacityError{Limit: a.limit}
	}
	if indexSpaceFull(uint64(len(a.slots))) {
		return 0, &OutOfCapacityError{Limit: len(a.slots)}
	}

	index := uint32(len(a.slots))
	a.slots = append(a.slots, slot[T]{occupied: true, value: v})
	a.live++
	return NewEntityID(index, 0), nil
}

// Free releases the entity. The slot generation is bumped so every
// outstanding copy of id becomes stale.
func (a *Arena[T]) Free(id EntityID) error {
	s, err := a.lookup(id)
	if err != nil {
		return err
	}

	var zero T
	s.value = zero
	s.occupied = false
	a.live--

	if s.generation == math.MaxUint32 {
		s.retired = true
		return nil
	}
	s.generation++
	heap.Push(&a.free, id.Index())
	return nil
}

// Get returns a copy of the value for id.
func (a *Arena[T]) Get(id EntityID) (T, error) {
	s, err := a.lookup(id)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.value, nil
}

// GetMut returns a pointer to the value for id. The pointer is valid until
// the next Allocate on this arena.
func (a *Arena[T]) GetMut(id EntityID) (*T, error) {
	s, err := a.lookup(id)
	if err != nil {
		return nil, err
	}
	return &s.value, nil
}

// Contains reports whether id refers to a live entity.
func (a *Arena[T]) Contains(id EntityID) bool {
	_, err := a.lookup(id)
	return err == nil
}

// Len returns the number of live entities.
func (a *Arena[T]) Len() int {
	return a.live
}

// Slots returns the number of slots ever allocated, live or not.
func (a *Arena[T]) Slots() int {
	return len(a.slots)
}

// Each calls fn for every live entity in ascending index order.
// Iteration stops when fn returns false. fn must not allocate or free.
func (a *Arena[T]) Each(fn func(EntityID, *T) bool) {
	for i := range a.slots {
		s := &a.slots[i]
		if !s.occupied {
			continue
		}
		if !fn(NewEntityID(uint32(i), s.generation), &s.value) {
			return
		}
	}
}

// Snapshot encodes every slot, live or free, in index order. Free slot
// generations are included because they determine future ids.
func (a *Arena[T]) Snapshot(encode func(T) (canon.Value, error)) (canon.Value, error) {
	out := make(canon.Array, 0, len(a.slots))
	for i := range a.slots {
		s := &a.slots[i]
		entry := canon.Obj(
			canon.P("index", canon.Int(i)),
			canon.P("generation", canon.Int(s.generation)),
		)
		if s.retired {
			entry["retired"] = canon.Bool(true)
		}
		if s.occupied {
			v, err := encode(s.value)
			if err != nil {
				return nil, fmt.Errorf("snapshot slot %d: %w", i, err)
			}
			entry["value"] = v
		}
		out = append(out, entry)
	}
	return out, nil
}

func (a *Arena[T]) lookup(id EntityID) (*slot[T], error) {
	index := id.Index()
	if int(index) >= len(a.slots) {
		return nil, &StaleIDError{ID: id, Reason: ReasonOutOfRange}
	}
	s := &a.slots[index]
	if s.generation != id.Generation() {
		return nil, &StaleIDError{ID: id, Current: s.generation, Reason: ReasonGeneration}
	}
	if !s.occupied {
		return nil, &StaleIDError{ID: id, Current: s.generation, Reason: ReasonFreed}
	}
	return s, nil
}

// freeList is a min-heap of free slot indices so Allocate always reuses the
// lowest index.
type freeList []uint32

func (f freeList) Len() int           { return len(f) }
func (f freeList) Less(i, j int) bool { return f[i] < f[j] }
func (f freeList) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }

func (f *freeList) Push(x any) {
	*f = append(*f, x.(uint32))
}

func (f *freeList) Pop() any {
	old := *f
	n := len(old)
	x := old[n-1]
	*f = old[:n-1]
	return x
}

// indexSpaceFull reports whether n slots already use every 32-bit index.
func indexSpaceFull(n uint64) bool {
	return n > math.MaxUint32
}
