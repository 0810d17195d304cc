package arena

import "fmt"

// EntityID packs a slot index (high 32 bits) and the slot generation
// (low 32 bits) into one word so validity checks are a single compare.
type EntityID uint64

// NewEntityID builds an id from its parts.
func NewEntityID(index, generation uint32) EntityID {
	return EntityID(uint64(index)<<32 | uint64(generation))
}

// Index returns the slot index.
func (id EntityID) Index() uint32 {
	return uint32(id >> 32)
}

// Generation returns the slot generation the id was issued under.
func (id EntityID) Generation() uint32 {
	return uint32(id)
}

// String renders the id as "(index,generation)".
func (id EntityID) String() string {
	return fmt.Sprintf("(%d,%d)", id.Index(), id.Generation())
}
