package graph

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/organization-ai-projects/simcore/internal/core"
)

// Node is a registered system and its access sets. Reads and Writes are
// sorted and de-duplicated.
type Node struct {
	ID     core.SystemID
	Reads  []core.ResourceTag
	Writes []core.ResourceTag
}

// Conflicts reports whether n and other may not share a wave.
func (n Node) Conflicts(other Node) bool {
	return intersects(n.Writes, other.Reads) ||
		intersects(n.Writes, other.Writes) ||
		intersects(other.Writes, n.Reads)
}

// CanRead reports whether tag is in the read or write set.
func (n Node) CanRead(tag core.ResourceTag) bool {
	_, r := slices.BinarySearch(n.Reads, tag)
	return r || n.CanWrite(tag)
}

// CanWrite reports whether tag is in the write set.
func (n Node) CanWrite(tag core.ResourceTag) bool {
	_, w := slices.BinarySearch(n.Writes, tag)
	return w
}

// Graph collects system registrations. It is not safe for concurrent use.
type Graph struct {
	nodes []Node
	index map[core.SystemID]int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{index: make(map[core.SystemID]int)}
}

// Register adds a system with its read and write sets. A tag listed in both
// sets is treated as written.
func (g *Graph) Register(id core.SystemID, reads, writes []core.ResourceTag) error {
	if id == "" {
		return ErrEmptySystemID
	}
	if !utf8.ValidString(string(id)) {
		return fmt.Errorf("system id %q is not valid UTF-8", id)
	}
	if _, exists := g.index[id]; exists {
		return &DuplicateSystemError{System: id}
	}
	for _, tag := range slices.Concat(reads, writes) {
		if tag == "" {
			return fmt.Errorf("system %q: resource tag must not be empty", id)
		}
		if !utf8.ValidString(string(tag)) {
			return fmt.Errorf("system %q: resource tag %q is not valid UTF-8", id, tag)
		}
	}

	g.index[id] = len(g.nodes)
	g.nodes = append(g.nodes, Node{
		ID:     id,
		Reads:  normalize(reads),
		Writes: normalize(writes),
	})
	return nil
}

// Len returns the number of registered systems.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// BuildOrder computes the execution plan. It fails with a
// CyclicDependencyError if the access sets admit no order.
func (g *Graph) BuildOrder() (*ExecutionPlan, error) {
	succ := g.edges()
	n := len(g.nodes)

	indegree := make([]int, n)
	for _, targets := range succ {
		for _, t := range targets {
			indegree[t]++
		}
	}

	scheduled := make([]bool, n)
	var waves [][]int
	remaining := n
	for remaining > 0 {
		var wave []int
		for i := 0; i < n; i++ {
			if !scheduled[i] && indegree[i] == 0 {
				wave = append(wave, i)
			}
		}
		if len(wave) == 0 {
			break
		}
		for _, i := range wave {
			scheduled[i] = true
			for _, t := range succ[i] {
				indegree[t]--
			}
		}
		waves = append(waves, wave)
		remaining -= len(wave)
	}

	if remaining > 0 {
		return nil, g.cycleError(succ, scheduled)
	}
	return newPlan(g.nodes, waves, succ)
}

// edges returns successor lists (ascending registration index) for every
// conflicting pair.
func (g *Graph) edges() [][]int {
	succ := make([][]int, len(g.nodes))
	for i := 0; i < len(g.nodes); i++ {
		for j := i + 1; j < len(g.nodes); j++ {
			a, b := g.nodes[i], g.nodes[j]
			if !a.Conflicts(b) {
				continue
			}
			forward := feeds(a, b)
			backward := feeds(b, a)
			switch {
			case forward && backward:
				succ[i] = append(succ[i], j)
				succ[j] = append(succ[j], i)
			case backward:
				succ[j] = append(succ[j], i)
			default:
				succ[i] = append(succ[i], j)
			}
		}
	}
	for i := range succ {
		slices.Sort(succ[i])
	}
	return succ
}

// feeds reports whether a writes a tag that b reads without writing.
func feeds(a, b Node) bool {
	for _, tag := range a.Writes {
		if b.CanRead(tag) && !b.CanWrite(tag) {
			return true
		}
	}
	return false
}

func normalize(tags []core.ResourceTag) []core.ResourceTag {
	out := slices.Clone(tags)
	slices.Sort(out)
	return slices.Compact(out)
}

// intersects reports whether two sorted tag slices share an element.
func intersects(a, b []core.ResourceTag) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			return true
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return false
}
