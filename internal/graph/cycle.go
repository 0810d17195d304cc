package graph

import (
	"slices"

	"github.com/organization-ai-projects/simcore/internal/core"
)

// cycleError finds the first non-trivial strongly connected component among
// the nodes Kahn's pass could not schedule.
func (g *Graph) cycleError(succ [][]int, scheduled []bool) error {
	sccs := tarjanSCC(succ, scheduled)

	var best []int
	for _, scc := range sccs {
		if len(scc) < 2 {
			continue
		}
		if best == nil || slices.Min(scc) < slices.Min(best) {
			best = scc
		}
	}
	if best == nil {
		// Unreachable: leftover nodes always contain a cycle.
		panic("graph: unscheduled nodes without a cycle")
	}

	members := slices.Clone(best)
	slices.Sort(members)
	path := reconstructCyclePath(members, succ)

	err := &CyclicDependencyError{
		Members: make([]core.SystemID, len(members)),
		Path:    make([]core.SystemID, len(path)),
	}
	for i, m := range members {
		err.Members[i] = g.nodes[m].ID
	}
	for i, p := range path {
		err.Path[i] = g.nodes[p].ID
	}
	return err
}

// tarjanSCC finds strongly connected components over the unscheduled nodes.
// Roots are visited in registration order and successors ascending, so the
// result is deterministic.
func tarjanSCC(succ [][]int, scheduled []bool) [][]int {
	n := len(succ)
	var (
		index   = 0
		stack   []int
		indices = make([]int, n)
		lowlink = make([]int, n)
		onStack = make([]bool, n)
		sccs    [][]int
	)
	for i := range indices {
		indices[i] = -1
	}

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range succ[v] {
			if scheduled[w] {
				continue
			}
			if indices[w] < 0 {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for v := 0; v < n; v++ {
		if !scheduled[v] && indices[v] < 0 {
			strongConnect(v)
		}
	}
	return sccs
}

// reconstructCyclePath returns the shortest cycle through members[0] that
// stays inside the component, as a closed path.
func reconstructCyclePath(members []int, succ [][]int) []int {
	start := members[0]
	inSCC := make(map[int]bool, len(members))
	for _, m := range members {
		inSCC[m] = true
	}

	// Breadth-first from start until an edge leads back to it.
	parent := map[int]int{start: -1}
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range succ[cur] {
			if !inSCC[next] {
				continue
			}
			if next == start {
				var rev []int
				for at := cur; at != -1; at = parent[at] {
					rev = append(rev, at)
				}
				path := make([]int, 0, len(rev)+1)
				for i := len(rev) - 1; i >= 0; i-- {
					path = append(path, rev[i])
				}
				return append(path, start)
			}
			if _, seen := parent[next]; !seen {
				parent[next] = cur
				queue = append(queue, next)
			}
		}
	}
	return []int{start}
}
