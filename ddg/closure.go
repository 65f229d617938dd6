// Package ddg - topological ordering, cycle detection, and transitive
// closure over the recursive neighbor bit-sets.
package ddg

import "github.com/bits-and-blooms/bitset"

// Visitation states for the tri-color DFS.
const (
	white = iota // undiscovered
	gray         // on the current DFS path
	black        // fully explored
)

// computeTopoOrder runs a tri-color DFS from every unvisited node and
// records the reverse post-order in g.topo. A gray→gray edge is a cycle.
func (g *Graph) computeTopoOrder() error {
	n := len(g.nodes)
	state := make([]int, n)
	order := make([]int, 0, n)

	var visit func(u int) error
	visit = func(u int) error {
		// 1. A back-edge to a node on the current path is a cycle.
		if state[u] == gray {
			return ErrCycle
		}
		// 2. Already fully explored.
		if state[u] == black {
			return nil
		}
		state[u] = gray
		for _, e := range g.succs[u] {
			if err := visit(e.To); err != nil {
				return err
			}
		}
		state[u] = black
		order = append(order, u)

		return nil
	}

	for u := 0; u < n; u++ {
		if state[u] == white {
			if err := visit(u); err != nil {
				return err
			}
		}
	}

	// 3. Reverse the post-order to obtain the topological order.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	g.topo = order

	return nil
}

// computeClosure fills every node's recursive successor set by a reverse
// topological sweep, then the recursive predecessor sets by the forward
// sweep. Both sweeps maintain the symmetry
// u ∈ rcrsvPred(v) ⟺ v ∈ rcrsvSucc(u).
func (g *Graph) computeClosure() {
	n := uint(len(g.nodes))
	for _, nd := range g.nodes {
		nd.rcrsvSuccs = bitset.New(n)
		nd.rcrsvPreds = bitset.New(n)
	}

	// 1. Reverse topological order: successors are complete before their
	//    predecessors consume them.
	for i := len(g.topo) - 1; i >= 0; i-- {
		u := g.topo[i]
		set := g.nodes[u].rcrsvSuccs
		for _, e := range g.succs[u] {
			set.Set(uint(e.To))
			set.InPlaceUnion(g.nodes[e.To].rcrsvSuccs)
		}
	}

	// 2. Forward topological order for the predecessor sets.
	for _, u := range g.topo {
		set := g.nodes[u].rcrsvPreds
		for _, e := range g.preds[u] {
			set.Set(uint(e.From))
			set.InPlaceUnion(g.nodes[e.From].rcrsvPreds)
		}
	}
}

// computeBounds fills the forward and backward critical paths and the
// schedule-length lower bound.
func (g *Graph) computeBounds() {
	// 1. Forward pass: earliest start cycles.
	for _, u := range g.topo {
		est := 0
		for _, e := range g.preds[u] {
			if c := g.nodes[e.From].fwdCP + e.Latency; c > est {
				est = c
			}
		}
		g.nodes[u].fwdCP = est
	}

	// 2. Backward pass: latency distance to exit.
	for i := len(g.topo) - 1; i >= 0; i-- {
		u := g.topo[i]
		lst := 0
		for _, e := range g.succs[u] {
			if c := g.nodes[e.To].bkwdCP + e.Latency; c > lst {
				lst = c
			}
		}
		g.nodes[u].bkwdCP = lst
	}

	// 3. The critical-path schedule-length lower bound.
	g.schedLwrBound = g.nodes[g.Exit()].fwdCP
	if b := g.nodes[g.Entry()].bkwdCP; b > g.schedLwrBound {
		g.schedLwrBound = b
	}
	g.schedLwrBound++
}
