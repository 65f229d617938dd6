// Package ddg - the finalized Graph and its accessors.
package ddg

import "github.com/katalvlaran/optsched/machine"

// Graph is a finalized dependence graph: real instructions in
// [0, InstCount), the entry sentinel at InstCount, the exit sentinel at
// InstCount+1. A Graph and its nodes are owned by one region; only the
// closure-refreshing mutators in this file may change it after Finalize.
type Graph struct {
	model *machine.Model

	nodes []*Node
	succs [][]Edge
	preds [][]Edge

	topo    []int // topological order over all nodes
	instCnt int   // real instructions, excluding sentinels

	maxLatency    int
	schedLwrBound int
}

// Model returns the machine model the graph was built against.
func (g *Graph) Model() *machine.Model { return g.model }

// InstCount returns the number of real instructions.
func (g *Graph) InstCount() int { return g.instCnt }

// NodeCount returns the number of nodes including both sentinels.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Entry returns the index of the artificial entry sentinel.
func (g *Graph) Entry() int { return g.instCnt }

// Exit returns the index of the artificial exit sentinel.
func (g *Graph) Exit() int { return g.instCnt + 1 }

// Node returns the node at index i.
func (g *Graph) Node(i int) *Node { return g.nodes[i] }

// SuccEdges returns the outgoing dependences of node i. Read-only.
func (g *Graph) SuccEdges(i int) []Edge { return g.succs[i] }

// PredEdges returns the incoming dependences of node i. Read-only.
func (g *Graph) PredEdges(i int) []Edge { return g.preds[i] }

// MaxLatency returns the largest edge latency in the graph.
func (g *Graph) MaxLatency() int { return g.maxLatency }

// SchedLowerBound returns the static critical-path schedule-length lower
// bound: max(forwardCP(exit), backwardCP(entry)) + 1.
func (g *Graph) SchedLowerBound() int { return g.schedLwrBound }

// AbsoluteUpperBound returns the serial-schedule length bound: the sum
// over real instructions of max(1, longest outgoing latency). Any legal
// schedule fits within it.
func (g *Graph) AbsoluteUpperBound() int {
	total := 0
	for i := 0; i < g.instCnt; i++ {
		worst := 1
		for _, e := range g.succs[i] {
			if e.Latency > worst {
				worst = e.Latency
			}
		}
		total += worst
	}
	if total < 1 {
		total = 1
	}

	return total
}

// IsRcrsvSucc reports whether v is a recursive successor of u.
func (g *Graph) IsRcrsvSucc(u, v int) bool {
	return g.nodes[u].rcrsvSuccs.Test(uint(v))
}

// IsRcrsvPred reports whether v is a recursive predecessor of u.
func (g *Graph) IsRcrsvPred(u, v int) bool {
	return g.nodes[u].rcrsvPreds.Test(uint(v))
}

// AreIndependent reports whether neither node reaches the other.
func (g *Graph) AreIndependent(u, v int) bool {
	return u != v && !g.IsRcrsvSucc(u, v) && !g.IsRcrsvPred(u, v)
}

// addEdge appends one resolved edge to both adjacency directions.
func (g *Graph) addEdge(from, to int, kind machine.DepKind, latency int) {
	e := Edge{From: from, To: to, Kind: kind, Latency: latency}
	g.succs[from] = append(g.succs[from], e)
	g.preds[to] = append(g.preds[to], e)
	if latency > g.maxLatency {
		g.maxLatency = latency
	}
}

// insertSentinels appends the entry and exit nodes and wires them to the
// roots and leaves with zero-latency order edges.
func (g *Graph) insertSentinels() {
	entry := &Node{Num: g.instCnt, Name: "<entry>", InstType: -1, IssueType: -1, InputOrder: -1}
	exit := &Node{Num: g.instCnt + 1, Name: "<exit>", InstType: -1, IssueType: -1, InputOrder: g.instCnt + 1}
	g.nodes = append(g.nodes, entry, exit)

	for i := 0; i < g.instCnt; i++ {
		if len(g.preds[i]) == 0 {
			g.addEdge(entry.Num, i, machine.DepOther, 0)
		}
	}
	for i := 0; i < g.instCnt; i++ {
		// A node whose only successor is a freshly added entry edge
		// cannot occur; leaves are nodes with no outgoing edges.
		if len(g.succs[i]) == 0 {
			g.addEdge(i, exit.Num, machine.DepOther, 0)
		}
	}
	// Degenerate region with no real instructions: keep the invariant
	// that entry reaches exit.
	if g.instCnt == 0 {
		g.addEdge(entry.Num, exit.Num, machine.DepOther, 0)
	}
}

// InsertEdge adds a semantics-preserving edge after Finalize (used by the
// graph transformations) and incrementally extends the recursive neighbor
// sets: every node at or before from gains every node at or after to as a
// recursive successor, exactly the original closure-update rule.
//
// Callers must RecomputeBounds once all insertions are done.
func (g *Graph) InsertEdge(from, to int, kind machine.DepKind, latency int) {
	g.addEdge(from, to, kind, latency)

	// 1. Collect both frontiers: {from} ∪ rcrsvPreds(from) and
	//    {to} ∪ rcrsvSuccs(to).
	fromSide := g.nodes[from].rcrsvPreds.Clone()
	fromSide.Set(uint(from))
	toSide := g.nodes[to].rcrsvSuccs.Clone()
	toSide.Set(uint(to))

	// 2. Cross-connect the frontiers in both directions.
	for x, okX := fromSide.NextSet(0); okX; x, okX = fromSide.NextSet(x + 1) {
		g.nodes[x].rcrsvSuccs.InPlaceUnion(toSide)
	}
	for y, okY := toSide.NextSet(0); okY; y, okY = toSide.NextSet(y + 1) {
		g.nodes[y].rcrsvPreds.InPlaceUnion(fromSide)
	}
}

// RecomputeBounds refreshes the topological order and the critical-path
// bounds after InsertEdge calls. ErrCycle is impossible for
// semantics-preserving insertions between independent nodes but is
// surfaced anyway as a guard.
func (g *Graph) RecomputeBounds() error {
	if err := g.computeTopoOrder(); err != nil {
		return err
	}
	g.computeBounds()

	return nil
}
