// Package ddg - the two-phase graph builder.
package ddg

import (
	"fmt"

	"github.com/katalvlaran/optsched/machine"
)

// rawDep is one dependence as supplied by the host, before latency
// resolution and kind classification.
type rawDep struct {
	from, to int
	kind     machine.DepKind
	hint     int // the host compiler's latency estimate
}

// Builder accumulates instructions and dependences for one region.
type Builder struct {
	model          *machine.Model
	precision      LatencyPrecision
	maxPreciseSize int
	orderAsData    bool

	nodes     []*Node
	deps      []rawDep
	finalized bool
}

// NewBuilder returns a Builder over the given machine model.
// By default latencies are Precise with no size degradation and order
// dependences keep their kind.
func NewBuilder(model *machine.Model, opts ...BuildOption) *Builder {
	b := &Builder{model: model}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// AddInst appends one instruction and returns its node index.
// The instruction type must exist in the machine model.
func (b *Builder) AddInst(name, instType string, opts ...InstOption) (int, error) {
	if b.finalized {
		return 0, ErrFinalized
	}
	ti, ok := b.model.InstTypeIndex(instType)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownInst, instType)
	}

	n := &Node{
		Num:        len(b.nodes),
		Name:       name,
		InstType:   ti,
		IssueType:  b.model.IssueTypeOf(ti),
		InputOrder: len(b.nodes),
	}
	for _, opt := range opts {
		opt(n)
	}
	b.nodes = append(b.nodes, n)

	return n.Num, nil
}

// AddDep records one dependence from→to with the host's latency hint.
// Latency resolution is deferred to Finalize.
func (b *Builder) AddDep(from, to int, kind machine.DepKind, latencyHint int) error {
	if b.finalized {
		return ErrFinalized
	}
	if from < 0 || from >= len(b.nodes) || to < 0 || to >= len(b.nodes) {
		return fmt.Errorf("%w: %d -> %d", ErrBadNodeIndex, from, to)
	}
	if latencyHint < 0 {
		return fmt.Errorf("%w: %d on edge %d -> %d", ErrBadLatency, latencyHint, from, to)
	}
	b.deps = append(b.deps, rawDep{from: from, to: to, kind: kind, hint: latencyHint})

	return nil
}

// Finalize resolves latencies, inserts the entry/exit sentinels, verifies
// acyclicity, closes the recursive neighbor sets, and computes bounds.
// The Builder must not be reused afterwards.
//
// Errors: ErrCycle when the dependence graph contains a cycle.
func (b *Builder) Finalize() (*Graph, error) {
	if b.finalized {
		return nil, ErrFinalized
	}
	b.finalized = true

	n := len(b.nodes)
	g := &Graph{
		model:   b.model,
		nodes:   make([]*Node, n, n+2),
		succs:   make([][]Edge, n+2),
		preds:   make([][]Edge, n+2),
		instCnt: n,
	}
	copy(g.nodes, b.nodes)

	// 1. Pick the effective precision: Precise degrades to Rough on
	//    graphs above the configured size threshold.
	precision := b.precision
	if precision == Precise && b.maxPreciseSize > 0 && n > b.maxPreciseSize {
		precision = Rough
	}

	// 2. Classify kinds and resolve latencies.
	for _, d := range b.deps {
		kind := d.kind
		if b.orderAsData && kind == machine.DepOther {
			kind = machine.DepData
		}
		g.addEdge(d.from, d.to, kind, b.resolveLatency(g.nodes[d.from], kind, d.hint, precision))
	}

	// 3. Insert the artificial sentinels: entry precedes every root,
	//    exit follows every leaf, all with zero latency.
	g.insertSentinels()

	// 4. Topological order; a cycle is fatal to the region.
	if err := g.computeTopoOrder(); err != nil {
		return nil, err
	}

	// 5. Recursive neighbor sets, then critical-path bounds.
	g.computeClosure()
	g.computeBounds()

	return g, nil
}

// resolveLatency assigns the latency of one edge per the precision mode.
func (b *Builder) resolveLatency(from *Node, kind machine.DepKind, hint int, precision LatencyPrecision) int {
	switch precision {
	case Rough:
		return hint
	case Unity:
		if kind == machine.DepData {
			return 1
		}

		return 0
	default:
		return b.model.Latency(from.InstType, kind)
	}
}
