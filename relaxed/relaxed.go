// Package relaxed - RJ and LC relaxations and the partial re-bound.
package relaxed

import (
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/katalvlaran/optsched/ddg"
)

// Direction selects which way the relaxation walks the graph.
type Direction int

const (
	// Forward relaxes from entry toward exit.
	Forward Direction = iota

	// Backward relaxes over the reversed graph.
	Backward
)

// Alg selects the relaxed lower-bound algorithm.
type Alg int

const (
	// AlgRJ is the Rim–Jain per-issue-type relaxation.
	AlgRJ Alg = iota

	// AlgLC is the list-based total-issue-rate relaxation.
	AlgLC
)

// ParseAlg maps RJ/LC text to its algorithm. Unknown text defaults to
// AlgLC (the original's default); the second result reports recognition.
func ParseAlg(s string) (Alg, bool) {
	switch s {
	case "RJ":
		return AlgRJ, true
	case "LC":
		return AlgLC, true
	}

	return AlgLC, false
}

// Scheduler runs one relaxation over one region in one direction,
// reusing its occupancy buffers across calls so the enumerator can
// re-bound partial states cheaply.
type Scheduler struct {
	dag *ddg.Graph
	alg Alg
	dir Direction

	release  []int   // per-inst release time in this direction
	tail     []int   // per-inst latency tail in the opposite direction
	order    []int   // instruction indices sorted by release
	occupied [][]int // per issue type (RJ) or [0] (LC): per-cycle counts
	horizon  int
}

// New builds a relaxed scheduler for the given algorithm and direction.
// Complexity per FindLength/BoundPartial call: O(V log V + V·horizon)
// worst case; the horizon is the region's absolute schedule bound.
func New(dag *ddg.Graph, alg Alg, dir Direction) *Scheduler {
	n := dag.InstCount()
	s := &Scheduler{
		dag:     dag,
		alg:     alg,
		dir:     dir,
		release: make([]int, n),
		tail:    make([]int, n),
		order:   make([]int, n),
	}

	// 1. Release and tail times come from the static critical paths;
	//    direction swaps their roles.
	for i := 0; i < n; i++ {
		node := dag.Node(i)
		if dir == Forward {
			s.release[i] = node.FwdCriticalPath()
			s.tail[i] = node.BkwdCriticalPath()
		} else {
			s.release[i] = node.BkwdCriticalPath()
			s.tail[i] = node.FwdCriticalPath()
		}
	}

	// 2. Occupancy rows: one per issue type for RJ, a single shared row
	//    for LC. The horizon covers any feasible schedule plus tails.
	s.horizon = dag.AbsoluteUpperBound() + dag.MaxLatency() + 1
	rows := 1
	if alg == AlgRJ {
		rows = dag.Model().IssueTypeCount()
	}
	s.occupied = make([][]int, rows)
	for r := range s.occupied {
		s.occupied[r] = make([]int, s.horizon)
	}

	return s
}

// FindLength returns the relaxation's schedule-length lower bound for the
// whole region.
func (s *Scheduler) FindLength() int {
	return s.bound(s.release, nil, 0)
}

// BoundPartial re-bounds a partial enumerator state: release holds the
// dynamic earliest cycles of the unscheduled instructions, scheduled
// masks the instructions already placed, and startCycle floors every
// placement. Only meaningful for Forward schedulers.
func (s *Scheduler) BoundPartial(release []int, scheduled *bitset.BitSet, startCycle int) int {
	return s.bound(release, scheduled, startCycle)
}

// bound places every unmasked instruction at its earliest capacity-legal
// cycle and returns max over placements of cycle + tail + 1.
func (s *Scheduler) bound(release []int, skip *bitset.BitSet, startCycle int) int {
	var (
		dag   = s.dag
		model = dag.Model()
		n     = dag.InstCount()
	)

	// 1. Deterministic placement order: by release, then node index.
	s.order = s.order[:0]
	for i := 0; i < n; i++ {
		if skip == nil || !skip.Test(uint(i)) {
			s.order = append(s.order, i)
		}
	}
	sort.SliceStable(s.order, func(a, b int) bool {
		ia, ib := s.order[a], s.order[b]
		if release[ia] != release[ib] {
			return release[ia] < release[ib]
		}

		return ia < ib
	})

	// 2. Clear the occupancy rows.
	for r := range s.occupied {
		for c := range s.occupied[r] {
			s.occupied[r][c] = 0
		}
	}

	// 3. Greedy earliest placement against the per-row capacity.
	longest := 0
	for _, inst := range s.order {
		var row, capacity int
		if s.alg == AlgRJ {
			row = dag.Node(inst).IssueType
			capacity = model.SlotsPerCycle(row)
		} else {
			row = 0
			capacity = model.IssueRate
		}

		c := release[inst]
		if c < startCycle {
			c = startCycle
		}
		for c < s.horizon && s.occupied[row][c] >= capacity {
			c++
		}
		if c < s.horizon {
			s.occupied[row][c]++
		}

		if end := c + s.tail[inst] + 1; end > longest {
			longest = end
		}
	}

	return longest
}
