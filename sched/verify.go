// Package sched - the post-hoc schedule verifier.
package sched

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/optsched/ddg"
)

// Verification sentinels. A verifier failure on an engine-produced
// schedule indicates an internal invariant violation.
var (
	// ErrIncomplete indicates a real instruction is missing or duplicated.
	ErrIncomplete = errors.New("sched: schedule does not place every instruction exactly once")

	// ErrDependence indicates a dependence latency violation.
	ErrDependence = errors.New("sched: dependence violated")

	// ErrResource indicates an issue-type slot-count violation.
	ErrResource = errors.New("sched: issue-type capacity exceeded")
)

// Verify re-checks the schedule against the dependence graph and machine
// model: every real instruction exactly once, every edge's latency
// honored, and no cycle oversubscribing any issue type.
// Complexity: O(slots + E).
func Verify(s *Schedule, dag *ddg.Graph) error {
	model := dag.Model()

	// 1. Placement: each real instruction exactly once, no sentinels.
	cycleOf := make([]int, dag.InstCount())
	for i := range cycleOf {
		cycleOf[i] = -1
	}
	placed := 0
	for i := 0; i < s.SlotCount(); i++ {
		inst := s.At(i)
		if inst == StallInst {
			continue
		}
		if inst < 0 || inst >= dag.InstCount() {
			return fmt.Errorf("%w: slot %d holds index %d", ErrIncomplete, i, inst)
		}
		if cycleOf[inst] >= 0 {
			return fmt.Errorf("%w: instruction %d placed twice", ErrIncomplete, inst)
		}
		cycleOf[inst] = s.CycleOf(i)
		placed++
	}
	if placed != dag.InstCount() {
		return fmt.Errorf("%w: placed %d of %d", ErrIncomplete, placed, dag.InstCount())
	}

	// 2. Dependences: cycle(v) ≥ cycle(u) + latency for real endpoints.
	for u := 0; u < dag.InstCount(); u++ {
		for _, e := range dag.SuccEdges(u) {
			if dag.Node(e.To).IsSentinel() {
				continue
			}
			if cycleOf[e.To] < cycleOf[u]+e.Latency {
				return fmt.Errorf("%w: %d -> %d latency %d (cycles %d, %d)",
					ErrDependence, u, e.To, e.Latency, cycleOf[u], cycleOf[e.To])
			}
		}
	}

	// 3. Resources: per-cycle counts per issue type within the model's
	//    slot budget.
	cycles := s.Length()
	if cycles == 0 {
		return nil
	}
	counts := make([]int, cycles*model.IssueTypeCount())
	for inst, c := range cycleOf {
		it := dag.Node(inst).IssueType
		counts[c*model.IssueTypeCount()+it]++
	}
	for c := 0; c < cycles; c++ {
		for it := 0; it < model.IssueTypeCount(); it++ {
			if counts[c*model.IssueTypeCount()+it] > model.SlotsPerCycle(it) {
				return fmt.Errorf("%w: cycle %d, issue type %d", ErrResource, c, it)
			}
		}
	}

	return nil
}
