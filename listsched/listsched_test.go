// Package listsched_test validates priority parsing, the comparator, and
// the heuristic scheduler on the canonical small regions.
package listsched_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/optsched/ddg"
	"github.com/katalvlaran/optsched/listsched"
	"github.com/katalvlaran/optsched/machine"
	"github.com/katalvlaran/optsched/pressure"
	"github.com/katalvlaran/optsched/sched"
)

// testModel builds a model with the given issue rate; ALU carries all
// slots and "op" has data latency 1.
func testModel(t *testing.T, issueRate int) *machine.Model {
	t.Helper()
	m, err := machine.NewModel("test", issueRate,
		[]machine.IssueType{{Name: "ALU", SlotsPerCycle: issueRate}},
		[]machine.InstType{{Name: "op", IssueType: "ALU", Latency: 1, Pipelined: true}},
		[]machine.RegType{{Name: "GPR", PhysRegCount: 8}},
		nil)
	require.NoError(t, err)

	return m
}

// schedule runs the heuristic over dag with the given priority string.
func schedule(t *testing.T, dag *ddg.Graph, prirts string) *sched.Schedule {
	t.Helper()
	p, unknown := listsched.ParsePriorities(prirts)
	require.Empty(t, unknown)
	tracker := pressure.NewTracker(dag, pressure.BuildFiles(dag), pressure.Config{CostFn: pressure.SCFPeak})
	s := sched.NewSchedule(dag.Model().IssueRate, 2*dag.InstCount())
	require.NoError(t, listsched.NewScheduler(dag, tracker, p).FindSchedule(s))

	return s
}

func TestParsePriorities(t *testing.T) {
	p, unknown := listsched.ParsePriorities("CP_LUC_NID")
	require.Empty(t, unknown)
	require.Equal(t, []listsched.PriorityKey{listsched.KeyCP, listsched.KeyLUC, listsched.KeyNID}, p.Keys)
	require.True(t, p.Dynamic)

	// Unknown tokens default to CP and are reported.
	p, unknown = listsched.ParsePriorities("CP_BOGUS")
	require.Equal(t, []string{"BOGUS"}, unknown)
	require.Equal(t, []listsched.PriorityKey{listsched.KeyCP, listsched.KeyCP}, p.Keys)
	require.False(t, p.Dynamic)

	// Empty input falls back to CP.
	p, _ = listsched.ParsePriorities("")
	require.Equal(t, []listsched.PriorityKey{listsched.KeyCP}, p.Keys)
}

func TestFindSchedule_Chain(t *testing.T) {
	// A→B with latency 1 on a 1-wide machine: [A, B], length 2.
	b := ddg.NewBuilder(testModel(t, 1))
	a, _ := b.AddInst("a", "op")
	bb, _ := b.AddInst("b", "op")
	require.NoError(t, b.AddDep(a, bb, machine.DepData, 1))
	dag, err := b.Finalize()
	require.NoError(t, err)

	s := schedule(t, dag, "CP")
	require.Equal(t, 2, s.Length())
	require.Equal(t, a, s.At(0))
	require.Equal(t, bb, s.At(1))
	require.NoError(t, sched.Verify(s, dag))
}

func TestFindSchedule_ThreeIndependent(t *testing.T) {
	// Three independent instructions on a 1-wide machine fill three
	// cycles under any priority list.
	for _, prirts := range []string{"CP", "NID", "ISO", "SC_UC_NID"} {
		b := ddg.NewBuilder(testModel(t, 1))
		for _, name := range []string{"x", "y", "z"} {
			_, err := b.AddInst(name, "op")
			require.NoError(t, err)
		}
		dag, err := b.Finalize()
		require.NoError(t, err)

		s := schedule(t, dag, prirts)
		require.Equal(t, 3, s.Length(), prirts)
		require.Equal(t, 3, s.InstCount(), prirts)
		require.NoError(t, sched.Verify(s, dag))
	}
}

func TestFindSchedule_Diamond2Wide(t *testing.T) {
	// Diamond on a 2-wide machine: optimal length 3 with b and c paired.
	b := ddg.NewBuilder(testModel(t, 2))
	var idx [4]int
	for i, name := range []string{"a", "b", "c", "d"} {
		idx[i], _ = b.AddInst(name, "op")
	}
	require.NoError(t, b.AddDep(idx[0], idx[1], machine.DepData, 1))
	require.NoError(t, b.AddDep(idx[0], idx[2], machine.DepData, 1))
	require.NoError(t, b.AddDep(idx[1], idx[3], machine.DepData, 1))
	require.NoError(t, b.AddDep(idx[2], idx[3], machine.DepData, 1))
	dag, err := b.Finalize()
	require.NoError(t, err)

	s := schedule(t, dag, "CP_NID")
	require.Equal(t, 3, s.Length())
	// b and c share cycle 1 (slots 2 and 3).
	require.Contains(t, []int{s.At(2), s.At(3)}, idx[1])
	require.Contains(t, []int{s.At(2), s.At(3)}, idx[2])
	require.NoError(t, sched.Verify(s, dag))
}

func TestScorer_LUCPrefersKillers(t *testing.T) {
	// a defines r0 with a single consumer b; c touches no registers.
	// Under LUC, b outranks c once a is scheduled.
	bld := ddg.NewBuilder(testModel(t, 1))
	a, _ := bld.AddInst("a", "op", ddg.WithDefs(ddg.RegRef{Type: 0, Num: 0, Phys: ddg.NoPhysReg}))
	b, _ := bld.AddInst("b", "op", ddg.WithUses(ddg.RegRef{Type: 0, Num: 0, Phys: ddg.NoPhysReg}))
	c, _ := bld.AddInst("c", "op")
	require.NoError(t, bld.AddDep(a, b, machine.DepData, 1))
	dag, err := bld.Finalize()
	require.NoError(t, err)

	p, _ := listsched.ParsePriorities("LUC")
	tracker := pressure.NewTracker(dag, pressure.BuildFiles(dag), pressure.Config{CostFn: pressure.SCFPeak})
	scorer := listsched.NewScorer(dag, tracker, p)

	tracker.ScheduleInst(dag.Node(a))
	require.True(t, scorer.Better(b, c))
	require.False(t, scorer.Better(c, b))
}

func TestReadyList_Order(t *testing.T) {
	// Priority NID: the list surfaces lower indices first regardless of
	// insertion order.
	bld := ddg.NewBuilder(testModel(t, 1))
	for _, name := range []string{"x", "y", "z"} {
		_, err := bld.AddInst(name, "op")
		require.NoError(t, err)
	}
	dag, err := bld.Finalize()
	require.NoError(t, err)

	p, _ := listsched.ParsePriorities("NID")
	tracker := pressure.NewTracker(dag, pressure.BuildFiles(dag), pressure.Config{CostFn: pressure.SCFPeak})
	rl := listsched.NewReadyList(listsched.NewScorer(dag, tracker, p), 4)

	rl.Add(2)
	rl.Add(0)
	rl.Add(1)
	require.Equal(t, 3, rl.Len())
	require.Equal(t, 0, rl.At(0))
	require.Equal(t, 1, rl.At(1))
	require.Equal(t, 2, rl.At(2))

	rl.RemoveAt(0)
	require.Equal(t, 1, rl.At(0))
}
