// Package pressure_test validates register files, the tracker's
// schedule/unschedule round trip, the spill-cost functions, and the
// legality rules.
package pressure_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/optsched/ddg"
	"github.com/katalvlaran/optsched/machine"
	"github.com/katalvlaran/optsched/pressure"
)

// testModel builds a 1-wide model; physRegs bounds the GPR file.
func testModel(t *testing.T, physRegs int) *machine.Model {
	t.Helper()
	m, err := machine.NewModel("test", 1,
		[]machine.IssueType{{Name: "ALU", SlotsPerCycle: 1}},
		[]machine.InstType{{Name: "op", IssueType: "ALU", Latency: 1, Pipelined: true}},
		[]machine.RegType{{Name: "GPR", PhysRegCount: physRegs}},
		nil)
	require.NoError(t, err)

	return m
}

func gpr(num int) ddg.RegRef { return ddg.RegRef{Type: 0, Num: num, Phys: ddg.NoPhysReg} }

func gprPhys(num, phys int) ddg.RegRef { return ddg.RegRef{Type: 0, Num: num, Phys: phys} }

// chainDag builds a def/use chain: a defs r0, b uses r0 defs r1, c uses r1.
func chainDag(t *testing.T, physRegs int) *ddg.Graph {
	t.Helper()
	b := ddg.NewBuilder(testModel(t, physRegs))
	a, _ := b.AddInst("a", "op", ddg.WithDefs(gpr(0)))
	bb, _ := b.AddInst("b", "op", ddg.WithUses(gpr(0)), ddg.WithDefs(gpr(1)))
	c, _ := b.AddInst("c", "op", ddg.WithUses(gpr(1)))
	require.NoError(t, b.AddDep(a, bb, machine.DepData, 1))
	require.NoError(t, b.AddDep(bb, c, machine.DepData, 1))
	g, err := b.Finalize()
	require.NoError(t, err)

	return g
}

func TestBuildFiles_Counts(t *testing.T) {
	dag := chainDag(t, 4)
	files := pressure.BuildFiles(dag)

	require.Len(t, files, 1)
	require.Equal(t, 2, files[0].RegCount())
	r0 := files[0].Regs[0]
	require.Equal(t, 1, r0.DefCnt)
	require.Equal(t, 1, r0.UseCnt)
	require.Equal(t, []int{1}, r0.Users)
	require.Equal(t, 0, files[0].PhysRegCount())
}

func TestTracker_RoundTrip(t *testing.T) {
	dag := chainDag(t, 0) // no physical registers: every live reg spills
	files := pressure.BuildFiles(dag)
	tr := pressure.NewTracker(dag, files, pressure.Config{CostFn: pressure.SCFSum})

	type snap struct {
		peak      int
		pressures []int
	}
	var snaps []snap
	for i := 0; i < 3; i++ {
		snaps = append(snaps, snap{
			peak:      tr.PeakSpillCost(),
			pressures: append([]int(nil), tr.PeakPressures()...),
		})
		tr.ScheduleInst(dag.Node(i))
	}

	// Live set over time: {r0}, {r1}, {} — sum of excesses is 2.
	require.Equal(t, 2, tr.SumSpillCost())
	require.Equal(t, 1, tr.PeakSpillCost())
	require.Equal(t, []int{1, 1, 0}, tr.StepCosts())
	require.Equal(t, 3, tr.ScheduledCount())
	require.Equal(t, []int{1}, tr.PeakPressures())

	// Exact inverse: every aggregate and bit-vector returns to zero.
	for i := 2; i >= 0; i-- {
		tr.UnscheduleInst(dag.Node(i), snaps[i].peak, snaps[i].pressures)
	}
	require.Equal(t, 0, tr.SumSpillCost())
	require.Equal(t, 0, tr.PeakSpillCost())
	require.Equal(t, 0, tr.SpillCost())
	require.Equal(t, 0, tr.ScheduledCount())
	require.Empty(t, tr.StepCosts())
	require.Equal(t, []int{0}, tr.PeakPressures())
	require.False(t, tr.RegIsLive(gpr(0)))
	require.False(t, tr.RegIsLive(gpr(1)))
}

func TestTracker_SpillCostFunctions(t *testing.T) {
	// Two overlapping live ranges on a machine with one physical GPR.
	build := func() *ddg.Graph {
		b := ddg.NewBuilder(testModel(t, 1))
		a, _ := b.AddInst("a", "op", ddg.WithDefs(gpr(0)))
		bb, _ := b.AddInst("b", "op", ddg.WithDefs(gpr(1)))
		c, _ := b.AddInst("c", "op", ddg.WithUses(gpr(0)))
		d, _ := b.AddInst("d", "op", ddg.WithUses(gpr(1)))
		_, _, _, _ = a, bb, c, d
		g, err := b.Finalize()
		require.NoError(t, err)

		return g
	}

	run := func(fn pressure.SpillCostFunc) *pressure.Tracker {
		dag := build()
		tr := pressure.NewTracker(dag, pressure.BuildFiles(dag), pressure.Config{CostFn: fn})
		for i := 0; i < 4; i++ {
			tr.ScheduleInst(dag.Node(i))
		}

		return tr
	}

	// Live counts: 1, 2, 1, 0 against one physical register —
	// step excesses 0, 1, 0, 0.
	require.Equal(t, 1, run(pressure.SCFPeak).SpillCost())
	require.Equal(t, 1, run(pressure.SCFSum).SpillCost())
	// Peak 1 plus sum 1 over 4 instructions: 1 + 1/4 = 1.
	require.Equal(t, 1, run(pressure.SCFPeakPlusAvg).SpillCost())
	// Per-type peak stays 2 from step b onward: excesses 0, 1, 1, 1.
	require.Equal(t, 1, run(pressure.SCFPeakPerType).PeakSpillCost())
	require.Equal(t, 3, run(pressure.SCFPeakPerType).SumSpillCost())
}

func TestTracker_PeakPerTypeBranchIsolation(t *testing.T) {
	// Under SCFPeakPerType the per-step excess derives from the per-type
	// peaks, so an abandoned sibling branch must not leak its peak into
	// the next branch: the snapshot restore has to rewind both the
	// running peak and the per-type peaks.
	b := ddg.NewBuilder(testModel(t, 1))
	a, _ := b.AddInst("a", "op", ddg.WithDefs(gpr(0)))
	bb, _ := b.AddInst("b", "op", ddg.WithDefs(gpr(1)))
	c, _ := b.AddInst("c", "op", ddg.WithUses(gpr(0)))
	d, _ := b.AddInst("d", "op", ddg.WithUses(gpr(1)))
	_ = d
	dag, err := b.Finalize()
	require.NoError(t, err)

	tr := pressure.NewTracker(dag, pressure.BuildFiles(dag), pressure.Config{CostFn: pressure.SCFPeakPerType})

	tr.ScheduleInst(dag.Node(a))
	peak, pressures := tr.PeakSpillCost(), append([]int(nil), tr.PeakPressures()...)

	// Explore the branch that schedules b: two live registers, excess 1.
	tr.ScheduleInst(dag.Node(bb))
	require.Equal(t, []int{2}, tr.PeakPressures())
	require.Equal(t, 1, tr.SpillCost())

	// Abandon it; the sibling branch through c must see peak 1 again.
	tr.UnscheduleInst(dag.Node(bb), peak, pressures)
	require.Equal(t, []int{1}, tr.PeakPressures())
	require.Equal(t, 0, tr.SpillCost())

	tr.ScheduleInst(dag.Node(c))
	require.Equal(t, []int{1}, tr.PeakPressures())
	require.Equal(t, 0, tr.SpillCost(), "the abandoned branch's peak must not inflate this branch")
}

func TestTracker_PhysRegLegality(t *testing.T) {
	// a defines r0 aliased to phys 0 with one use by c;
	// b defines r1 aliased to phys 0 as well.
	b := ddg.NewBuilder(testModel(t, 2))
	a, _ := b.AddInst("a", "op", ddg.WithDefs(gprPhys(0, 0)))
	bb, _ := b.AddInst("b", "op", ddg.WithDefs(gprPhys(1, 0)))
	c, _ := b.AddInst("c", "op", ddg.WithUses(gprPhys(0, 0)), ddg.WithDefs(gprPhys(2, 0)))
	require.NoError(t, b.AddDep(a, c, machine.DepData, 1))
	dag, err := b.Finalize()
	require.NoError(t, err)

	tr := pressure.NewTracker(dag, pressure.BuildFiles(dag), pressure.Config{CostFn: pressure.SCFPeak})
	tr.ScheduleInst(dag.Node(a))

	// While r0's phys alias is live, a second def of phys 0 is illegal...
	require.False(t, tr.InstIsLegal(dag.Node(bb)))
	// ...unless the definer is the last consumer of the live def.
	require.True(t, tr.InstIsLegal(dag.Node(c)))
}

func TestTracker_FixLiveInOut(t *testing.T) {
	b := ddg.NewBuilder(testModel(t, 4))
	a, _ := b.AddInst("a", "op", ddg.WithEntryBlock())
	x, _ := b.AddInst("x", "op")
	z, _ := b.AddInst("z", "op", ddg.WithExitBlock())
	dag, err := b.Finalize()
	require.NoError(t, err)

	tr := pressure.NewTracker(dag, pressure.BuildFiles(dag), pressure.Config{
		CostFn: pressure.SCFPeak, FixLiveIn: true, FixLiveOut: true,
	})

	// Entry-pinned instructions must come first; exit-pinned ones last.
	require.True(t, tr.InstIsLegal(dag.Node(a)))
	require.False(t, tr.InstIsLegal(dag.Node(x)))
	require.False(t, tr.InstIsLegal(dag.Node(z)))

	tr.ScheduleInst(dag.Node(a))
	require.True(t, tr.InstIsLegal(dag.Node(x)))
	require.False(t, tr.InstIsLegal(dag.Node(z)))

	tr.ScheduleInst(dag.Node(x))
	require.True(t, tr.InstIsLegal(dag.Node(z)))
}

func TestTracker_Conflicts(t *testing.T) {
	// a defs r0; b defs r1 while r0 is still live; c and d consume them.
	b := ddg.NewBuilder(testModel(t, 4))
	a, _ := b.AddInst("a", "op", ddg.WithDefs(gpr(0)))
	bb, _ := b.AddInst("b", "op", ddg.WithDefs(gpr(1)))
	c, _ := b.AddInst("c", "op", ddg.WithUses(gpr(0)))
	d, _ := b.AddInst("d", "op", ddg.WithUses(gpr(1)))
	_, _, _, _ = a, bb, c, d
	dag, err := b.Finalize()
	require.NoError(t, err)

	tr := pressure.NewTracker(dag, pressure.BuildFiles(dag), pressure.Config{
		CostFn: pressure.SCFPeak, TrackConflicts: true,
	})

	// b defines r1 while r0 is live: one conflict pair.
	for i := 0; i < 4; i++ {
		tr.ScheduleInst(dag.Node(i))
	}
	require.Equal(t, 1, tr.ConflictCount())

	tr.Reset()
	require.Equal(t, 0, tr.ConflictCount())
}
