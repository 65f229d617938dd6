// Package pressure_test - tracker hot-path benchmarks.
package pressure_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/optsched/ddg"
	"github.com/katalvlaran/optsched/machine"
	"github.com/katalvlaran/optsched/pressure"
)

// benchDag builds a 32-instruction def/use ladder.
func benchDag(b *testing.B) *ddg.Graph {
	b.Helper()
	m, err := machine.NewModel("bench", 1,
		[]machine.IssueType{{Name: "ALU", SlotsPerCycle: 1}},
		[]machine.InstType{{Name: "op", IssueType: "ALU", Latency: 1, Pipelined: true}},
		[]machine.RegType{{Name: "GPR", PhysRegCount: 8}},
		nil)
	require.NoError(b, err)

	bld := ddg.NewBuilder(m)
	const n = 32
	prev := -1
	for i := 0; i < n; i++ {
		opts := []ddg.InstOption{ddg.WithDefs(gpr(i))}
		if prev >= 0 {
			opts = append(opts, ddg.WithUses(gpr(prev)))
		}
		idx, err := bld.AddInst("op", "op", opts...)
		require.NoError(b, err)
		if prev >= 0 {
			require.NoError(b, bld.AddDep(prev, idx, machine.DepData, 1))
		}
		prev = idx
	}
	g, err := bld.Finalize()
	require.NoError(b, err)

	return g
}

// BenchmarkTracker_ScheduleUnschedule measures one full forward pass and
// its exact inverse — the enumerator's innermost pattern.
func BenchmarkTracker_ScheduleUnschedule(b *testing.B) {
	dag := benchDag(b)
	tr := pressure.NewTracker(dag, pressure.BuildFiles(dag), pressure.Config{CostFn: pressure.SCFPeak})
	n := dag.InstCount()
	peaks := make([]int, n)
	pressures := make([][]int, n)
	for j := range pressures {
		pressures[j] = make([]int, dag.Model().RegTypeCount())
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := 0; j < n; j++ {
			peaks[j] = tr.PeakSpillCost()
			copy(pressures[j], tr.PeakPressures())
			tr.ScheduleInst(dag.Node(j))
		}
		for j := n - 1; j >= 0; j-- {
			tr.UnscheduleInst(dag.Node(j), peaks[j], pressures[j])
		}
	}
}
