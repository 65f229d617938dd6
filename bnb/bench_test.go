// Package bnb_test - enumerator benchmark on a pressure-bound region.
package bnb_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/optsched/bnb"
	"github.com/katalvlaran/optsched/ddg"
	"github.com/katalvlaran/optsched/listsched"
	"github.com/katalvlaran/optsched/machine"
	"github.com/katalvlaran/optsched/pressure"
	"github.com/katalvlaran/optsched/sched"
	"github.com/katalvlaran/optsched/trans"
)

// benchRegion builds k independent def/use pairs against one physical
// register — the search space grows combinatorially with k.
func benchRegion(b *testing.B, k int) *ddg.Graph {
	b.Helper()
	m, err := machine.NewModel("bench", 1,
		[]machine.IssueType{{Name: "ALU", SlotsPerCycle: 1}},
		[]machine.InstType{{Name: "op", IssueType: "ALU", Latency: 1, Pipelined: true}},
		[]machine.RegType{{Name: "GPR", PhysRegCount: 1}},
		nil)
	require.NoError(b, err)

	bld := ddg.NewBuilder(m)
	for i := 0; i < k; i++ {
		ref := ddg.RegRef{Type: 0, Num: i, Phys: ddg.NoPhysReg}
		def, err := bld.AddInst("def", "op", ddg.WithDefs(ref))
		require.NoError(b, err)
		use, err := bld.AddInst("use", "op", ddg.WithUses(ref))
		require.NoError(b, err)
		require.NoError(b, bld.AddDep(def, use, machine.DepData, 1))
	}
	g, err := bld.Finalize()
	require.NoError(b, err)

	return g
}

func BenchmarkEnumerator_FindFeasibleSchedule(b *testing.B) {
	dag := benchRegion(b, 4)
	files := pressure.BuildFiles(dag)
	tracker := pressure.NewTracker(dag, files, pressure.Config{CostFn: pressure.SCFPeak})
	prirts, _ := listsched.ParsePriorities("NID")

	trgtLen := 2 * 4
	costs := bnb.CostModel{SpillCostFactor: 10, SchedCostFactor: 100, CostLwrBound: trgtLen * 100}
	enum := bnb.NewEnumerator(dag, tracker, bnb.Config{
		Prirts:      prirts,
		Prune:       bnb.Pruning{Relaxed: true, NodeSup: true, HistDom: true, SpillCost: true},
		StallEnum:   true,
		HashBits:    12,
		Costs:       costs,
		Superiority: trans.NewSuperiority(dag, files),
		Logger:      zerolog.Nop(),
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tracker.Reset()
		enum.Reset()
		inc := &bnb.Incumbent{Cost: 1000, Length: trgtLen, Sched: sched.NewSchedule(1, 2*trgtLen)}
		if outcome := enum.FindFeasibleSchedule(trgtLen, time.Time{}, inc); outcome == bnb.OutcomeTimeout {
			b.Fatal("unexpected timeout")
		}
	}
}
