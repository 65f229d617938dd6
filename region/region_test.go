// Package region_test validates the end-to-end pipeline against the
// canonical regions: chains, independent sets, diamonds, spill-bound
// regions, size gating, and the zero-deadline bypass.
package region_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/optsched/bnb"
	"github.com/katalvlaran/optsched/config"
	"github.com/katalvlaran/optsched/ddg"
	"github.com/katalvlaran/optsched/listsched"
	"github.com/katalvlaran/optsched/machine"
	"github.com/katalvlaran/optsched/pressure"
	"github.com/katalvlaran/optsched/region"
	"github.com/katalvlaran/optsched/relaxed"
	"github.com/katalvlaran/optsched/sched"
)

func testModel(t *testing.T, issueRate, physRegs int) *machine.Model {
	t.Helper()
	m, err := machine.NewModel("test", issueRate,
		[]machine.IssueType{{Name: "ALU", SlotsPerCycle: issueRate}},
		[]machine.InstType{{Name: "op", IssueType: "ALU", Latency: 1, Pipelined: true}},
		[]machine.RegType{{Name: "GPR", PhysRegCount: physRegs}},
		nil)
	require.NoError(t, err)

	return m
}

func gpr(num int) ddg.RegRef { return ddg.RegRef{Type: 0, Num: num, Phys: ddg.NoPhysReg} }

// chainDag builds a→b latency 1 (scenario: two-instruction chain).
func chainDag(t *testing.T) *ddg.Graph {
	t.Helper()
	b := ddg.NewBuilder(testModel(t, 1, 8))
	a, _ := b.AddInst("a", "op")
	bb, _ := b.AddInst("b", "op")
	require.NoError(t, b.AddDep(a, bb, machine.DepData, 1))
	g, err := b.Finalize()
	require.NoError(t, err)

	return g
}

// spillDag builds the four-instruction region where NID scheduling
// overlaps two live ranges against one physical register.
func spillDag(t *testing.T) *ddg.Graph {
	t.Helper()
	b := ddg.NewBuilder(testModel(t, 1, 1))
	a, _ := b.AddInst("a", "op", ddg.WithDefs(gpr(0)))
	bb, _ := b.AddInst("b", "op", ddg.WithDefs(gpr(1)))
	c, _ := b.AddInst("c", "op", ddg.WithUses(gpr(0)))
	d, _ := b.AddInst("d", "op", ddg.WithUses(gpr(1)))
	require.NoError(t, b.AddDep(a, c, machine.DepData, 1))
	require.NoError(t, b.AddDep(bb, d, machine.DepData, 1))
	g, err := b.Finalize()
	require.NoError(t, err)

	return g
}

// nidOptions forces the NID priority so the heuristic order is fixed.
func nidOptions() region.Options {
	opts := region.DefaultOptions()
	prirts, _ := listsched.ParsePriorities("NID")
	opts.HeurPrirts = prirts
	opts.EnumPrirts = prirts
	opts.VerifySchedule = true

	return opts
}

func TestFindOptimalSchedule_Chain(t *testing.T) {
	result, err := region.FindOptimalSchedule(chainDag(t), nidOptions())
	require.NoError(t, err)

	require.Equal(t, region.StatusSuccess, result.Status)
	require.True(t, result.Optimal)
	require.Equal(t, 2, result.BestLength)
	require.Equal(t, 0, result.BestCost, "the list schedule is already optimal")
	require.Equal(t, 0, result.Schedule.At(0))
	require.Equal(t, 1, result.Schedule.At(1))
}

func TestFindOptimalSchedule_ThreeIndependent(t *testing.T) {
	// Three independent instructions on a 1-wide machine: length 3 and
	// the heuristic already optimal regardless of the priority list.
	for _, prirts := range []string{"NID", "CP_UC_NID", "ISO"} {
		b := ddg.NewBuilder(testModel(t, 1, 8))
		for _, name := range []string{"x", "y", "z"} {
			_, err := b.AddInst(name, "op")
			require.NoError(t, err)
		}
		dag, err := b.Finalize()
		require.NoError(t, err)

		opts := nidOptions()
		opts.HeurPrirts, _ = listsched.ParsePriorities(prirts)
		result, err := region.FindOptimalSchedule(dag, opts)
		require.NoError(t, err)
		require.Equal(t, region.StatusSuccess, result.Status, prirts)
		require.Equal(t, 3, result.BestLength, prirts)
		require.Equal(t, result.HeuristicCost, result.BestCost, prirts)
		require.Equal(t, 0, result.BestCost, prirts)
	}
}

func TestFindOptimalSchedule_Diamond2Wide(t *testing.T) {
	b := ddg.NewBuilder(testModel(t, 2, 8))
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

	result, err := region.FindOptimalSchedule(dag, nidOptions())
	require.NoError(t, err)
	require.Equal(t, region.StatusSuccess, result.Status)
	require.Equal(t, 3, result.BestLength)

	// b and c issue in the same cycle.
	s := result.Schedule
	cycleOf := make(map[int]int)
	for i := 0; i < s.SlotCount(); i++ {
		if inst := s.At(i); inst != sched.StallInst {
			cycleOf[inst] = s.CycleOf(i)
		}
	}
	require.Equal(t, cycleOf[idx[1]], cycleOf[idx[2]])
}

func TestFindOptimalSchedule_EnumeratorBeatsHeuristic(t *testing.T) {
	result, err := region.FindOptimalSchedule(spillDag(t), nidOptions())
	require.NoError(t, err)

	require.Equal(t, region.StatusSuccess, result.Status)
	require.True(t, result.Optimal)
	require.Equal(t, 10, result.HeuristicCost, "NID overlaps the two live ranges")
	require.Equal(t, 0, result.BestCost, "the enumerator interleaves them")
	require.Equal(t, 4, result.BestLength)
	require.NotZero(t, result.NodesExamined)
	require.NoError(t, sched.Verify(result.Schedule, spillDag(t)))
}

func TestFindOptimalSchedule_PrunesPreserveCost(t *testing.T) {
	withPrunes, err := region.FindOptimalSchedule(spillDag(t), nidOptions())
	require.NoError(t, err)

	opts := nidOptions()
	opts.Prune = bnb.Pruning{}
	withoutPrunes, err := region.FindOptimalSchedule(spillDag(t), opts)
	require.NoError(t, err)

	require.Equal(t, withoutPrunes.BestCost, withPrunes.BestCost)
	require.LessOrEqual(t, withPrunes.NodesExamined, withoutPrunes.NodesExamined)
}

func TestFindOptimalSchedule_OutOfRange(t *testing.T) {
	opts := nidOptions()
	opts.MaxDagSize = 2
	result, err := region.FindOptimalSchedule(spillDag(t), opts)
	require.NoError(t, err)

	require.Equal(t, region.StatusOutOfRange, result.Status)
	require.False(t, result.Optimal)
	// The heuristic schedule is still returned.
	require.Equal(t, result.HeuristicCost, result.BestCost)
	require.Equal(t, 4, result.Schedule.Length())
	require.Zero(t, result.NodesExamined)
}

func TestFindOptimalSchedule_ZeroDeadline(t *testing.T) {
	opts := nidOptions()
	opts.RegionTimeout = 0
	result, err := region.FindOptimalSchedule(spillDag(t), opts)
	require.NoError(t, err)

	require.Equal(t, region.StatusTimeout, result.Status)
	require.False(t, result.Optimal)
	require.Equal(t, result.HeuristicCost, result.BestCost)
	require.Equal(t, 4, result.Schedule.Length())
}

func TestFindOptimalSchedule_EngineDisabled(t *testing.T) {
	opts := nidOptions()
	opts.Use = region.UseNo
	result, err := region.FindOptimalSchedule(spillDag(t), opts)
	require.NoError(t, err)

	require.Equal(t, region.StatusSuccess, result.Status)
	require.False(t, result.Optimal)
	require.Equal(t, result.HeuristicCost, result.BestCost)
	require.Zero(t, result.NodesExamined)
}

func TestFindOptimalSchedule_InvalidDag(t *testing.T) {
	_, err := region.FindOptimalSchedule(nil, region.DefaultOptions())
	require.ErrorIs(t, err, region.ErrInvalidDag)
}

func TestOptionsFromConfig(t *testing.T) {
	src := `
USE_OPT_SCHED HOT_ONLY
HEURISTIC CP_LUC_BOGUS
ENUM_HEURISTIC NID
LB_ALG RJ
SPILL_COST_FUNCTION SUM
APPLY_HISTORY_DOMINATION NO
ENUMERATE_STALLS NO
HIST_TABLE_HASH_BITS 18
SPILL_COST_FACTOR 25
REGION_TIMEOUT 500
LENGTH_TIMEOUT 100
TIMEOUT_PER INSTR
MIN_DAG_SIZE 3
MAX_DAG_SIZE 50
FIX_LIVEIN YES
VERIFY_SCHEDULE YES
GRAPH_TRANSFORMATIONS EQDECT_RPONSP
`
	store, err := config.Parse(strings.NewReader(src))
	require.NoError(t, err)

	opts, warns := region.OptionsFromConfig(store)
	require.Len(t, warns, 1, "the bogus heuristic token must be reported")

	require.Equal(t, region.UseHotOnly, opts.Use)
	require.Equal(t, []listsched.PriorityKey{listsched.KeyCP, listsched.KeyLUC, listsched.KeyCP}, opts.HeurPrirts.Keys)
	require.Equal(t, []listsched.PriorityKey{listsched.KeyNID}, opts.EnumPrirts.Keys)
	require.Equal(t, relaxed.AlgRJ, opts.LBAlg)
	require.Equal(t, pressure.SCFSum, opts.SpillCostFunc)
	require.True(t, opts.Prune.Relaxed)
	require.False(t, opts.Prune.HistDom)
	require.False(t, opts.EnumStalls)
	require.Equal(t, 18, opts.HistHashBits)
	require.Equal(t, 25, opts.SpillCostFactor)
	require.Equal(t, 500, int(opts.RegionTimeout.Milliseconds()))
	require.Equal(t, 100, int(opts.LengthTimeout.Milliseconds()))
	require.True(t, opts.TimeoutPerInstr)
	require.Equal(t, 3, opts.MinDagSize)
	require.Equal(t, 50, opts.MaxDagSize)
	require.True(t, opts.FixLiveIn)
	require.True(t, opts.VerifySchedule)
	require.Len(t, opts.Transforms, 2)

	// Absent timeouts are unlimited, not zero.
	empty, _ := region.OptionsFromConfig(config.New())
	require.Equal(t, region.Unlimited, empty.RegionTimeout)
}
