// Package region_test - runnable example for the public entry point.
package region_test

import (
	"fmt"

	"github.com/katalvlaran/optsched/ddg"
	"github.com/katalvlaran/optsched/machine"
	"github.com/katalvlaran/optsched/region"
)

// ExampleFindOptimalSchedule schedules a two-instruction chain on a
// 1-wide machine: the classic minimal region.
func ExampleFindOptimalSchedule() {
	model, err := machine.NewModel("demo", 1,
		[]machine.IssueType{{Name: "ALU", SlotsPerCycle: 1}},
		[]machine.InstType{{Name: "op", IssueType: "ALU", Latency: 1, Pipelined: true}},
		[]machine.RegType{{Name: "GPR", PhysRegCount: 8}},
		nil)
	if err != nil {
		panic(err)
	}

	b := ddg.NewBuilder(model)
	a, _ := b.AddInst("a", "op")
	c, _ := b.AddInst("b", "op")
	if err = b.AddDep(a, c, machine.DepData, 1); err != nil {
		panic(err)
	}
	dag, err := b.Finalize()
	if err != nil {
		panic(err)
	}

	result, err := region.FindOptimalSchedule(dag, region.DefaultOptions())
	if err != nil {
		panic(err)
	}
	fmt.Println(result.Status, result.BestLength, result.BestCost)
	// Output: Success 2 0
}
