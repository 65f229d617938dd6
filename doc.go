// Package optsched is a combinatorial instruction scheduler for compiler
// back ends: given a dependence DAG and a machine model it produces the
// schedule minimizing length × 100 + spillCost × factor, proven optimal
// by branch-and-bound whenever the deadlines allow.
//
// The pipeline, one region at a time:
//
//	machine/   — read-only machine model (issue types, latencies, register files)
//	ddg/       — dependence graph: sentinels, transitive closure, critical paths
//	pressure/  — live-register and spill-cost tracking (schedule/unschedule hooks)
//	listsched/ — heuristic list scheduler seeding the cost upper bound
//	relaxed/   — Rim–Jain and list-based lower-bound relaxations
//	trans/     — equivalence and node-superiority graph transformations
//	bnb/       — branch-and-bound enumerator with history dominance
//	region/    — orchestration, configuration, deadlines, verification
//	config/    — the flat KEY-value configuration dialect
//
// Quick start:
//
//	model, _ := machine.Load("machine.toml")
//	b := ddg.NewBuilder(model)
//	a, _ := b.AddInst("a", "add", ddg.WithDefs(ddg.RegRef{Type: 0, Num: 0, Phys: ddg.NoPhysReg}))
//	c, _ := b.AddInst("c", "add", ddg.WithUses(ddg.RegRef{Type: 0, Num: 0, Phys: ddg.NoPhysReg}))
//	_ = b.AddDep(a, c, machine.DepData, 1)
//	dag, _ := b.Finalize()
//	result, _ := region.FindOptimalSchedule(dag, region.DefaultOptions())
//
// The cmd/optsched CLI wraps the same pipeline around TOML machine and
// DAG files.
package optsched
