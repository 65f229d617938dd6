// Package machine defines the read-only machine model consumed by every
// scheduling component: the issue rate, the issue types partitioning the
// per-cycle issue capacity, the instruction types with their default
// latencies, the register types with their physical-register counts, and
// the per-(producing-type, dependence-kind) latency table.
//
// A Model is immutable after Decode/Load and safe to share across regions
// scheduled on distinct goroutines.
//
// Models are described in TOML:
//
//	name       = "simple"
//	issue_rate = 2
//
//	[[issue_type]]
//	name            = "ALU"
//	slots_per_cycle = 1
//
//	[[inst_type]]
//	name       = "add"
//	issue_type = "ALU"
//	latency    = 1
//	pipelined  = true
//
//	[[reg_type]]
//	name           = "GPR"
//	phys_reg_count = 16
//
//	[[latency]]
//	inst_type = "load"
//	dep_kind  = "data"
//	cycles    = 4
//
// Errors:
//
//	ErrBadIssueRate   - issue rate is not positive.
//	ErrDuplicateName  - two issue/instruction/register types share a name.
//	ErrUnknownType    - a reference names a type that was never declared.
//	ErrBadSlotCount   - an issue type declares a non-positive slot count.
package machine
