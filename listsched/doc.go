// Package listsched implements the heuristic list scheduler that seeds
// the engine's cost upper bound, together with the configurable priority
// machinery shared with the enumerator.
//
// Priorities are an ordered list of up to eight keys tried
// lexicographically:
//
//	CP  - critical path (latency distance to exit); longer first
//	LUC - last-use count: producers whose last remaining consumer is this
//	      instruction (dynamic, re-keyed as uses are consumed)
//	UC  - use count; higher first
//	NID - node ID; lower first
//	CPR - critical path per direct successor; higher first
//	ISO - input-schedule order; earlier first
//	SC  - direct successor count; higher first
//	LS  - used registers currently live; higher first
//
// Ties fall through to the next key; after all keys, the lower node
// index wins, keeping every ordering deterministic. The key list is a
// single dispatch loop over an enum vector — no per-key virtual calls.
//
// The scheduler itself is classical cycle-by-cycle list scheduling:
// per-cycle ready lists keyed by earliest legal start, highest-priority
// legal candidate per issue slot, explicit stalls when no candidate
// fits, and the pressure tracker consulted for register legality on
// every pick.
package listsched
