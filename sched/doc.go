// Package sched defines the Schedule value produced by every scheduler in
// the engine — a dense (cycle, slot) → instruction array with explicit
// STALL sentinels — and the post-hoc verifier that re-checks dependence
// and resource legality of a returned schedule.
//
// A Schedule is exclusively owned by its producer; the engine returns the
// winning schedule to the caller and discards losers. Cost metadata
// (spill cost, per-step cost vector, peak pressures, normalized total
// cost) is attached by the region once computed.
//
// Slot index s maps to cycle s ÷ issueRate and slot s mod issueRate;
// Length reports cycles up to the last real instruction, so trailing
// stalls never extend a schedule.
package sched
