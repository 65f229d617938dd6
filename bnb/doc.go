// Package bnb implements the branch-and-bound enumerator: a depth-first
// search over partial schedules, one explicit frame per issue slot, run
// at increasing target lengths by the region until optimality is proven
// or a deadline expires.
//
// Per tree node the enumerator consults, cheapest first: cost
// feasibility against the incumbent, the spill-cost ceiling, history
// dominance, node superiority (applied while the candidate list is
// built), and the recomputed forward-relaxed bound. Stall slots enter
// the candidate list after every real candidate when stall enumeration
// is on, and are forced when no real candidate exists.
//
// Signatures are a commutative 64-bit mix over the scheduled instruction
// numbers, so permutations of one instruction set meet in the same
// history bucket at the same depth — which is exactly the dominance the
// table exists to exploit. The optional exact-signature mode attaches a
// content digest per entry and logs (instead of pruning on) signature
// collisions.
package bnb
