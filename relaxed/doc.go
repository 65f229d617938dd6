// Package relaxed implements the relaxed lower-bound schedulers that
// tighten the schedule-length lower bound before enumeration, and the
// partial-state re-bound consulted by the enumerator's relaxed pruning.
//
// Two relaxations are provided, each run once forward and once backward
// (backward runs the same algorithm over the reversed graph):
//
//   - RJ (Rim–Jain): instructions sorted by earliest start are placed at
//     the first cycle where their issue type has a free slot, ignoring
//     future conflicts. Non-work-conserving, per-issue-type capacities.
//   - LC (list-based): the same placement against the total issue rate
//     only, a coarser but cheaper relaxation.
//
// Both bounds are admissible and monotone: adding dependence edges can
// only raise them. The final schedule-length lower bound taken by the
// region is max(staticCP, forwardRelaxed, backwardRelaxed).
package relaxed
