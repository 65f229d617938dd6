// Package region orchestrates the scheduling of one region: dependence
// graph in, one schedule out.
//
// FindOptimalSchedule runs the pipeline of the engine — optional graph
// transformations, the heuristic list scheduler (seeding the cost upper
// bound), the relaxed lower-bound schedulers, the branch-and-bound
// enumerator over increasing target lengths, the post-hoc comparators,
// and the verifier — honoring the region and per-length deadlines
// cooperatively.
//
// Cost model: normalized cost = length × 100 + spillCost ×
// SpillCostFactor − scheduleLowerBound × 100, so a cost of zero proves
// the schedule optimal in both length and spill cost.
//
// Everything is single-threaded within one region; the machine model is
// the only state shared between regions, and it is read-only. Construct
// every other component fresh per region.
package region
