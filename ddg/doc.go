// Package ddg implements the data-dependence graph every scheduling
// component operates on: instruction nodes with register def/use sets,
// latency-carrying dependence edges, artificial entry/exit sentinels,
// forward and backward recursive-neighbor bit-sets (transitive closure),
// and static critical-path bounds.
//
// Construction is two-phase. A Builder collects raw instructions and
// dependences from the host compiler's DAG builder, then Finalize
// classifies dependence kinds, assigns per-edge latencies according to
// the configured precision mode, inserts the sentinels, orders the graph
// topologically (rejecting cycles), closes the recursive neighbor sets,
// and computes the critical-path bounds.
//
// Sentinels are appended after the real instructions (indices n and n+1).
// They anchor closure and bounds but occupy no issue slot and never
// appear in a schedule.
//
// The graph is index based throughout: nodes refer to registers via
// RegRef{Type, Num, Phys} triples into per-type arenas, never through
// pointers, so no ownership cycles arise between registers and their
// defining or using instructions.
//
// Errors:
//
//	ErrCycle        - the dependence graph is not acyclic.
//	ErrBadLatency   - a dependence carries a negative latency.
//	ErrUnknownInst  - an instruction names an undeclared instruction type.
//	ErrBadNodeIndex - a dependence references a node that does not exist.
//	ErrFinalized    - mutation attempted after Finalize.
//
// Complexity: Finalize is O(V·E/w) for the closure (w = word size) and
// O(V + E) for everything else.
package ddg
