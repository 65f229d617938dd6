// Package trans implements the semantics-preserving pre-enumeration graph
// transformations and the node-superiority relation they and the
// enumerator's superiority pruning share.
//
// Node A is superior to independent node B when every schedule placing B
// first can be transformed, without loss, into one placing A first:
// same issue type, rcrsvPred(A) ⊆ rcrsvPred(B), rcrsvSucc(B) ⊆
// rcrsvSucc(A), every register B reads but A does not has another
// consumer below both, and A defines no more registers of any type than
// B does.
//
// Two transformations insert zero-latency ordering edges:
//
//   - Equivalence detection: independent nodes with the same issue type
//     and identical recursive neighbor sets are chained in node-ID order,
//     collapsing symmetric subtrees.
//   - RP-only node superiority: an edge A→B for every superior pair,
//     broken by node ID when each dominates the other.
//
// Every insertion extends the recursive neighbor sets incrementally;
// bounds are recomputed once after a transformation pass.
package trans
