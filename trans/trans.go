// Package trans - the superiority relation and the transformation passes.
package trans

import (
	"strings"

	"github.com/katalvlaran/optsched/ddg"
	"github.com/katalvlaran/optsched/machine"
	"github.com/katalvlaran/optsched/pressure"
)

// Type selects one transformation pass.
type Type int

const (
	// EquivDetect chains equivalent independent nodes in node-ID order.
	EquivDetect Type = iota

	// RPOnlyNodeSup inserts an edge for every superior independent pair.
	RPOnlyNodeSup
)

// ParseTransforms parses an underscore-joined pass list (EQDECT, RPONSP).
// Unknown tokens are returned for the caller to log and skipped.
func ParseTransforms(s string) ([]Type, []string) {
	var (
		passes  []Type
		unknown []string
	)
	for _, tok := range strings.Split(s, "_") {
		switch tok {
		case "":
		case "EQDECT":
			passes = append(passes, EquivDetect)
		case "RPONSP":
			passes = append(passes, RPOnlyNodeSup)
		default:
			unknown = append(unknown, tok)
		}
	}

	return passes, unknown
}

// NodeIsSuperior reports whether independent node a may always be
// scheduled before independent node b without loss of optimality.
// Callers must ensure a and b are independent.
func NodeIsSuperior(dag *ddg.Graph, files []*pressure.File, a, b int) bool {
	nodeA, nodeB := dag.Node(a), dag.Node(b)

	// 1. Same issue type.
	if nodeA.IssueType != nodeB.IssueType {
		return false
	}

	// 2. A's recursive predecessors within B's.
	if !nodeB.RcrsvPreds().IsSuperSet(nodeA.RcrsvPreds()) {
		return false
	}

	// 3. B's recursive successors within A's.
	if !nodeA.RcrsvSuccs().IsSuperSet(nodeB.RcrsvSuccs()) {
		return false
	}

	// 4. Every register B reads but A does not must keep a consumer that
	//    follows both nodes; otherwise scheduling A first could lengthen
	//    that register's live range.
	for _, refB := range nodeB.Uses {
		if nodeUsesReg(nodeA, refB) {
			continue
		}
		r := files[refB.Type].Regs[refB.Num]
		foundBelow := false
		for _, user := range r.Users {
			if user != b && dag.IsRcrsvSucc(b, user) {
				foundBelow = true

				break
			}
		}
		if !foundBelow {
			return false
		}
	}

	// 5. Per register type, A defines no more registers than B.
	defsA := defCountsByType(dag, nodeA)
	defsB := defCountsByType(dag, nodeB)
	for t := range defsA {
		if defsA[t] > defsB[t] {
			return false
		}
	}

	return true
}

// nodeUsesReg reports whether n reads the (type, num) register.
func nodeUsesReg(n *ddg.Node, ref ddg.RegRef) bool {
	for _, u := range n.Uses {
		if u.Type == ref.Type && u.Num == ref.Num {
			return true
		}
	}

	return false
}

// defCountsByType tallies n's defs per register type.
func defCountsByType(dag *ddg.Graph, n *ddg.Node) []int {
	counts := make([]int, dag.Model().RegTypeCount())
	for _, d := range n.Defs {
		counts[d.Type]++
	}

	return counts
}

// Apply runs the given passes in order and returns the number of edges
// inserted. Bounds are recomputed once at the end.
func Apply(dag *ddg.Graph, files []*pressure.File, passes []Type) (int, error) {
	added := 0
	for _, p := range passes {
		switch p {
		case EquivDetect:
			added += applyEquivDetect(dag)
		case RPOnlyNodeSup:
			added += applyNodeSup(dag, files)
		}
	}
	if added > 0 {
		if err := dag.RecomputeBounds(); err != nil {
			return added, err
		}
	}

	return added, nil
}

// applyEquivDetect groups equivalent nodes against the pre-pass closure
// and chains each group in node-ID order. Deferring the insertions keeps
// one insertion from invalidating the equal-predecessor condition of the
// remaining comparisons.
func applyEquivDetect(dag *ddg.Graph) int {
	n := dag.InstCount()
	grouped := make([]bool, n)
	added := 0

	for i := 0; i < n; i++ {
		if grouped[i] {
			continue
		}
		group := []int{i}
		for j := i + 1; j < n; j++ {
			if grouped[j] || !dag.AreIndependent(i, j) {
				continue
			}
			if nodesAreEquiv(dag, i, j) {
				group = append(group, j)
				grouped[j] = true
			}
		}
		// Chain the group: each member precedes the next by node ID.
		for k := 0; k+1 < len(group); k++ {
			dag.InsertEdge(group[k], group[k+1], machine.DepOther, 0)
			added++
		}
	}

	return added
}

// nodesAreEquiv reports same issue type and identical recursive sets.
func nodesAreEquiv(dag *ddg.Graph, i, j int) bool {
	a, b := dag.Node(i), dag.Node(j)
	if a.IssueType != b.IssueType {
		return false
	}
	if !a.RcrsvPreds().Equal(b.RcrsvPreds()) {
		return false
	}

	return a.RcrsvSuccs().Equal(b.RcrsvSuccs())
}

// applyNodeSup inserts one ordering edge per superior independent pair,
// broken by node ID when each node dominates the other.
func applyNodeSup(dag *ddg.Graph, files []*pressure.File) int {
	n := dag.InstCount()
	added := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !dag.AreIndependent(i, j) {
				continue
			}
			supIJ := NodeIsSuperior(dag, files, i, j)
			supJI := NodeIsSuperior(dag, files, j, i)
			switch {
			case supIJ:
				// Mutual superiority falls back to node-ID order, which
				// the i<j loop already provides.
				dag.InsertEdge(i, j, machine.DepOther, 0)
				added++
			case supJI:
				dag.InsertEdge(j, i, machine.DepOther, 0)
				added++
			}
		}
	}

	return added
}

// Superiority memoizes pairwise superiority checks for the enumerator's
// pruning; the relation is static once the transformations have run.
type Superiority struct {
	dag   *ddg.Graph
	files []*pressure.File
	memo  map[uint64]bool
}

// NewSuperiority returns a memoizing view over the relation.
func NewSuperiority(dag *ddg.Graph, files []*pressure.File) *Superiority {
	return &Superiority{dag: dag, files: files, memo: make(map[uint64]bool)}
}

// Is reports whether a is superior to b, caching the verdict.
func (s *Superiority) Is(a, b int) bool {
	key := uint64(a)<<32 | uint64(uint32(b))
	if v, ok := s.memo[key]; ok {
		return v
	}
	v := s.dag.AreIndependent(a, b) && NodeIsSuperior(s.dag, s.files, a, b)
	s.memo[key] = v

	return v
}
