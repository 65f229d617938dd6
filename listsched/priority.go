// Package listsched - priority keys, parsing, and the comparator.
package listsched

import (
	"strings"

	"github.com/katalvlaran/optsched/ddg"
	"github.com/katalvlaran/optsched/pressure"
)

// PriorityKey is one key of a lexicographic priority list.
type PriorityKey uint8

const (
	// KeyCP orders by backward critical path, longest first.
	KeyCP PriorityKey = iota

	// KeyLUC orders by last-use count, highest first. Dynamic.
	KeyLUC

	// KeyUC orders by use count, highest first.
	KeyUC

	// KeyNID orders by node index, lowest first.
	KeyNID

	// KeyCPR orders by critical path per direct successor, highest first.
	KeyCPR

	// KeyISO preserves the host-supplied input order.
	KeyISO

	// KeySC orders by direct successor count, highest first.
	KeySC

	// KeyLS orders by currently-live used registers, highest first.
	KeyLS
)

// MaxKeys bounds the priority list length.
const MaxKeys = 8

// keyNames maps tokens of the HEURISTIC / ENUM_HEURISTIC values.
var keyNames = map[string]PriorityKey{
	"CP":  KeyCP,
	"LUC": KeyLUC,
	"UC":  KeyUC,
	"NID": KeyNID,
	"CPR": KeyCPR,
	"ISO": KeyISO,
	"SC":  KeySC,
	"LS":  KeyLS,
}

// Priorities is a parsed priority list. Dynamic is set when any key's
// value changes as scheduling progresses (LUC, LS), requiring the ready
// list to re-key after schedule steps.
type Priorities struct {
	Keys    []PriorityKey
	Dynamic bool
}

// ParsePriorities parses an underscore-joined key list such as
// "CP_LUC_NID". Unknown tokens default to CP and are returned for the
// caller to log; the list is truncated to MaxKeys.
func ParsePriorities(s string) (Priorities, []string) {
	var (
		p       Priorities
		unknown []string
	)
	for _, tok := range strings.Split(s, "_") {
		if tok == "" {
			continue
		}
		if len(p.Keys) == MaxKeys {
			break
		}
		key, ok := keyNames[tok]
		if !ok {
			unknown = append(unknown, tok)
			key = KeyCP
		}
		if key == KeyLUC || key == KeyLS {
			p.Dynamic = true
		}
		p.Keys = append(p.Keys, key)
	}
	if len(p.Keys) == 0 {
		p.Keys = []PriorityKey{KeyCP}
	}

	return p, unknown
}

// Scorer evaluates priority keys against the current region state.
// LUC and LS read the live register files through the tracker, so one
// Scorer must only be consulted between tracker steps, never during one.
type Scorer struct {
	Dag     *ddg.Graph
	Tracker *pressure.Tracker
	Prirts  Priorities
}

// NewScorer builds a Scorer over the region's graph and tracker.
func NewScorer(dag *ddg.Graph, tracker *pressure.Tracker, prirts Priorities) *Scorer {
	return &Scorer{Dag: dag, Tracker: tracker, Prirts: prirts}
}

// value computes one key for one instruction, negated where lower wins so
// that higher always means better.
func (sc *Scorer) value(key PriorityKey, inst int) int {
	n := sc.Dag.Node(inst)
	switch key {
	case KeyCP:
		return n.BkwdCriticalPath()
	case KeyLUC:
		return sc.lastUseCount(n)
	case KeyUC:
		return len(n.Uses)
	case KeyNID:
		return -n.Num
	case KeyCPR:
		return n.BkwdCriticalPath() * 100 / (sc.succCount(inst) + 1)
	case KeyISO:
		return -n.InputOrder
	case KeySC:
		return sc.succCount(inst)
	default: // KeyLS
		return sc.liveUseCount(n)
	}
}

// Better reports whether instruction a outranks instruction b under the
// lexicographic key list; the final tie-break is the lower node index.
func (sc *Scorer) Better(a, b int) bool {
	for _, key := range sc.Prirts.Keys {
		va, vb := sc.value(key, a), sc.value(key, b)
		if va != vb {
			return va > vb
		}
	}

	return a < b
}

// succCount counts direct successors, excluding the exit sentinel.
func (sc *Scorer) succCount(inst int) int {
	cnt := 0
	for _, e := range sc.Dag.SuccEdges(inst) {
		if !sc.Dag.Node(e.To).IsSentinel() {
			cnt++
		}
	}

	return cnt
}

// lastUseCount counts the used registers whose last remaining consumer
// is this instruction.
func (sc *Scorer) lastUseCount(n *ddg.Node) int {
	cnt := 0
	for _, ref := range n.Uses {
		r := sc.Tracker.Files()[ref.Type].Regs[ref.Num]
		if r.Live() && r.UseCnt-r.CrntUseCnt() == 1 {
			cnt++
		}
	}

	return cnt
}

// liveUseCount counts the used registers whose live bit is currently set.
func (sc *Scorer) liveUseCount(n *ddg.Node) int {
	cnt := 0
	for _, ref := range n.Uses {
		if sc.Tracker.RegIsLive(ref) {
			cnt++
		}
	}

	return cnt
}
