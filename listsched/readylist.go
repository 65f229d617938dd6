// Package listsched - the priority-ordered ready list.
package listsched

import "sort"

// ReadyList holds the instructions currently ready to issue, kept in
// priority order under a Scorer. Insertions keep the order; Resort
// re-keys the whole list after a dynamic-priority step.
type ReadyList struct {
	scorer *Scorer
	insts  []int
}

// NewReadyList returns an empty list ordered by scorer.
func NewReadyList(scorer *Scorer, capHint int) *ReadyList {
	return &ReadyList{scorer: scorer, insts: make([]int, 0, capHint)}
}

// Len returns the number of ready instructions.
func (rl *ReadyList) Len() int { return len(rl.insts) }

// At returns the i-th ready instruction in priority order.
func (rl *ReadyList) At(i int) int { return rl.insts[i] }

// Add inserts inst at its priority position.
func (rl *ReadyList) Add(inst int) {
	pos := sort.Search(len(rl.insts), func(i int) bool {
		return rl.scorer.Better(inst, rl.insts[i])
	})
	rl.insts = append(rl.insts, 0)
	copy(rl.insts[pos+1:], rl.insts[pos:])
	rl.insts[pos] = inst
}

// RemoveAt deletes the i-th entry.
func (rl *ReadyList) RemoveAt(i int) {
	rl.insts = append(rl.insts[:i], rl.insts[i+1:]...)
}

// Resort re-keys the whole list; required after any schedule step when
// the priority list is dynamic (LUC, LS).
func (rl *ReadyList) Resort() {
	sort.SliceStable(rl.insts, func(i, j int) bool {
		return rl.scorer.Better(rl.insts[i], rl.insts[j])
	})
}

// Reset empties the list, keeping capacity.
func (rl *ReadyList) Reset() { rl.insts = rl.insts[:0] }
