// Package pressure - the cost/register-pressure tracker.
package pressure

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/katalvlaran/optsched/ddg"
	"github.com/katalvlaran/optsched/machine"
)

// SpillCostFunc selects how the running aggregates become the spill cost.
type SpillCostFunc int

const (
	// SCFPeak is the running peak of per-step spill costs.
	SCFPeak SpillCostFunc = iota

	// SCFPeakPerType computes per-step excess from per-type peaks rather
	// than per-step live counts; the cost is still the running peak.
	SCFPeakPerType

	// SCFSum is the running sum across all steps.
	SCFSum

	// SCFPeakPlusAvg is peak + sum/instructionCount.
	SCFPeakPlusAvg
)

// ParseSpillCostFunc maps PEAK/PEAK_PER_TYPE/SUM/PEAK_PLUS_AVG text to
// its function. Unknown text defaults to SCFPeak; the second result
// reports recognition.
func ParseSpillCostFunc(s string) (SpillCostFunc, bool) {
	switch s {
	case "PEAK":
		return SCFPeak, true
	case "PEAK_PER_TYPE":
		return SCFPeakPerType, true
	case "SUM":
		return SCFSum, true
	case "PEAK_PLUS_AVG":
		return SCFPeakPlusAvg, true
	}

	return SCFPeak, false
}

// Config carries the tracker's per-region policy switches.
type Config struct {
	// CostFn selects the spill-cost function.
	CostFn SpillCostFunc

	// TrackConflicts records, on every def, a conflict against each
	// concurrently live register of the same type.
	TrackConflicts bool

	// FixLiveIn refuses any non-entry instruction while entry-pinned
	// instructions remain unscheduled; FixLiveOut is the dual for exit.
	FixLiveIn, FixLiveOut bool
}

// Tracker maintains the live state needed to cost any partial schedule.
// It exclusively owns its bit-vectors and reuses them across
// schedule/unschedule pairs; one Tracker serves one region.
type Tracker struct {
	model *machine.Model
	dag   *ddg.Graph
	files []*File
	cfg   Config

	liveRegs     []*bitset.BitSet
	livePhysRegs []*bitset.BitSet
	peakPressure []int

	spillCosts []int // per-step costs, indexed by stepNum
	stepNum    int   // -1 before the first step

	totSpillCost  int
	peakSpillCost int
	crntSpillCost int

	entryInstCnt int
	exitInstCnt  int

	schduldInstCnt      int
	schduldEntryInstCnt int
	schduldExitInstCnt  int
}

// NewTracker builds a tracker over the region's register files.
// Complexity: O(regTypes + registers + instructions).
func NewTracker(dag *ddg.Graph, files []*File, cfg Config) *Tracker {
	t := &Tracker{
		model:        dag.Model(),
		dag:          dag,
		files:        files,
		cfg:          cfg,
		liveRegs:     make([]*bitset.BitSet, len(files)),
		livePhysRegs: make([]*bitset.BitSet, len(files)),
		peakPressure: make([]int, len(files)),
		spillCosts:   make([]int, dag.InstCount()),
	}
	for i, f := range files {
		t.liveRegs[i] = bitset.New(uint(f.RegCount()))
		if f.PhysRegCount() > 0 {
			t.livePhysRegs[i] = bitset.New(uint(f.PhysRegCount()))
		}
		if cfg.TrackConflicts {
			f.setupConflicts()
		}
	}
	for i := 0; i < dag.InstCount(); i++ {
		if dag.Node(i).MustBeInEntry {
			t.entryInstCnt++
		}
		if dag.Node(i).MustBeInExit {
			t.exitInstCnt++
		}
	}
	t.Reset()

	return t
}

// Files exposes the register files (read-mostly; the comparator in the
// region consults conflict counts through them).
func (t *Tracker) Files() []*File { return t.files }

// Reset rewinds the tracker to the empty-schedule state.
func (t *Tracker) Reset() {
	t.stepNum = -1
	t.crntSpillCost = 0
	t.peakSpillCost = 0
	t.totSpillCost = 0
	t.schduldInstCnt = 0
	t.schduldEntryInstCnt = 0
	t.schduldExitInstCnt = 0

	for i, f := range t.files {
		f.resetCrntUseCnts()
		t.liveRegs[i].ClearAll()
		if t.livePhysRegs[i] != nil {
			t.livePhysRegs[i].ClearAll()
		}
		if t.cfg.TrackConflicts {
			f.resetConflicts()
		}
		t.peakPressure[i] = 0
	}
	for i := range t.spillCosts {
		t.spillCosts[i] = 0
	}
}

// ScheduleInst applies one instruction to the live state: uses first
// (a register whose last consumer this is falls dead), then defs (a
// register with any consumers becomes live), then the per-type pressure
// and spill-cost aggregates.
func (t *Tracker) ScheduleInst(n *ddg.Node) {
	// 1. Uses: advance each register's current-use counter; the last
	//    consumer clears the live bit (and the physical alias bit).
	for _, ref := range n.Uses {
		r := t.files[ref.Type].Regs[ref.Num]
		r.AddCrntUse()
		if !r.Live() {
			t.liveRegs[ref.Type].Clear(uint(ref.Num))
			if t.livePhysRegs[ref.Type] != nil && r.Phys != ddg.NoPhysReg {
				t.livePhysRegs[ref.Type].Clear(uint(r.Phys))
			}
		}
	}

	// 2. Defs: a register with consumers becomes live; its current-use
	//    counter rewinds for the new def.
	for _, ref := range n.Defs {
		r := t.files[ref.Type].Regs[ref.Num]
		if r.UseCnt > 0 {
			if t.cfg.TrackConflicts && t.liveRegs[ref.Type].Count() > 0 {
				r.conflicts.InPlaceUnion(t.liveRegs[ref.Type])
				r.conflicts.Clear(uint(ref.Num))
			}
			t.liveRegs[ref.Type].Set(uint(ref.Num))
			if t.livePhysRegs[ref.Type] != nil && r.Phys != ddg.NoPhysReg {
				t.livePhysRegs[ref.Type].Set(uint(r.Phys))
			}
			r.ResetCrntUse()
		}
	}

	// 3. Per-type pressure peaks and this step's excess.
	newSpillCost := 0
	for i := range t.files {
		live := int(t.liveRegs[i].Count())
		if live > t.peakPressure[i] {
			t.peakPressure[i] = live
		}

		var excess int
		if t.cfg.CostFn == SCFPeakPerType {
			excess = t.peakPressure[i] - t.model.PhysRegCount(i)
		} else {
			excess = live - t.model.PhysRegCount(i)
		}
		if excess > 0 {
			newSpillCost += excess
		}
	}

	// 4. Aggregates.
	t.stepNum++
	t.spillCosts[t.stepNum] = newSpillCost
	t.totSpillCost += newSpillCost
	if newSpillCost > t.peakSpillCost {
		t.peakSpillCost = newSpillCost
	}
	t.computeCrntSpillCost()

	t.schduldInstCnt++
	if n.MustBeInEntry {
		t.schduldEntryInstCnt++
	}
	if n.MustBeInExit {
		t.schduldExitInstCnt++
	}
}

// UnscheduleInst is the exact inverse of ScheduleInst. The running peaks
// cannot be recomputed locally; peakSnapshot and peakPressures are the
// values saved by the caller before the corresponding ScheduleInst (the
// enumerator keeps both in its tree-node frame).
func (t *Tracker) UnscheduleInst(n *ddg.Node, peakSnapshot int, peakPressures []int) {
	// 1. Defs first: a register this def made live falls dead again.
	for _, ref := range n.Defs {
		r := t.files[ref.Type].Regs[ref.Num]
		if r.UseCnt > 0 {
			t.liveRegs[ref.Type].Clear(uint(ref.Num))
			if t.livePhysRegs[ref.Type] != nil && r.Phys != ddg.NoPhysReg {
				t.livePhysRegs[ref.Type].Clear(uint(r.Phys))
			}
			r.ResetCrntUse()
		}
	}

	// 2. Uses: rewind the counters; a register this instruction killed
	//    comes back to life.
	for _, ref := range n.Uses {
		r := t.files[ref.Type].Regs[ref.Num]
		wasLive := r.Live()
		r.DelCrntUse()
		if !wasLive {
			t.liveRegs[ref.Type].Set(uint(ref.Num))
			if t.livePhysRegs[ref.Type] != nil && r.Phys != ddg.NoPhysReg {
				t.livePhysRegs[ref.Type].Set(uint(r.Phys))
			}
		}
	}

	t.schduldInstCnt--
	if n.MustBeInEntry {
		t.schduldEntryInstCnt--
	}
	if n.MustBeInExit {
		t.schduldExitInstCnt--
	}

	// 3. Aggregates: pop this step's cost, restore both the running peak
	//    and the per-type pressure peaks from the caller's snapshot.
	t.totSpillCost -= t.spillCosts[t.stepNum]
	t.spillCosts[t.stepNum] = 0
	t.stepNum--
	t.peakSpillCost = peakSnapshot
	copy(t.peakPressure, peakPressures)
	t.computeCrntSpillCost()
}

// computeCrntSpillCost interprets the aggregates per the cost function.
func (t *Tracker) computeCrntSpillCost() {
	switch t.cfg.CostFn {
	case SCFPeak, SCFPeakPerType:
		t.crntSpillCost = t.peakSpillCost
	case SCFSum:
		t.crntSpillCost = t.totSpillCost
	case SCFPeakPlusAvg:
		t.crntSpillCost = t.peakSpillCost + t.totSpillCost/t.dag.InstCount()
	}
}

// InstIsLegal reports whether scheduling n now is legal: the live-in /
// live-out fixing gates, then the physical-register-clobber rule — a def
// of a live physical register is illegal unless this instruction is the
// last consumer of the clashing definition.
func (t *Tracker) InstIsLegal(n *ddg.Node) bool {
	if t.cfg.FixLiveIn {
		if !n.MustBeInEntry && t.schduldEntryInstCnt < t.entryInstCnt {
			return false
		}
	}
	if t.cfg.FixLiveOut {
		if n.MustBeInExit && t.schduldInstCnt < t.dag.InstCount()-t.exitInstCnt {
			return false
		}
	}

	for _, ref := range n.Defs {
		if t.livePhysRegs[ref.Type] == nil || ref.Phys == ddg.NoPhysReg {
			continue
		}
		if !t.livePhysRegs[ref.Type].Test(uint(ref.Phys)) {
			continue
		}
		liveDef := t.files[ref.Type].FindLiveReg(ref.Phys)
		if liveDef == nil {
			continue
		}
		// Legal only when n consumes the clashing def's final use.
		if liveDef.CrntUseCnt()+1 == liveDef.UseCnt && usesReg(n, liveDef) {
			continue
		}

		return false
	}

	return true
}

// usesReg reports whether n reads the given register.
func usesReg(n *ddg.Node, r *Register) bool {
	for _, ref := range n.Uses {
		if ref.Type == r.Type && ref.Num == r.Num {
			return true
		}
	}

	return false
}

// RegIsLive reports whether the referenced register's live bit is set.
func (t *Tracker) RegIsLive(ref ddg.RegRef) bool {
	return t.liveRegs[ref.Type].Test(uint(ref.Num))
}

// SpillCost returns the current cost under the configured function.
func (t *Tracker) SpillCost() int { return t.crntSpillCost }

// PeakSpillCost returns the running peak of per-step costs.
func (t *Tracker) PeakSpillCost() int { return t.peakSpillCost }

// SumSpillCost returns the running sum of per-step costs.
func (t *Tracker) SumSpillCost() int { return t.totSpillCost }

// StepCosts returns the per-step spill-cost vector up to the current step.
func (t *Tracker) StepCosts() []int { return t.spillCosts[:t.stepNum+1] }

// PeakPressures returns the per-type peak live counts.
func (t *Tracker) PeakPressures() []int { return t.peakPressure }

// ScheduledCount returns the number of instructions currently applied.
func (t *Tracker) ScheduledCount() int { return t.schduldInstCnt }

// ConflictCount sums conflict counts across all register files.
func (t *Tracker) ConflictCount() int {
	total := 0
	for _, f := range t.files {
		total += f.ConflictCount()
	}

	return total
}
