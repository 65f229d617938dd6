// Package sched - the Schedule type.
package sched

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// StallInst is the slot sentinel for an empty issue slot.
const StallInst = -1

// Schedule is a finite ordered sequence of issue slots, each holding an
// instruction index or StallInst.
type Schedule struct {
	issueRate int
	slots     []int

	cost      int // normalized total cost
	execCost  int // normalized length-only cost
	spillCost int

	stepCosts     []int
	peakPressures []int
	conflictCount int
}

// NewSchedule returns an empty schedule for a machine issuing issueRate
// instructions per cycle; capHint sizes the slot array.
func NewSchedule(issueRate, capHint int) *Schedule {
	return &Schedule{issueRate: issueRate, slots: make([]int, 0, capHint)}
}

// IssueRate returns the machine's issue rate.
func (s *Schedule) IssueRate() int { return s.issueRate }

// AppendInst fills the next issue slot with inst (or StallInst).
func (s *Schedule) AppendInst(inst int) {
	s.slots = append(s.slots, inst)
}

// RemoveLast drops the most recently filled slot.
func (s *Schedule) RemoveLast() {
	s.slots = s.slots[:len(s.slots)-1]
}

// Reset empties the schedule, keeping its capacity.
func (s *Schedule) Reset() {
	s.slots = s.slots[:0]
	s.cost, s.execCost, s.spillCost, s.conflictCount = 0, 0, 0, 0
	s.stepCosts, s.peakPressures = nil, nil
}

// SlotCount returns the number of filled slots, stalls included.
func (s *Schedule) SlotCount() int { return len(s.slots) }

// At returns the instruction in slot i, or StallInst.
func (s *Schedule) At(i int) int { return s.slots[i] }

// CycleOf returns the cycle of slot i.
func (s *Schedule) CycleOf(i int) int { return i / s.issueRate }

// Length returns the schedule length in cycles, ignoring trailing stalls.
func (s *Schedule) Length() int {
	for i := len(s.slots) - 1; i >= 0; i-- {
		if s.slots[i] != StallInst {
			return i/s.issueRate + 1
		}
	}

	return 0
}

// InstCount returns the number of real instructions placed.
func (s *Schedule) InstCount() int {
	return lo.CountBy(s.slots, func(v int) bool { return v != StallInst })
}

// Copy overwrites s with the contents and metadata of other.
func (s *Schedule) Copy(other *Schedule) {
	s.issueRate = other.issueRate
	s.slots = append(s.slots[:0], other.slots...)
	s.cost = other.cost
	s.execCost = other.execCost
	s.spillCost = other.spillCost
	s.conflictCount = other.conflictCount
	s.stepCosts = append([]int(nil), other.stepCosts...)
	s.peakPressures = append([]int(nil), other.peakPressures...)
}

// Clone returns a deep copy of s.
func (s *Schedule) Clone() *Schedule {
	c := NewSchedule(s.issueRate, len(s.slots))
	c.Copy(s)

	return c
}

// SetCost records the normalized total cost.
func (s *Schedule) SetCost(c int) { s.cost = c }

// Cost returns the normalized total cost.
func (s *Schedule) Cost() int { return s.cost }

// SetExecCost records the normalized length-only cost.
func (s *Schedule) SetExecCost(c int) { s.execCost = c }

// ExecCost returns the normalized length-only cost.
func (s *Schedule) ExecCost() int { return s.execCost }

// SetSpillCost records the spill cost under the active cost function.
func (s *Schedule) SetSpillCost(c int) { s.spillCost = c }

// SpillCost returns the recorded spill cost.
func (s *Schedule) SpillCost() int { return s.spillCost }

// SetStepCosts records a copy of the per-step spill-cost vector.
func (s *Schedule) SetStepCosts(costs []int) {
	s.stepCosts = append(s.stepCosts[:0], costs...)
}

// StepCosts returns the per-step spill-cost vector.
func (s *Schedule) StepCosts() []int { return s.stepCosts }

// TotalStepCost returns the sum of the per-step spill costs.
func (s *Schedule) TotalStepCost() int {
	return lo.Sum(s.stepCosts)
}

// SetPeakPressures records a copy of the per-type peak pressures.
func (s *Schedule) SetPeakPressures(p []int) {
	s.peakPressures = append(s.peakPressures[:0], p...)
}

// PeakPressures returns the per-type peak pressures.
func (s *Schedule) PeakPressures() []int { return s.peakPressures }

// SetConflictCount records the register-conflict count.
func (s *Schedule) SetConflictCount(c int) { s.conflictCount = c }

// ConflictCount returns the recorded register-conflict count.
func (s *Schedule) ConflictCount() int { return s.conflictCount }

// String renders the schedule as one line per cycle.
func (s *Schedule) String() string {
	var b strings.Builder
	for i, inst := range s.slots {
		if i%s.issueRate == 0 {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "cycle %3d:", i/s.issueRate)
		}
		if inst == StallInst {
			b.WriteString(" STALL")
		} else {
			fmt.Fprintf(&b, " %d", inst)
		}
	}

	return b.String()
}
