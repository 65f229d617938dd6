// Package listsched - the cycle-by-cycle heuristic list scheduler.
package listsched

import (
	"errors"
	"time"

	"github.com/katalvlaran/optsched/ddg"
	"github.com/katalvlaran/optsched/pressure"
	"github.com/katalvlaran/optsched/sched"
)

// Scheduler sentinels.
var (
	// ErrTimeout indicates the deadline expired before completion.
	ErrTimeout = errors.New("listsched: deadline exceeded")

	// ErrNoProgress indicates no instruction ever became schedulable —
	// a register-legality deadlock, which valid regions cannot produce.
	ErrNoProgress = errors.New("listsched: no schedulable instruction within the absolute bound")
)

// Scheduler produces one feasible schedule for one region. It drives the
// shared pressure tracker so that the schedule's cost can be read off the
// tracker the moment scheduling completes.
type Scheduler struct {
	dag     *ddg.Graph
	tracker *pressure.Tracker
	scorer  *Scorer

	// Deadline optionally bounds wall-clock time; the zero value means
	// no limit. Checked once per cycle.
	Deadline time.Time
}

// NewScheduler builds a list scheduler over the region's graph, tracker,
// and priority list.
func NewScheduler(dag *ddg.Graph, tracker *pressure.Tracker, prirts Priorities) *Scheduler {
	return &Scheduler{
		dag:     dag,
		tracker: tracker,
		scorer:  NewScorer(dag, tracker, prirts),
	}
}

// FindSchedule fills s with a feasible, resource-legal schedule.
// The tracker must be in its reset state; on return it reflects the
// produced schedule, so the caller can compute the cost without replay.
func (ls *Scheduler) FindSchedule(s *sched.Schedule) error {
	var (
		dag       = ls.dag
		model     = dag.Model()
		n         = dag.InstCount()
		issueRate = model.IssueRate
	)

	// 1. Dependence state: unscheduled predecessor counts and dynamic
	//    earliest starts, over real predecessors only (sentinels are
	//    zero-latency anchors and never scheduled).
	predsLeft := make([]int, n)
	est := make([]int, n)
	for i := 0; i < n; i++ {
		for _, e := range dag.PredEdges(i) {
			if !dag.Node(e.From).IsSentinel() {
				predsLeft[i]++
			}
		}
	}

	ready := NewReadyList(ls.scorer, n)
	var pending []int // preds satisfied, earliest start still in the future
	for i := 0; i < n; i++ {
		if predsLeft[i] == 0 {
			ready.Add(i)
		}
	}

	// 2. Per-cycle issue budget.
	slotsLeft := make([]int, model.IssueTypeCount())
	resetSlots := func() {
		for it := range slotsLeft {
			slotsLeft[it] = model.SlotsPerCycle(it)
		}
	}
	resetSlots()

	var (
		cycle, slotInCycle int
		scheduled          int
		maxSlots           = dag.AbsoluteUpperBound() * issueRate
	)

	for scheduled < n {
		// 3. Deadline check, once per cycle.
		if slotInCycle == 0 && !ls.Deadline.IsZero() && time.Now().After(ls.Deadline) {
			return ErrTimeout
		}
		if s.SlotCount() >= maxSlots {
			return ErrNoProgress
		}

		// 4. Highest-priority ready instruction that fits this slot and
		//    passes the register-legality check.
		pick := -1
		for i := 0; i < ready.Len(); i++ {
			inst := ready.At(i)
			node := dag.Node(inst)
			if slotsLeft[node.IssueType] == 0 {
				continue
			}
			if !ls.tracker.InstIsLegal(node) {
				continue
			}
			pick = i

			break
		}

		if pick >= 0 {
			inst := ready.At(pick)
			node := dag.Node(inst)
			ready.RemoveAt(pick)

			s.AppendInst(inst)
			ls.tracker.ScheduleInst(node)
			slotsLeft[node.IssueType]--
			scheduled++

			// 5. Release successors; a successor whose earliest start is
			//    still ahead waits in pending.
			for _, e := range dag.SuccEdges(inst) {
				if dag.Node(e.To).IsSentinel() {
					continue
				}
				if c := cycle + e.Latency; c > est[e.To] {
					est[e.To] = c
				}
				predsLeft[e.To]--
				if predsLeft[e.To] == 0 {
					if est[e.To] <= cycle {
						ready.Add(e.To)
					} else {
						pending = append(pending, e.To)
					}
				}
			}

			if ls.scorer.Prirts.Dynamic {
				ready.Resort()
			}
		} else {
			// 6. Nothing fits: an explicit stall fills the slot.
			s.AppendInst(sched.StallInst)
		}

		// 7. Slot bookkeeping; cycle turnover matures pending entries.
		slotInCycle++
		if slotInCycle == issueRate {
			slotInCycle = 0
			cycle++
			resetSlots()
			still := pending[:0]
			for _, inst := range pending {
				if est[inst] <= cycle {
					ready.Add(inst)
				} else {
					still = append(still, inst)
				}
			}
			pending = still
		}
	}

	return nil
}
