// Package bnb - the branch-and-bound enumerator.
package bnb

import (
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rs/zerolog"

	"github.com/katalvlaran/optsched/ddg"
	"github.com/katalvlaran/optsched/listsched"
	"github.com/katalvlaran/optsched/machine"
	"github.com/katalvlaran/optsched/pressure"
	"github.com/katalvlaran/optsched/relaxed"
	"github.com/katalvlaran/optsched/sched"
	"github.com/katalvlaran/optsched/trans"
)

// deadlineMask spaces wall-clock checks: one test every 1024 tree events.
const deadlineMask = 1023

// Outcome is the result of one target-length search.
type Outcome int

const (
	// OutcomeSuccess: at least one schedule beat the incumbent.
	OutcomeSuccess Outcome = iota

	// OutcomeFail: the search space held no improvement at this length.
	OutcomeFail

	// OutcomeTimeout: the deadline expired; the incumbent stands.
	OutcomeTimeout
)

// Pruning toggles the enumerator's pruning techniques.
type Pruning struct {
	Relaxed   bool
	NodeSup   bool
	HistDom   bool
	SpillCost bool
}

// CostModel carries the region's cost weights into the search.
type CostModel struct {
	// SpillCostFactor weighs spill cost; SchedCostFactor weighs length
	// (fixed at 100 by the region).
	SpillCostFactor, SchedCostFactor int

	// CostLwrBound normalizes every cost (scheduleLowerBound × length weight).
	CostLwrBound int

	// MaxSpillCost is the administrative peak ceiling for spill-cost
	// pruning; zero disables the ceiling.
	MaxSpillCost int
}

// Incumbent is the best complete schedule seen so far, shared across
// target lengths by the region.
type Incumbent struct {
	// Cost is the normalized cost any candidate must beat.
	Cost int

	// SpillCost and Length describe the incumbent schedule.
	SpillCost, Length int

	// Sched holds the schedule; the enumerator copies into it.
	Sched *sched.Schedule

	// Improved reports whether enumeration ever beat the seed.
	Improved bool
}

// Enumerator explores the tree of partial schedules for one region. It
// owns its frame stack and borrows the graph and tracker.
type Enumerator struct {
	dag     *ddg.Graph
	model   *machine.Model
	tracker *pressure.Tracker
	scorer  *listsched.Scorer
	prune   Pruning
	costs   CostModel
	logger  zerolog.Logger

	stallEnum bool
	hist      *History
	sup       *trans.Superiority
	rj        *relaxed.Scheduler

	// Search state, reused across target lengths.
	predsLeft []int
	est       []int
	domBuf    []bool
	usedBuf   []int // per-issue-type slots consumed in the current cycle
	scheduled *bitset.BitSet
	crnt      *sched.Schedule
	frames    []frame
	sig       uint64

	exactSig  bool
	nodeCount int64
	steps     int
}

// estUndo records one successor's earliest start before an apply.
type estUndo struct {
	inst, old int
}

// noCandidate marks a frame with nothing applied.
const noCandidate = -2

// frame is the per-depth search state: the ordered candidate list for
// one issue slot and the undo data of the currently applied candidate.
type frame struct {
	cands []int
	next  int

	applied   int // instruction, sched.StallInst, or noCandidate
	peakSnap  int
	pressSnap []int // per-type pressure peaks before the apply
	sigBefore uint64
	undo      []estUndo
}

// Config assembles an Enumerator.
type Config struct {
	Prirts      listsched.Priorities
	Prune       Pruning
	StallEnum   bool
	HashBits    int
	ExactSig    bool
	Costs       CostModel
	Superiority *trans.Superiority
	Logger      zerolog.Logger
}

// NewEnumerator builds the enumerator over the region's graph and tracker.
func NewEnumerator(dag *ddg.Graph, tracker *pressure.Tracker, cfg Config) *Enumerator {
	n := dag.InstCount()
	e := &Enumerator{
		dag:       dag,
		model:     dag.Model(),
		tracker:   tracker,
		scorer:    listsched.NewScorer(dag, tracker, cfg.Prirts),
		prune:     cfg.Prune,
		costs:     cfg.Costs,
		logger:    cfg.Logger,
		stallEnum: cfg.StallEnum,
		sup:       cfg.Superiority,
		exactSig:  cfg.ExactSig,
		predsLeft: make([]int, n),
		est:       make([]int, n),
		domBuf:    make([]bool, n),
		usedBuf:   make([]int, dag.Model().IssueTypeCount()),
		scheduled: bitset.New(uint(n)),
		crnt:      sched.NewSchedule(dag.Model().IssueRate, n*2),
	}
	if cfg.Prune.HistDom {
		e.hist = NewHistory(cfg.HashBits, cfg.ExactSig)
	}
	if cfg.Prune.Relaxed {
		e.rj = relaxed.New(dag, relaxed.AlgRJ, relaxed.Forward)
	}

	return e
}

// NodeCount returns the number of tree nodes examined so far.
func (e *Enumerator) NodeCount() int64 { return e.nodeCount }

// Collisions returns exact-mode signature collision detections.
func (e *Enumerator) Collisions() int64 {
	if e.hist == nil {
		return 0
	}

	return e.hist.Collisions()
}

// Reset clears per-length state between outer-loop iterations. The
// tracker is reset by the region.
func (e *Enumerator) Reset() {
	if e.hist != nil {
		e.hist.Reset()
	}
}

// FindFeasibleSchedule searches for schedules of at most trgtLen cycles
// that beat the incumbent, updating it in place. The tracker must be in
// its reset state on entry and is left reset on return.
func (e *Enumerator) FindFeasibleSchedule(trgtLen int, deadline time.Time, inc *Incumbent) Outcome {
	var (
		n          = e.dag.InstCount()
		issueRate  = e.model.IssueRate
		totalSlots = trgtLen * issueRate
		improved   = false
	)

	// 1. Reset the per-length search state.
	e.sig = 0
	e.scheduled.ClearAll()
	e.crnt.Reset()
	for i := 0; i < n; i++ {
		e.est[i] = 0
		e.predsLeft[i] = 0
		for _, edge := range e.dag.PredEdges(i) {
			if !e.dag.Node(edge.From).IsSentinel() {
				e.predsLeft[i]++
			}
		}
	}
	if cap(e.frames) < totalSlots {
		e.frames = make([]frame, totalSlots)
	}
	e.frames = e.frames[:totalSlots]

	// 2. Depth-first search with one explicit frame per issue slot.
	d := 0
	e.fillFrame(&e.frames[0], 0, trgtLen)
	for d >= 0 {
		f := &e.frames[d]

		// 2a. Undo whatever this frame last applied.
		if f.applied != noCandidate {
			e.undoApply(f)
		}

		// 2b. Sparse deadline check.
		e.steps++
		if e.steps&deadlineMask == 0 && !deadline.IsZero() && time.Now().After(deadline) {
			e.unwind(d)

			return OutcomeTimeout
		}

		// 2c. Candidates exhausted: backtrack.
		if f.next >= len(f.cands) {
			d--

			continue
		}

		cand := f.cands[f.next]
		f.next++
		e.applyCandidate(f, cand, d)

		// 2d. Pruning stack, cheapest first; a pruned candidate stays
		//     applied and is undone at the top of the next iteration.
		if cand != sched.StallInst && e.pruned(d, trgtLen, inc) {
			continue
		}

		// 2e. Complete schedule: challenge the incumbent.
		if int(e.scheduled.Count()) == n {
			if e.offerSolution(trgtLen, inc) {
				improved = true
				if inc.Cost == 0 {
					e.unwind(d)

					return OutcomeSuccess
				}
			}

			continue
		}

		// 2f. Descend when another slot exists.
		if d+1 < totalSlots {
			d++
			e.fillFrame(&e.frames[d], d, trgtLen)
		}
	}

	if improved {
		return OutcomeSuccess
	}

	return OutcomeFail
}

// fillFrame computes the ordered candidate list for slot d.
func (e *Enumerator) fillFrame(f *frame, d, trgtLen int) {
	var (
		n         = e.dag.InstCount()
		issueRate = e.model.IssueRate
		cycle     = d / issueRate
		remaining = n - int(e.scheduled.Count())
		slack     = trgtLen*issueRate - d
	)
	f.cands = f.cands[:0]
	f.next = 0
	f.applied = noCandidate

	// 1. Not enough slots left for the unscheduled instructions: dead end.
	if slack < remaining {
		return
	}

	// 2. Per-issue-type budget already consumed in this cycle, tallied
	//    into the reused slab (no allocation on the hot path).
	used := e.usedBuf
	for i := range used {
		used[i] = 0
	}
	for s := cycle * issueRate; s < d; s++ {
		if inst := e.crnt.At(s); inst != sched.StallInst {
			used[e.dag.Node(inst).IssueType]++
		}
	}

	// 3. Ready, resource-legal, register-legal, deadline-feasible
	//    instructions.
	for i := 0; i < n; i++ {
		if e.scheduled.Test(uint(i)) || e.predsLeft[i] != 0 || e.est[i] > cycle {
			continue
		}
		node := e.dag.Node(i)
		if used[node.IssueType] >= e.model.SlotsPerCycle(node.IssueType) {
			continue
		}
		// The instruction's latency tail must fit under the target.
		if cycle+1+node.BkwdCriticalPath() > trgtLen {
			continue
		}
		if !e.tracker.InstIsLegal(node) {
			continue
		}
		f.cands = append(f.cands, i)
	}

	// 4. Node-superiority pruning: drop a candidate dominated by another
	//    ready candidate — the superior branch subsumes it. A mutually
	//    superior pair keeps only its lower node index.
	if e.prune.NodeSup && len(f.cands) > 1 {
		for i, b := range f.cands {
			e.domBuf[i] = false
			for _, a := range f.cands {
				if a == b || !e.sup.Is(a, b) {
					continue
				}
				if !e.sup.Is(b, a) || a < b {
					e.domBuf[i] = true

					break
				}
			}
		}
		kept := f.cands[:0]
		for i, b := range f.cands {
			if !e.domBuf[i] {
				kept = append(kept, b)
			}
		}
		f.cands = kept
	}

	// 5. Priority order, then the stall candidate: always after every
	//    real candidate, and only when a stall can still lead to a
	//    complete schedule.
	e.sortCandidates(f.cands)
	if slack > remaining && (e.stallEnum || len(f.cands) == 0) {
		f.cands = append(f.cands, sched.StallInst)
	}
}

// sortCandidates orders by the enumerator's priority list (insertion
// sort over the frame's ready candidates).
func (e *Enumerator) sortCandidates(cands []int) {
	for i := 1; i < len(cands); i++ {
		for j := i; j > 0 && e.scorer.Better(cands[j], cands[j-1]); j-- {
			cands[j], cands[j-1] = cands[j-1], cands[j]
		}
	}
}

// applyCandidate tentatively schedules cand into slot d.
func (e *Enumerator) applyCandidate(f *frame, cand, d int) {
	f.applied = cand
	f.sigBefore = e.sig
	f.undo = f.undo[:0]
	e.crnt.AppendInst(cand)
	if cand == sched.StallInst {
		return
	}

	node := e.dag.Node(cand)
	cycle := d / e.model.IssueRate
	f.peakSnap = e.tracker.PeakSpillCost()
	f.pressSnap = append(f.pressSnap[:0], e.tracker.PeakPressures()...)
	e.tracker.ScheduleInst(node)
	e.scheduled.Set(uint(cand))
	e.sig += sigHash(cand)
	e.nodeCount++

	for _, edge := range e.dag.SuccEdges(cand) {
		if e.dag.Node(edge.To).IsSentinel() {
			continue
		}
		e.predsLeft[edge.To]--
		if c := cycle + edge.Latency; c > e.est[edge.To] {
			f.undo = append(f.undo, estUndo{inst: edge.To, old: e.est[edge.To]})
			e.est[edge.To] = c
		}
	}
}

// undoApply reverses applyCandidate.
func (e *Enumerator) undoApply(f *frame) {
	cand := f.applied
	f.applied = noCandidate
	e.crnt.RemoveLast()
	if cand == sched.StallInst {
		return
	}

	node := e.dag.Node(cand)
	for i := len(f.undo) - 1; i >= 0; i-- {
		e.est[f.undo[i].inst] = f.undo[i].old
	}
	for _, edge := range e.dag.SuccEdges(cand) {
		if !e.dag.Node(edge.To).IsSentinel() {
			e.predsLeft[edge.To]++
		}
	}
	e.scheduled.Clear(uint(cand))
	e.sig = f.sigBefore
	e.tracker.UnscheduleInst(node, f.peakSnap, f.pressSnap)
}

// unwind undoes every applied frame from depth d down, leaving the
// tracker reset for the next target length.
func (e *Enumerator) unwind(d int) {
	for ; d >= 0; d-- {
		if e.frames[d].applied != noCandidate {
			e.undoApply(&e.frames[d])
		}
	}
}

// pruned runs the pruning stack against the just-applied candidate at
// depth d. True means the branch is dead.
func (e *Enumerator) pruned(d, trgtLen int, inc *Incumbent) bool {
	// 1. Cost feasibility: the partial cost lower bound must undercut
	//    the incumbent.
	costLB := e.tracker.SpillCost()*e.costs.SpillCostFactor +
		trgtLen*e.costs.SchedCostFactor - e.costs.CostLwrBound
	if costLB >= inc.Cost {
		return true
	}

	// 2. Spill-cost ceiling.
	if e.prune.SpillCost && e.costs.MaxSpillCost > 0 &&
		e.tracker.PeakSpillCost() > e.costs.MaxSpillCost {
		return true
	}

	// 3. History dominance at (signature, depth).
	if e.prune.HistDom {
		dominated, collision := e.hist.Visit(e.sig, e.exactDigest(), d+1, costLB)
		if collision {
			e.logger.Warn().Uint64("signature", e.sig).Int("depth", d+1).
				Msg("history signature collision detected")
		}
		if dominated {
			return true
		}
	}

	// 4. Relaxed re-bound from the partial state.
	if e.prune.Relaxed {
		start := (d + 1) / e.model.IssueRate
		if e.rj.BoundPartial(e.est, e.scheduled, start) > trgtLen {
			return true
		}
	}

	return false
}

// exactDigest hashes the scheduled set's content for collision detection.
// Zero when exact mode is off.
func (e *Enumerator) exactDigest() uint64 {
	if !e.exactSig {
		return 0
	}
	set := make([]uint, 0, e.scheduled.Count())
	for i, ok := e.scheduled.NextSet(0); ok; i, ok = e.scheduled.NextSet(i + 1) {
		set = append(set, i)
	}
	digest, err := hashstructure.Hash(set, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}

	return digest
}

// offerSolution challenges the incumbent with the completed schedule.
func (e *Enumerator) offerSolution(trgtLen int, inc *Incumbent) bool {
	length := e.crnt.Length()
	spill := e.tracker.SpillCost()
	cost := length*e.costs.SchedCostFactor + spill*e.costs.SpillCostFactor - e.costs.CostLwrBound
	if cost >= inc.Cost {
		return false
	}

	e.logger.Info().Int("length", length).Int("spill_cost", spill).Int("cost", cost).
		Msg("found a feasible schedule")

	inc.Cost = cost
	inc.SpillCost = spill
	inc.Length = length
	inc.Improved = true
	inc.Sched.Copy(e.crnt)
	inc.Sched.SetCost(cost)
	inc.Sched.SetSpillCost(spill)
	inc.Sched.SetExecCost(length*e.costs.SchedCostFactor - e.costs.CostLwrBound)
	inc.Sched.SetStepCosts(e.tracker.StepCosts())
	inc.Sched.SetPeakPressures(e.tracker.PeakPressures())

	return true
}
