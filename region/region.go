// Package region - the FindOptimalSchedule pipeline.
package region

import (
	"fmt"
	"time"

	"github.com/katalvlaran/optsched/bnb"
	"github.com/katalvlaran/optsched/ddg"
	"github.com/katalvlaran/optsched/listsched"
	"github.com/katalvlaran/optsched/pressure"
	"github.com/katalvlaran/optsched/relaxed"
	"github.com/katalvlaran/optsched/sched"
	"github.com/katalvlaran/optsched/trans"
)

// Result is the outcome of one region.
type Result struct {
	// Status classifies the outcome; Schedule is the winning schedule
	// (nil only on StatusError).
	Status   Status
	Schedule *sched.Schedule

	// BestCost / BestLength describe the returned schedule;
	// HeuristicCost / HeuristicLength describe the list schedule.
	// Costs are normalized against the cost lower bound.
	BestCost, BestLength           int
	HeuristicCost, HeuristicLength int

	// Optimal reports a proven-optimal schedule.
	Optimal bool

	// NodesExamined counts enumerator tree nodes, for diagnostics.
	NodesExamined int64
}

// FindOptimalSchedule schedules one region: the heuristic list schedule
// seeds the cost upper bound, the relaxed schedulers tighten the length
// lower bound, and the enumerator searches increasing target lengths
// until optimality is proven or a deadline expires.
//
// The graph must be finalized. The machine model behind it is treated as
// read-only; every other component is constructed fresh in this call.
func FindOptimalSchedule(dag *ddg.Graph, opts Options) (Result, error) {
	if dag == nil || dag.InstCount() == 0 {
		return Result{Status: StatusError}, ErrInvalidDag
	}

	var (
		log   = opts.Logger
		model = dag.Model()
		n     = dag.InstCount()
	)
	log.Info().Int("insts", n).Int("max_latency", dag.MaxLatency()).Msg("processing DAG")

	// 1. Size gating happens before any work: out-of-range regions still
	//    get a heuristic schedule, nothing more.
	outOfRange := n < opts.MinDagSize || n > opts.MaxDagSize
	engineOn := opts.Use == UseYes || (opts.Use == UseHotOnly && opts.FunctionIsHot)

	// 2. Region-wide state: register files and the pressure tracker.
	files := pressure.BuildFiles(dag)
	tracker := pressure.NewTracker(dag, files, pressure.Config{
		CostFn:         opts.SpillCostFunc,
		TrackConflicts: opts.CheckConflicts,
		FixLiveIn:      opts.FixLiveIn,
		FixLiveOut:     opts.FixLiveOut,
	})

	// 3. Optional pre-enumeration graph transformations.
	if engineOn && !outOfRange && len(opts.Transforms) > 0 {
		added, err := trans.Apply(dag, files, opts.Transforms)
		if err != nil {
			return Result{Status: StatusError}, fmt.Errorf("%w: %v", ErrInvalidDag, err)
		}
		log.Info().Int("edges_added", added).Msg("graph transformations applied")
	}

	// 4. Deadlines. A zero region timeout means "heuristic only".
	rgnTimeout, lngthTimeout := opts.RegionTimeout, opts.LengthTimeout
	if opts.TimeoutPerInstr {
		rgnTimeout *= time.Duration(n)
		lngthTimeout *= time.Duration(n)
	}
	startTime := time.Now()

	// 5. The heuristic list schedule.
	lstSched := sched.NewSchedule(model.IssueRate, 2*n)
	lstSchdulr := listsched.NewScheduler(dag, tracker, opts.HeurPrirts)
	if err := lstSchdulr.FindSchedule(lstSched); err != nil {
		return Result{Status: StatusError}, fmt.Errorf("%w: %v", ErrUnsatisfiable, err)
	}
	hurstcLngth := lstSched.Length()

	// 6. Schedule-length lower bound: static critical path, tightened by
	//    the relaxed schedulers unless enumeration is off the table.
	schedLwrBound := dag.SchedLowerBound()
	if engineOn && !outOfRange && rgnTimeout != 0 {
		fwd := relaxed.New(dag, opts.LBAlg, relaxed.Forward).FindLength()
		bkwd := relaxed.New(dag, opts.LBAlg, relaxed.Backward).FindLength()
		if fwd > schedLwrBound {
			schedLwrBound = fwd
		}
		if bkwd > schedLwrBound {
			schedLwrBound = bkwd
		}
	}
	if opts.UseFileBounds && opts.FileLowerBound > schedLwrBound {
		schedLwrBound = opts.FileLowerBound
	}
	costLwrBound := schedLwrBound * SchedCostFactor

	// 7. The heuristic cost seeds the upper bound; the tracker still
	//    holds the list schedule's state, so no replay is needed.
	hurstcSpill := tracker.SpillCost()
	hurstcCost := hurstcLngth*SchedCostFactor + hurstcSpill*opts.SpillCostFactor - costLwrBound
	if opts.UseFileBounds && opts.FileCostUpperBound > 0 {
		hurstcCost = opts.FileCostUpperBound - costLwrBound
	}
	lstSched.SetCost(hurstcCost)
	lstSched.SetExecCost(hurstcLngth*SchedCostFactor - costLwrBound)
	lstSched.SetSpillCost(hurstcSpill)
	lstSched.SetStepCosts(tracker.StepCosts())
	lstSched.SetPeakPressures(tracker.PeakPressures())
	lstSched.SetConflictCount(tracker.ConflictCount())
	log.Info().Int("length", hurstcLngth).Int("spill_cost", hurstcSpill).Int("cost", hurstcCost).
		Msg("list schedule found")

	result := Result{
		Schedule:        lstSched,
		BestCost:        hurstcCost,
		BestLength:      hurstcLngth,
		HeuristicCost:   hurstcCost,
		HeuristicLength: hurstcLngth,
	}

	// 8. Early exits that keep the heuristic schedule.
	switch {
	case outOfRange:
		log.Info().Int("min", opts.MinDagSize).Int("max", opts.MaxDagSize).
			Msg("region skipped: size out of range")
		result.Status = StatusOutOfRange

		return result, nil
	case !engineOn:
		result.Status = StatusSuccess

		return result, nil
	case rgnTimeout == 0:
		log.Info().Msg("bypassing enumeration due to zero time limit")
		result.Status = StatusTimeout

		return result, nil
	case hurstcCost == 0:
		log.Info().Msg("the list schedule is optimal")
		result.Status = StatusSuccess
		result.Optimal = true
		if err := verify(lstSched, dag, opts); err != nil {
			result.Status = StatusError

			return result, err
		}

		return result, nil
	case opts.MaxSpillCost > 0 && hurstcCost > opts.MaxSpillCost:
		log.Info().Int("cost", hurstcCost).Msg("bypassing enumeration due to a large spill cost")
		result.Status = StatusFail

		return result, nil
	}

	// 9. Enumerate at increasing target lengths.
	inc := &bnb.Incumbent{
		Cost:      hurstcCost,
		SpillCost: hurstcSpill,
		Length:    hurstcLngth,
		Sched:     sched.NewSchedule(model.IssueRate, 2*n),
	}
	enum := bnb.NewEnumerator(dag, tracker, bnb.Config{
		Prirts:    opts.EnumPrirts,
		Prune:     opts.Prune,
		StallEnum: opts.EnumStalls,
		HashBits:  opts.HistHashBits,
		ExactSig:  opts.ExactSignature,
		Costs: bnb.CostModel{
			SpillCostFactor: opts.SpillCostFactor,
			SchedCostFactor: SchedCostFactor,
			CostLwrBound:    costLwrBound,
			MaxSpillCost:    opts.MaxSpillCost,
		},
		Superiority: trans.NewSuperiority(dag, files),
		Logger:      log,
	})

	var (
		rgnDeadline   = deadlineFrom(startTime, rgnTimeout)
		schedUprBound = upperBound(dag, schedLwrBound, inc.Cost)
		timedOut      bool
	)
	for trgtLngth := schedLwrBound; trgtLngth <= schedUprBound; trgtLngth++ {
		log.Info().Int("target_length", trgtLngth).Msg("enumerating")
		tracker.Reset()

		lngthDeadline := deadlineFrom(time.Now(), lngthTimeout)
		atRegionLimit := lngthDeadline.IsZero() || (!rgnDeadline.IsZero() && lngthDeadline.After(rgnDeadline))
		if atRegionLimit {
			lngthDeadline = rgnDeadline
		}

		outcome := enum.FindFeasibleSchedule(trgtLngth, lngthDeadline, inc)
		switch outcome {
		case bnb.OutcomeSuccess:
			log.Info().Int("target_length", trgtLngth).Msg("feasible solution found")
		case bnb.OutcomeFail:
			log.Info().Int("target_length", trgtLngth).Msg("no feasible solution at this length")
		case bnb.OutcomeTimeout:
			log.Info().Int("target_length", trgtLngth).Msg("enumeration timed out")
			timedOut = true
		}

		if inc.Cost == 0 || (outcome == bnb.OutcomeTimeout && atRegionLimit) {
			break
		}

		enum.Reset()
		if ub := upperBound(dag, schedLwrBound, inc.Cost); ub < schedUprBound {
			schedUprBound = ub
		}
	}
	result.NodesExamined = enum.NodeCount()

	// 10. Adopt the enumerator's schedule when it beat the heuristic.
	best := lstSched
	if inc.Improved && inc.Cost < hurstcCost {
		best = inc.Sched
		result.BestCost = inc.Cost
		result.BestLength = inc.Length
	}

	// 11. Post-hoc comparators may reinstate the heuristic schedule.
	if best != lstSched {
		best = compareSchedules(best, lstSched, tracker, dag, opts, &result)
	}
	result.Schedule = best
	result.Status = StatusSuccess
	result.Optimal = !timedOut
	if timedOut {
		result.Status = StatusTimeout
	}

	if result.Optimal {
		log.Info().Int("length", result.BestLength).Int("cost", result.BestCost).
			Int64("nodes", result.NodesExamined).Msg("DAG solved optimally")
	} else {
		log.Info().Int("length", result.BestLength).Int("cost", result.BestCost).
			Msg("DAG timed out")
	}

	if err := verify(best, dag, opts); err != nil {
		result.Status = StatusError

		return result, err
	}

	return result, nil
}

// upperBound computes the largest target length still able to beat cost:
// LB + (cost−1)/lengthWeight, capped by the serial absolute bound.
func upperBound(dag *ddg.Graph, schedLwrBound, cost int) int {
	maxIncrement := (cost - 1) / SchedCostFactor
	if maxIncrement < 0 {
		maxIncrement = 0
	}
	ub := schedLwrBound + maxIncrement
	if abs := dag.AbsoluteUpperBound(); abs < ub {
		ub = abs
	}

	return ub
}

// deadlineFrom maps a timeout to its absolute deadline; the zero time
// means unlimited.
func deadlineFrom(start time.Time, timeout time.Duration) time.Time {
	if timeout < 0 {
		return time.Time{}
	}

	return start.Add(timeout)
}

// compareSchedules applies the CHECK_SPILL_COST_SUM and CHECK_CONFLICTS
// comparators; either may prefer the heuristic schedule when the
// enumerator's winner looks worse under a metric the cost function does
// not capture and is no shorter.
func compareSchedules(best, lst *sched.Schedule, tracker *pressure.Tracker, dag *ddg.Graph, opts Options, result *Result) *sched.Schedule {
	log := opts.Logger

	if opts.CheckSpillCostSum {
		if best.TotalStepCost() > lst.TotalStepCost() && lst.Length() <= best.Length() {
			log.Info().Int("best_sum", best.TotalStepCost()).Int("heuristic_sum", lst.TotalStepCost()).
				Msg("taking the heuristic schedule: lower spill cost sum")
			result.BestCost = result.HeuristicCost
			result.BestLength = result.HeuristicLength

			return lst
		}
	}

	if opts.CheckConflicts {
		computeConflicts(tracker, dag, lst)
		computeConflicts(tracker, dag, best)
		if best.ConflictCount() > lst.ConflictCount() && lst.Length() <= best.Length() {
			log.Info().Int("best_conflicts", best.ConflictCount()).Int("heuristic_conflicts", lst.ConflictCount()).
				Msg("taking the heuristic schedule: fewer register conflicts")
			result.BestCost = result.HeuristicCost
			result.BestLength = result.HeuristicLength

			return lst
		}
	}

	return best
}

// computeConflicts replays s through the tracker to refresh its
// register-conflict count.
func computeConflicts(tracker *pressure.Tracker, dag *ddg.Graph, s *sched.Schedule) {
	tracker.Reset()
	for i := 0; i < s.SlotCount(); i++ {
		if inst := s.At(i); inst != sched.StallInst {
			tracker.ScheduleInst(dag.Node(inst))
		}
	}
	s.SetConflictCount(tracker.ConflictCount())
}

// verify optionally re-checks the returned schedule; a failure is an
// internal invariant violation.
func verify(s *sched.Schedule, dag *ddg.Graph, opts Options) error {
	if !opts.VerifySchedule {
		return nil
	}
	if err := sched.Verify(s, dag); err != nil {
		opts.Logger.Error().Err(err).Msg("schedule verification failed")

		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	return nil
}
