// Package region - options, statuses, sentinel errors, and the
// config-store bridge.
package region

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/optsched/bnb"
	"github.com/katalvlaran/optsched/config"
	"github.com/katalvlaran/optsched/ddg"
	"github.com/katalvlaran/optsched/listsched"
	"github.com/katalvlaran/optsched/pressure"
	"github.com/katalvlaran/optsched/relaxed"
	"github.com/katalvlaran/optsched/trans"
)

// Sentinel errors for region failures.
var (
	// ErrInvalidDag indicates a nil or empty dependence graph, or a graph
	// transformation pass that failed on it.
	ErrInvalidDag = errors.New("region: invalid DAG")

	// ErrUnsatisfiable indicates no schedule of any length is feasible —
	// a genuine bug signal for valid DAGs.
	ErrUnsatisfiable = errors.New("region: no feasible schedule exists")

	// ErrInternal indicates the verifier rejected an engine-produced
	// schedule.
	ErrInternal = errors.New("region: verifier rejected the schedule")
)

// Status is the outcome of one region.
type Status int

const (
	// StatusSuccess: the region was scheduled; Result.Optimal reports
	// whether the returned schedule is proven optimal (it is false when
	// the engine is disabled and only the heuristic ran).
	StatusSuccess Status = iota

	// StatusTimeout: a deadline expired; the best schedule so far is
	// returned.
	StatusTimeout

	// StatusFail: enumeration was bypassed (e.g. spill-cost cap); the
	// heuristic schedule is returned.
	StatusFail

	// StatusOutOfRange: the region's size is outside [MinDagSize,
	// MaxDagSize]; the heuristic schedule is returned.
	StatusOutOfRange

	// StatusError: the region could not be scheduled at all.
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusTimeout:
		return "Timeout"
	case StatusFail:
		return "Fail"
	case StatusOutOfRange:
		return "OutOfRange"
	default:
		return "Error"
	}
}

// Use gates the engine globally or per function.
type Use int

const (
	// UseYes runs the full engine on every region.
	UseYes Use = iota

	// UseNo runs only the heuristic scheduler.
	UseNo

	// UseHotOnly runs the full engine only when Options.FunctionIsHot.
	UseHotOnly
)

// Unlimited disables a timeout.
const Unlimited time.Duration = -1

// SchedCostFactor is the fixed length weight of the cost model.
const SchedCostFactor = 100

// Options carries every per-invocation switch of the engine. All former
// process-wide flags of the original implementation live here.
type Options struct {
	// Use gates the engine; FunctionIsHot feeds UseHotOnly.
	Use           Use
	FunctionIsHot bool

	// HeurPrirts and EnumPrirts are the two priority lists.
	HeurPrirts, EnumPrirts listsched.Priorities

	// LBAlg selects the relaxed lower-bound algorithm.
	LBAlg relaxed.Alg

	// SpillCostFunc selects the tracker's cost function.
	SpillCostFunc pressure.SpillCostFunc

	// Prune toggles the enumerator's pruning techniques.
	Prune bnb.Pruning

	// EnumStalls includes stall slots in the search.
	EnumStalls bool

	// HistHashBits is the history-table signature width; ExactSignature
	// enables the collision-detecting debug mode.
	HistHashBits   int
	ExactSignature bool

	// SpillCostFactor weighs spill cost against the fixed length weight.
	SpillCostFactor int

	// RegionTimeout / LengthTimeout bound the enumeration; Unlimited
	// disables one, zero RegionTimeout bypasses enumeration entirely.
	// TimeoutPerInstr multiplies both by the instruction count.
	RegionTimeout, LengthTimeout time.Duration
	TimeoutPerInstr              bool

	// MinDagSize / MaxDagSize skip regions outside this size range.
	MinDagSize, MaxDagSize int

	// CheckSpillCostSum / CheckConflicts enable the post-hoc comparators.
	CheckSpillCostSum, CheckConflicts bool

	// FixLiveIn / FixLiveOut pin boundary instruction blocks.
	FixLiveIn, FixLiveOut bool

	// MaxSpillCost bypasses enumeration when the normalized heuristic
	// cost exceeds it; zero disables the cap.
	MaxSpillCost int

	// VerifySchedule re-checks the returned schedule.
	VerifySchedule bool

	// UseFileBounds applies the pre-recorded bounds below.
	UseFileBounds                      bool
	FileLowerBound, FileCostUpperBound int

	// Transforms are applied before the heuristic runs.
	Transforms []trans.Type

	// Logger receives phase milestones; defaults to a no-op logger.
	Logger zerolog.Logger
}

// DefaultOptions returns the engine's production defaults: CP priorities,
// LC lower bounds, PEAK spill cost with factor 10, all prunes on, stalls
// enumerated, 16-bit history signatures, no deadlines, sizes up to 10000.
func DefaultOptions() Options {
	cp := listsched.Priorities{Keys: []listsched.PriorityKey{listsched.KeyCP}}

	return Options{
		Use:               UseYes,
		HeurPrirts:        cp,
		EnumPrirts:        cp,
		LBAlg:             relaxed.AlgLC,
		SpillCostFunc:     pressure.SCFPeak,
		Prune:             bnb.Pruning{Relaxed: true, NodeSup: true, HistDom: true, SpillCost: true},
		EnumStalls:        true,
		HistHashBits:      16,
		SpillCostFactor:   10,
		RegionTimeout:     Unlimited,
		LengthTimeout:     Unlimited,
		MinDagSize:        0,
		MaxDagSize:        10000,
		CheckSpillCostSum: true,
		CheckConflicts:    true,
		Logger:            zerolog.Nop(),
	}
}

// OptionsFromConfig reads the recognized keys out of a config store on
// top of DefaultOptions. Unrecognized values (heuristic tokens, enum
// spellings, transform names) are reported as warnings, each already
// formatted for logging.
func OptionsFromConfig(store *config.Store) (Options, []string) {
	opts := DefaultOptions()
	var warns []string

	switch v := store.GetString(config.KeyUseOptSched, "YES"); v {
	case "YES":
		opts.Use = UseYes
	case "NO":
		opts.Use = UseNo
	case "HOT_ONLY":
		opts.Use = UseHotOnly
	default:
		warns = append(warns, fmt.Sprintf("unknown value for %s: %q, assuming YES", config.KeyUseOptSched, v))
	}

	var unknown []string
	opts.HeurPrirts, unknown = listsched.ParsePriorities(store.GetString(config.KeyHeuristic, "CP"))
	for _, tok := range unknown {
		warns = append(warns, fmt.Sprintf("unrecognized heuristic %q, defaulted to CP", tok))
	}
	opts.EnumPrirts, unknown = listsched.ParsePriorities(
		store.GetString(config.KeyEnumHeuristic, store.GetString(config.KeyHeuristic, "CP")))
	for _, tok := range unknown {
		warns = append(warns, fmt.Sprintf("unrecognized enum heuristic %q, defaulted to CP", tok))
	}

	var ok bool
	if opts.LBAlg, ok = relaxed.ParseAlg(store.GetString(config.KeyLBAlg, "LC")); !ok {
		warns = append(warns, "unrecognized lower bound technique, defaulted to LC")
	}
	if opts.SpillCostFunc, ok = pressure.ParseSpillCostFunc(store.GetString(config.KeySpillCostFunction, "PEAK")); !ok {
		warns = append(warns, "unrecognized spill cost function, defaulted to PEAK")
	}

	opts.Prune.Relaxed = store.GetBool(config.KeyApplyRelaxedPruning, true)
	opts.Prune.NodeSup = store.GetBool(config.KeyApplyNodeSuperiority, true)
	opts.Prune.HistDom = store.GetBool(config.KeyApplyHistoryDomination, true)
	opts.Prune.SpillCost = store.GetBool(config.KeyApplySpillCostPruning, true)

	opts.EnumStalls = store.GetBool(config.KeyEnumerateStalls, true)
	opts.HistHashBits = store.GetInt(config.KeyHistTableHashBits, 16)
	opts.ExactSignature = store.GetBool(config.KeyExactSignature, false)
	opts.SpillCostFactor = store.GetInt(config.KeySpillCostFactor, 10)

	opts.RegionTimeout = timeoutFromConfig(store, config.KeyRegionTimeout)
	opts.LengthTimeout = timeoutFromConfig(store, config.KeyLengthTimeout)
	opts.TimeoutPerInstr = store.GetString(config.KeyTimeoutPer, "") == "INSTR"

	opts.MinDagSize = store.GetInt(config.KeyMinDagSize, 0)
	opts.MaxDagSize = store.GetInt(config.KeyMaxDagSize, 10000)
	opts.CheckSpillCostSum = store.GetBool(config.KeyCheckSpillCostSum, true)
	opts.CheckConflicts = store.GetBool(config.KeyCheckConflicts, true)
	opts.FixLiveIn = store.GetBool(config.KeyFixLiveIn, false)
	opts.FixLiveOut = store.GetBool(config.KeyFixLiveOut, false)
	opts.MaxSpillCost = store.GetInt(config.KeyMaxSpillCost, 0)
	opts.VerifySchedule = store.GetBool(config.KeyVerifySchedule, false)
	opts.UseFileBounds = store.GetBool(config.KeyUseFileBounds, false)

	opts.Transforms, unknown = trans.ParseTransforms(store.GetString(config.KeyGraphTransformations, ""))
	for _, tok := range unknown {
		warns = append(warns, fmt.Sprintf("unrecognized graph transformation %q, skipped", tok))
	}

	return opts, warns
}

// timeoutFromConfig maps an absent key to Unlimited and a millisecond
// value to its duration.
func timeoutFromConfig(store *config.Store, key string) time.Duration {
	if !store.Has(key) {
		return Unlimited
	}

	return time.Duration(store.GetInt(key, 0)) * time.Millisecond
}

// BuildOptionsFromConfig extracts the DAG-construction switches
// (latency precision, size degradation, order-edge reclassification)
// for feeding a ddg.Builder.
func BuildOptionsFromConfig(store *config.Store) ([]ddg.BuildOption, []string) {
	var (
		buildOpts []ddg.BuildOption
		warns     []string
	)
	precision, ok := ddg.ParseLatencyPrecision(store.GetString(config.KeyLatencyPrecision, "PRECISE"))
	if !ok {
		warns = append(warns, "unrecognized latency precision, defaulted to PRECISE")
	}
	buildOpts = append(buildOpts,
		ddg.WithLatencyPrecision(precision),
		ddg.WithMaxPreciseSize(store.GetInt(config.KeyMaxDagSizeForPreciseLatency, 10000)))
	if store.GetBool(config.KeyTreatOrderDepsAsDataDeps, false) {
		buildOpts = append(buildOpts, ddg.WithOrderAsData())
	}

	return buildOpts, warns
}
