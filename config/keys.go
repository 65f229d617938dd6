// Package config - the recognized configuration keys.
package config

// Keys recognized by the scheduling engine. The store accepts any key;
// these are the ones the engine reads.
const (
	// KeyUseOptSched enables the engine: YES, NO, or HOT_ONLY.
	KeyUseOptSched = "USE_OPT_SCHED"

	// KeyHeuristic is the list scheduler's underscore-joined priority list.
	KeyHeuristic = "HEURISTIC"

	// KeyEnumHeuristic is the enumerator's priority list.
	KeyEnumHeuristic = "ENUM_HEURISTIC"

	// KeyLBAlg selects the relaxed lower-bound algorithm: RJ or LC.
	KeyLBAlg = "LB_ALG"

	// KeySpillCostFunction selects PEAK, PEAK_PER_TYPE, SUM, or PEAK_PLUS_AVG.
	KeySpillCostFunction = "SPILL_COST_FUNCTION"

	// KeyLatencyPrecision selects PRECISE, ROUGH, or UNITY.
	KeyLatencyPrecision = "LATENCY_PRECISION"

	// KeyMaxDagSizeForPreciseLatency degrades PRECISE to ROUGH above this size.
	KeyMaxDagSizeForPreciseLatency = "MAX_DAG_SIZE_FOR_PRECISE_LATENCY"

	// KeyTreatOrderDepsAsDataDeps reclassifies order edges as data edges.
	KeyTreatOrderDepsAsDataDeps = "TREAT_ORDER_DEPS_AS_DATA_DEPS"

	// Pruning toggles.
	KeyApplyRelaxedPruning    = "APPLY_RELAXED_PRUNING"
	KeyApplyNodeSuperiority   = "APPLY_NODE_SUPERIORITY"
	KeyApplyHistoryDomination = "APPLY_HISTORY_DOMINATION"
	KeyApplySpillCostPruning  = "APPLY_SPILL_COST_PRUNING"

	// KeyEnumerateStalls includes stall slots in the search.
	KeyEnumerateStalls = "ENUMERATE_STALLS"

	// KeyHistTableHashBits is the history-table signature width.
	KeyHistTableHashBits = "HIST_TABLE_HASH_BITS"

	// KeyExactSignature enables the collision-detecting signature mode.
	KeyExactSignature = "EXACT_SIGNATURE"

	// KeySpillCostFactor weighs spill cost against the fixed length weight.
	KeySpillCostFactor = "SPILL_COST_FACTOR"

	// KeyRegionTimeout / KeyLengthTimeout are in milliseconds.
	KeyRegionTimeout = "REGION_TIMEOUT"
	KeyLengthTimeout = "LENGTH_TIMEOUT"

	// KeyTimeoutPer set to INSTR multiplies timeouts by instruction count.
	KeyTimeoutPer = "TIMEOUT_PER"

	// KeyMinDagSize / KeyMaxDagSize skip regions outside this range.
	KeyMinDagSize = "MIN_DAG_SIZE"
	KeyMaxDagSize = "MAX_DAG_SIZE"

	// Post-hoc comparator toggles.
	KeyCheckSpillCostSum = "CHECK_SPILL_COST_SUM"
	KeyCheckConflicts    = "CHECK_CONFLICTS"

	// Live-in/live-out fixing.
	KeyFixLiveIn  = "FIX_LIVEIN"
	KeyFixLiveOut = "FIX_LIVEOUT"

	// KeyMaxSpillCost bypasses enumeration above this normalized heuristic
	// cost.
	KeyMaxSpillCost = "MAX_SPILL_COST"

	// KeyVerifySchedule runs the verifier on the returned schedule.
	KeyVerifySchedule = "VERIFY_SCHEDULE"

	// KeyUseFileBounds takes bounds from a pre-recorded file.
	KeyUseFileBounds = "USE_FILE_BOUNDS"

	// KeyGraphTransformations lists pre-enumeration transforms
	// (EQDECT, RPONSP), underscore joined.
	KeyGraphTransformations = "GRAPH_TRANSFORMATIONS"
)
