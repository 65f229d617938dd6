// Package pressure tracks live registers and spill costs for partial
// schedules. It is the most heavily exercised component of the engine:
// the enumerator drives Tracker.ScheduleInst / Tracker.UnscheduleInst on
// every search step, so the tracker reuses all of its bit-vectors and
// never allocates after construction.
//
// The model: a Register is live from the step its first def is scheduled
// until its current-use counter reaches its total use count. Per register
// type the tracker maintains a live bit-vector over virtual registers and
// one over physical registers; per step it records the spill cost — the
// sum over types of max(0, live − physLimit) — and aggregates the running
// sum and peak. Four spill-cost functions interpret those aggregates
// (SCFPeak, SCFPeakPerType, SCFSum, SCFPeakPlusAvg).
//
// UnscheduleInst is the exact inverse of ScheduleInst except for the
// running peak and the per-type pressure peaks, which are not
// recomputable from local state alone and are restored from the caller's
// snapshot (the enumerator keeps both per tree node).
//
// Round-trip invariant: any sequence of ScheduleInst calls followed by
// the exact inverse sequence of UnscheduleInst calls returns every
// bit-vector, counter, and aggregate to its initial state.
package pressure
