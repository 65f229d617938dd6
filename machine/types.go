// Package machine - model types, dependence kinds, and sentinel errors.
//
// This file declares DepKind, IssueType, InstType, RegType, Model, and the
// validation sentinels shared by Decode and NewModel.
package machine

import "errors"

// Sentinel errors for model construction and validation.
var (
	// ErrBadIssueRate indicates a non-positive issue rate.
	ErrBadIssueRate = errors.New("machine: issue rate must be positive")

	// ErrDuplicateName indicates two types of one kind share a name.
	ErrDuplicateName = errors.New("machine: duplicate type name")

	// ErrUnknownType indicates a reference to an undeclared type name.
	ErrUnknownType = errors.New("machine: unknown type name")

	// ErrBadSlotCount indicates an issue type with a non-positive slot count.
	ErrBadSlotCount = errors.New("machine: issue type slot count must be positive")

	// ErrBadLatency indicates a negative latency in the model.
	ErrBadLatency = errors.New("machine: negative latency")
)

// DepKind classifies a dependence edge between two instructions.
type DepKind int8

const (
	// DepData is a true (read-after-write) dependence.
	DepData DepKind = iota

	// DepAnti is a write-after-read dependence.
	DepAnti

	// DepOutput is a write-after-write dependence.
	DepOutput

	// DepOther covers ordering edges with no register flow.
	DepOther

	// depKindCount bounds the latency-table dimension.
	depKindCount
)

// String returns the lower-case kind name used in DAG files and logs.
func (k DepKind) String() string {
	switch k {
	case DepData:
		return "data"
	case DepAnti:
		return "anti"
	case DepOutput:
		return "output"
	default:
		return "other"
	}
}

// ParseDepKind maps a textual kind to its DepKind; unknown text maps to
// DepOther, mirroring how order edges degrade when unclassified.
func ParseDepKind(s string) DepKind {
	switch s {
	case "data":
		return DepData
	case "anti":
		return DepAnti
	case "output":
		return DepOutput
	default:
		return DepOther
	}
}

// IssueType is one partition of the per-cycle issue capacity.
type IssueType struct {
	// Name uniquely identifies the issue type within its Model.
	Name string

	// SlotsPerCycle is the number of instructions of this issue type
	// that may be issued in one cycle.
	SlotsPerCycle int
}

// InstType describes one instruction type of the target.
type InstType struct {
	// Name uniquely identifies the instruction type within its Model.
	Name string

	// IssueType names the issue type consumed by instances of this type.
	IssueType string

	// Latency is the default producer latency in cycles.
	Latency int

	// Pipelined reports whether back-to-back issue of this type is legal.
	Pipelined bool
}

// RegType describes one register file of the target.
type RegType struct {
	// Name uniquely identifies the register type within its Model.
	Name string

	// PhysRegCount is the number of physical registers of this type.
	PhysRegCount int
}

// LatencyEntry overrides the default latency for one
// (producing-instruction-type, dependence-kind) pair.
type LatencyEntry struct {
	InstType string
	DepKind  string
	Cycles   int
}

// Model is the read-only machine description. Construct via NewModel,
// Decode, or Load; never mutate a Model after construction.
type Model struct {
	// Name labels the model in logs.
	Name string

	// IssueRate is the total number of issue slots per cycle.
	IssueRate int

	// IssueTypes, InstTypes, RegTypes are indexed densely; scheduling
	// components refer to types by index, never by name.
	IssueTypes []IssueType
	InstTypes  []InstType
	RegTypes   []RegType

	// issueTypeOf maps an instruction-type index to its issue-type index.
	issueTypeOf []int

	// latencies[instType*depKindCount + kind] holds the per-pair latency,
	// or -1 where the default applies.
	latencies []int

	// Name→index maps resolved once at construction.
	instIdx  map[string]int
	issueIdx map[string]int
	regIdx   map[string]int
}
