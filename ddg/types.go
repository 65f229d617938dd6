// Package ddg - node, edge, and option types plus sentinel errors.
package ddg

import (
	"errors"

	"github.com/bits-and-blooms/bitset"

	"github.com/katalvlaran/optsched/machine"
)

// Sentinel errors for graph construction.
var (
	// ErrCycle indicates the dependence graph is not acyclic.
	ErrCycle = errors.New("ddg: cycle detected")

	// ErrBadLatency indicates a negative latency hint.
	ErrBadLatency = errors.New("ddg: negative latency")

	// ErrUnknownInst indicates an undeclared instruction-type name.
	ErrUnknownInst = errors.New("ddg: unknown instruction type")

	// ErrBadNodeIndex indicates a dependence endpoint out of range.
	ErrBadNodeIndex = errors.New("ddg: node index out of range")

	// ErrFinalized indicates a mutation after Finalize.
	ErrFinalized = errors.New("ddg: graph already finalized")
)

// LatencyPrecision selects how per-edge latencies are assigned.
type LatencyPrecision int

const (
	// Precise looks latencies up in the machine model.
	Precise LatencyPrecision = iota

	// Rough uses the host compiler's per-edge hint.
	Rough

	// Unity assigns 1 to data edges and 0 to all other kinds.
	Unity
)

// ParseLatencyPrecision maps PRECISE/ROUGH/UNITY text to its mode.
// Unknown text defaults to Precise; the second result reports recognition.
func ParseLatencyPrecision(s string) (LatencyPrecision, bool) {
	switch s {
	case "PRECISE":
		return Precise, true
	case "ROUGH":
		return Rough, true
	case "UNITY":
		return Unity, true
	}

	return Precise, false
}

// NoPhysReg marks a RegRef with no physical alias.
const NoPhysReg = -1

// RegRef identifies one register by (type, index) with an optional
// physical alias. Registers live in per-type arenas owned by the
// pressure tracker; the graph stores only these triples.
type RegRef struct {
	// Type is the register-type index in the machine model.
	Type int

	// Num is the register's index within its type arena.
	Num int

	// Phys is the aliased physical register, or NoPhysReg.
	Phys int
}

// Edge is one dependence with its kind and resolved latency.
type Edge struct {
	// From and To are node indices.
	From, To int

	// Kind classifies the dependence.
	Kind machine.DepKind

	// Latency is the resolved minimum cycle distance From→To.
	Latency int
}

// Node is one instruction (or sentinel) of the dependence graph.
type Node struct {
	// Num is the node's stable index. Real instructions occupy
	// [0, InstCount); the sentinels follow.
	Num int

	// Name is the opcode tag, used in schedules and logs.
	Name string

	// InstType and IssueType are machine-model indices; both are -1 on
	// sentinels, which occupy no issue slot.
	InstType  int
	IssueType int

	// InputOrder is the position in the host-supplied sequence (ISO key).
	InputOrder int

	// Defs and Uses are the registers written and read.
	Defs, Uses []RegRef

	// MustBeInEntry / MustBeInExit mark instructions pinned to the block
	// boundary under live-in/live-out fixing.
	MustBeInEntry, MustBeInExit bool

	// fwdCP is the forward critical path (earliest start cycle);
	// bkwdCP is the backward critical path (latency distance to exit).
	fwdCP, bkwdCP int

	// rcrsvPreds / rcrsvSuccs are the recursive neighbor bit-sets,
	// populated by Finalize.
	rcrsvPreds, rcrsvSuccs *bitset.BitSet
}

// FwdCriticalPath returns the node's earliest start cycle.
func (n *Node) FwdCriticalPath() int { return n.fwdCP }

// BkwdCriticalPath returns the node's latency distance to the exit sentinel.
func (n *Node) BkwdCriticalPath() int { return n.bkwdCP }

// RcrsvPreds returns the recursive predecessor bit-set. Callers must not
// mutate it.
func (n *Node) RcrsvPreds() *bitset.BitSet { return n.rcrsvPreds }

// RcrsvSuccs returns the recursive successor bit-set. Callers must not
// mutate it.
func (n *Node) RcrsvSuccs() *bitset.BitSet { return n.rcrsvSuccs }

// IsSentinel reports whether the node is the artificial entry or exit.
func (n *Node) IsSentinel() bool { return n.InstType < 0 }

// InstOption configures one instruction at AddInst time.
type InstOption func(*Node)

// WithDefs sets the registers the instruction writes.
func WithDefs(defs ...RegRef) InstOption {
	return func(n *Node) { n.Defs = defs }
}

// WithUses sets the registers the instruction reads.
func WithUses(uses ...RegRef) InstOption {
	return func(n *Node) { n.Uses = uses }
}

// WithEntryBlock pins the instruction to the block entry under FIX_LIVEIN.
func WithEntryBlock() InstOption {
	return func(n *Node) { n.MustBeInEntry = true }
}

// WithExitBlock pins the instruction to the block exit under FIX_LIVEOUT.
func WithExitBlock() InstOption {
	return func(n *Node) { n.MustBeInExit = true }
}

// BuildOption configures a Builder.
type BuildOption func(*Builder)

// WithLatencyPrecision sets the latency-assignment mode (default Precise).
func WithLatencyPrecision(p LatencyPrecision) BuildOption {
	return func(b *Builder) { b.precision = p }
}

// WithMaxPreciseSize degrades Precise to Rough for graphs larger than n
// real instructions. Zero disables the degradation.
func WithMaxPreciseSize(n int) BuildOption {
	return func(b *Builder) { b.maxPreciseSize = n }
}

// WithOrderAsData reclassifies order (DepOther) dependences as DepData.
func WithOrderAsData() BuildOption {
	return func(b *Builder) { b.orderAsData = true }
}
