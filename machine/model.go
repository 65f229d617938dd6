// Package machine - Model construction, validation, and lookups.
package machine

import "fmt"

// NewModel validates the given description and resolves all name
// references into dense indices.
//
// Errors: ErrBadIssueRate, ErrBadSlotCount, ErrDuplicateName,
// ErrUnknownType, ErrBadLatency.
// Complexity: O(types + latency entries).
func NewModel(name string, issueRate int, issueTypes []IssueType, instTypes []InstType, regTypes []RegType, latencies []LatencyEntry) (*Model, error) {
	// 1. Issue rate must admit at least one slot per cycle.
	if issueRate <= 0 {
		return nil, ErrBadIssueRate
	}

	m := &Model{
		Name:       name,
		IssueRate:  issueRate,
		IssueTypes: issueTypes,
		InstTypes:  instTypes,
		RegTypes:   regTypes,
		instIdx:    make(map[string]int, len(instTypes)),
		issueIdx:   make(map[string]int, len(issueTypes)),
		regIdx:     make(map[string]int, len(regTypes)),
	}

	// 2. Index issue types; slot counts must be positive.
	for i, it := range issueTypes {
		if _, dup := m.issueIdx[it.Name]; dup {
			return nil, fmt.Errorf("%w: issue type %q", ErrDuplicateName, it.Name)
		}
		if it.SlotsPerCycle <= 0 {
			return nil, fmt.Errorf("%w: issue type %q", ErrBadSlotCount, it.Name)
		}
		m.issueIdx[it.Name] = i
	}

	// 3. Index instruction types and resolve their issue types.
	m.issueTypeOf = make([]int, len(instTypes))
	for i, t := range instTypes {
		if _, dup := m.instIdx[t.Name]; dup {
			return nil, fmt.Errorf("%w: instruction type %q", ErrDuplicateName, t.Name)
		}
		if t.Latency < 0 {
			return nil, fmt.Errorf("%w: instruction type %q", ErrBadLatency, t.Name)
		}
		iss, ok := m.issueIdx[t.IssueType]
		if !ok {
			return nil, fmt.Errorf("%w: issue type %q of instruction type %q", ErrUnknownType, t.IssueType, t.Name)
		}
		m.instIdx[t.Name] = i
		m.issueTypeOf[i] = iss
	}

	// 4. Index register types.
	for i, r := range regTypes {
		if _, dup := m.regIdx[r.Name]; dup {
			return nil, fmt.Errorf("%w: register type %q", ErrDuplicateName, r.Name)
		}
		m.regIdx[r.Name] = i
	}

	// 5. Build the per-(type, kind) latency table; -1 means "use default".
	m.latencies = make([]int, len(instTypes)*int(depKindCount))
	for i := range m.latencies {
		m.latencies[i] = -1
	}
	for _, e := range latencies {
		ti, ok := m.instIdx[e.InstType]
		if !ok {
			return nil, fmt.Errorf("%w: latency entry for %q", ErrUnknownType, e.InstType)
		}
		if e.Cycles < 0 {
			return nil, fmt.Errorf("%w: latency entry for %q", ErrBadLatency, e.InstType)
		}
		m.latencies[ti*int(depKindCount)+int(ParseDepKind(e.DepKind))] = e.Cycles
	}

	return m, nil
}

// IssueTypeCount returns the number of issue types.
func (m *Model) IssueTypeCount() int { return len(m.IssueTypes) }

// RegTypeCount returns the number of register types.
func (m *Model) RegTypeCount() int { return len(m.RegTypes) }

// SlotsPerCycle returns the per-cycle slot count of the given issue type.
func (m *Model) SlotsPerCycle(issueType int) int {
	return m.IssueTypes[issueType].SlotsPerCycle
}

// PhysRegCount returns the physical-register count of the given register type.
func (m *Model) PhysRegCount(regType int) int {
	return m.RegTypes[regType].PhysRegCount
}

// IssueTypeOf returns the issue-type index of the given instruction type.
func (m *Model) IssueTypeOf(instType int) int { return m.issueTypeOf[instType] }

// InstTypeIndex resolves an instruction-type name; the second result is
// false when the name was never declared.
func (m *Model) InstTypeIndex(name string) (int, bool) {
	i, ok := m.instIdx[name]

	return i, ok
}

// IssueTypeIndex resolves an issue-type name.
func (m *Model) IssueTypeIndex(name string) (int, bool) {
	i, ok := m.issueIdx[name]

	return i, ok
}

// RegTypeIndex resolves a register-type name.
func (m *Model) RegTypeIndex(name string) (int, bool) {
	i, ok := m.regIdx[name]

	return i, ok
}

// Latency returns the producer latency of instType along a dependence of
// the given kind: the per-pair table entry when present, the type's
// default for data dependences, and 0 for all other kinds.
func (m *Model) Latency(instType int, kind DepKind) int {
	if l := m.latencies[instType*int(depKindCount)+int(kind)]; l >= 0 {
		return l
	}
	if kind == DepData {
		return m.InstTypes[instType].Latency
	}

	return 0
}

// MaxLatency returns the largest latency any instruction type can incur.
// The result is never below 1.
func (m *Model) MaxLatency() int {
	max := 1
	for i := range m.InstTypes {
		for k := DepKind(0); k < depKindCount; k++ {
			if l := m.Latency(i, k); l > max {
				max = l
			}
		}
	}

	return max
}
