// Package config implements the flat key→string configuration store the
// scheduling engine is driven by.
//
// The on-disk dialect is line oriented: one `KEY value` pair per line,
// whitespace separated, with `#` starting a comment. Values keep internal
// whitespace, so `HEURISTIC CP_LUC_NID` and `REGION_TIMEOUT 500` both
// parse as single entries. Unknown keys are retained verbatim; the engine
// reads only the keys it recognizes (see keys.go) and leaves the rest to
// the host.
//
// Typed accessors never fail: each takes a default returned when the key
// is absent or malformed, mirroring how a scheduler must keep going on a
// partially written configuration.
//
// Complexity: Parse (and LoadFile) is O(bytes); every accessor is O(1).
package config
