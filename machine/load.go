// Package machine - TOML decoding of machine-model files.
package machine

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// modelFile mirrors the TOML layout of a machine-model file.
type modelFile struct {
	Name       string          `toml:"name"`
	IssueRate  int             `toml:"issue_rate"`
	IssueTypes []issueTypeFile `toml:"issue_type"`
	InstTypes  []instTypeFile  `toml:"inst_type"`
	RegTypes   []regTypeFile   `toml:"reg_type"`
	Latencies  []latencyFile   `toml:"latency"`
}

type issueTypeFile struct {
	Name          string `toml:"name"`
	SlotsPerCycle int    `toml:"slots_per_cycle"`
}

type regTypeFile struct {
	Name         string `toml:"name"`
	PhysRegCount int    `toml:"phys_reg_count"`
}

type instTypeFile struct {
	Name      string `toml:"name"`
	IssueType string `toml:"issue_type"`
	Latency   int    `toml:"latency"`
	Pipelined bool   `toml:"pipelined"`
}

type latencyFile struct {
	InstType string `toml:"inst_type"`
	DepKind  string `toml:"dep_kind"`
	Cycles   int    `toml:"cycles"`
}

// Decode reads a TOML machine model from r and validates it via NewModel.
func Decode(r io.Reader) (*Model, error) {
	var f modelFile
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("machine: decode model: %w", err)
	}

	issueTypes := make([]IssueType, len(f.IssueTypes))
	for i, t := range f.IssueTypes {
		issueTypes[i] = IssueType{Name: t.Name, SlotsPerCycle: t.SlotsPerCycle}
	}
	instTypes := make([]InstType, len(f.InstTypes))
	for i, t := range f.InstTypes {
		instTypes[i] = InstType{Name: t.Name, IssueType: t.IssueType, Latency: t.Latency, Pipelined: t.Pipelined}
	}
	regTypes := make([]RegType, len(f.RegTypes))
	for i, r := range f.RegTypes {
		regTypes[i] = RegType{Name: r.Name, PhysRegCount: r.PhysRegCount}
	}
	latencies := make([]LatencyEntry, len(f.Latencies))
	for i, l := range f.Latencies {
		latencies[i] = LatencyEntry{InstType: l.InstType, DepKind: l.DepKind, Cycles: l.Cycles}
	}

	return NewModel(f.Name, f.IssueRate, issueTypes, instTypes, regTypes, latencies)
}

// Load reads and decodes the machine model at path.
func Load(path string) (*Model, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("machine: open model file: %w", err)
	}
	defer fh.Close()

	return Decode(fh)
}
