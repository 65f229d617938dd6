// Command optsched - TOML DAG-file loading.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/samber/lo"

	"github.com/katalvlaran/optsched/ddg"
	"github.com/katalvlaran/optsched/machine"
)

// dagFile mirrors the TOML layout of a region file.
type dagFile struct {
	Name  string     `toml:"name"`
	Insts []instFile `toml:"inst"`
	Deps  []depFile  `toml:"dep"`

	// Optional pre-recorded bounds (USE_FILE_BOUNDS).
	LowerBound     int `toml:"lower_bound"`
	CostUpperBound int `toml:"cost_upper_bound"`
}

type instFile struct {
	Name  string   `toml:"name"`
	Type  string   `toml:"type"`
	Defs  []string `toml:"defs"`
	Uses  []string `toml:"uses"`
	Entry bool     `toml:"entry"`
	Exit  bool     `toml:"exit"`
}

type depFile struct {
	From    string `toml:"from"`
	To      string `toml:"to"`
	Kind    string `toml:"kind"`
	Latency int    `toml:"latency"`
}

// parseRegRef parses "TYPE:NUM" or "TYPE:NUM:PHYS" against the model.
func parseRegRef(model *machine.Model, s string) (ddg.RegRef, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return ddg.RegRef{}, fmt.Errorf("malformed register reference %q", s)
	}
	regType, ok := model.RegTypeIndex(parts[0])
	if !ok {
		return ddg.RegRef{}, fmt.Errorf("unknown register type %q", parts[0])
	}
	num, err := strconv.Atoi(parts[1])
	if err != nil {
		return ddg.RegRef{}, fmt.Errorf("malformed register number in %q", s)
	}
	ref := ddg.RegRef{Type: regType, Num: num, Phys: ddg.NoPhysReg}
	if len(parts) == 3 {
		if ref.Phys, err = strconv.Atoi(parts[2]); err != nil {
			return ddg.RegRef{}, fmt.Errorf("malformed physical number in %q", s)
		}
	}

	return ref, nil
}

// loadDag builds a finalized dependence graph from a TOML region file.
func loadDag(path string, model *machine.Model, buildOpts []ddg.BuildOption) (*ddg.Graph, *dagFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open DAG file: %w", err)
	}
	var f dagFile
	if err = toml.Unmarshal(raw, &f); err != nil {
		return nil, nil, fmt.Errorf("decode DAG file: %w", err)
	}

	b := ddg.NewBuilder(model, buildOpts...)
	indexOf := make(map[string]int, len(f.Insts))
	for _, inst := range f.Insts {
		refs := func(specs []string) ([]ddg.RegRef, error) {
			out := make([]ddg.RegRef, 0, len(specs))
			for _, spec := range specs {
				ref, refErr := parseRegRef(model, spec)
				if refErr != nil {
					return nil, refErr
				}
				out = append(out, ref)
			}

			return out, nil
		}
		defs, err := refs(inst.Defs)
		if err != nil {
			return nil, nil, err
		}
		uses, err := refs(inst.Uses)
		if err != nil {
			return nil, nil, err
		}

		opts := []ddg.InstOption{ddg.WithDefs(defs...), ddg.WithUses(uses...)}
		if inst.Entry {
			opts = append(opts, ddg.WithEntryBlock())
		}
		if inst.Exit {
			opts = append(opts, ddg.WithExitBlock())
		}
		idx, err := b.AddInst(inst.Name, inst.Type, opts...)
		if err != nil {
			return nil, nil, err
		}
		indexOf[inst.Name] = idx
	}

	for _, dep := range f.Deps {
		from, ok := indexOf[dep.From]
		if !ok {
			return nil, nil, fmt.Errorf("dependence names unknown instruction %q", dep.From)
		}
		to, ok := indexOf[dep.To]
		if !ok {
			return nil, nil, fmt.Errorf("dependence names unknown instruction %q", dep.To)
		}
		if err = b.AddDep(from, to, machine.ParseDepKind(dep.Kind), dep.Latency); err != nil {
			return nil, nil, err
		}
	}

	g, err := b.Finalize()
	if err != nil {
		return nil, nil, err
	}

	return g, &f, nil
}

// instNames maps node indices back to names for the printed schedule.
func instNames(f *dagFile) []string {
	return lo.Map(f.Insts, func(inst instFile, _ int) string { return inst.Name })
}
