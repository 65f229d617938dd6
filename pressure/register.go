// Package pressure - registers and per-type register files.
package pressure

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/katalvlaran/optsched/ddg"
)

// Register is one virtual register of a certain type. It tracks total
// def and use counts and the current-use counter advanced as consumers
// are scheduled. Users are held as node indices, never pointers.
type Register struct {
	// Type, Num, Phys identify the register; Phys is ddg.NoPhysReg when
	// the register has no physical alias.
	Type, Num, Phys int

	// DefCnt and UseCnt are totals over the whole region.
	DefCnt, UseCnt int

	// Users lists the node indices that read this register.
	Users []int

	crntUseCnt int
	conflicts  *bitset.BitSet
}

// Live reports whether the register still awaits consumers: its
// current-use counter has not reached the total use count.
func (r *Register) Live() bool { return r.crntUseCnt < r.UseCnt }

// CrntUseCnt returns the number of consumers scheduled so far.
func (r *Register) CrntUseCnt() int { return r.crntUseCnt }

// AddCrntUse records one scheduled consumer.
func (r *Register) AddCrntUse() { r.crntUseCnt++ }

// DelCrntUse unrecords one scheduled consumer.
func (r *Register) DelCrntUse() { r.crntUseCnt-- }

// ResetCrntUse rewinds the current-use counter to zero (on def).
func (r *Register) ResetCrntUse() { r.crntUseCnt = 0 }

// setupConflicts sizes the conflict vector against regCnt same-type registers.
func (r *Register) setupConflicts(regCnt int) {
	r.conflicts = bitset.New(uint(regCnt))
}

// resetConflicts clears the conflict vector.
func (r *Register) resetConflicts() {
	if r.conflicts != nil {
		r.conflicts.ClearAll()
	}
}

// ConflictCount returns the number of distinct same-type registers this
// register was concurrently live with.
func (r *Register) ConflictCount() int {
	if r.conflicts == nil {
		return 0
	}

	return int(r.conflicts.Count())
}

// File is the arena of all registers of one type.
type File struct {
	// Type is the register-type index in the machine model.
	Type int

	// Regs is the dense register arena, indexed by Register.Num.
	Regs []*Register

	physRegCnt int
}

// RegCount returns the number of virtual registers in the file.
func (f *File) RegCount() int { return len(f.Regs) }

// PhysRegCount returns 1 + the highest physical alias in the file, or 0
// when no register carries one.
func (f *File) PhysRegCount() int { return f.physRegCnt }

// FindLiveReg returns the live register aliasing physNum, or nil.
func (f *File) FindLiveReg(physNum int) *Register {
	for _, r := range f.Regs {
		if r.Phys == physNum && r.Live() {
			return r
		}
	}

	return nil
}

// resetCrntUseCnts rewinds every register's current-use counter.
func (f *File) resetCrntUseCnts() {
	for _, r := range f.Regs {
		r.crntUseCnt = 0
	}
}

// setupConflicts sizes every register's conflict vector.
func (f *File) setupConflicts() {
	for _, r := range f.Regs {
		r.setupConflicts(len(f.Regs))
	}
}

// resetConflicts clears every register's conflict vector.
func (f *File) resetConflicts() {
	for _, r := range f.Regs {
		r.resetConflicts()
	}
}

// ConflictCount sums the per-register conflict counts of the file.
func (f *File) ConflictCount() int {
	total := 0
	for _, r := range f.Regs {
		total += r.ConflictCount()
	}

	return total
}

// BuildFiles scans the region's def and use sets in node order and
// constructs one File per register type, counting defs and uses and
// collecting user lists — the index-based replacement for the original
// register↔instruction back-pointers.
func BuildFiles(dag *ddg.Graph) []*File {
	typeCnt := dag.Model().RegTypeCount()
	files := make([]*File, typeCnt)
	for t := 0; t < typeCnt; t++ {
		files[t] = &File{Type: t}
	}

	// 1. Size each arena to the highest register index referenced.
	counts := make([]int, typeCnt)
	scan := func(refs []ddg.RegRef) {
		for _, ref := range refs {
			if ref.Num+1 > counts[ref.Type] {
				counts[ref.Type] = ref.Num + 1
			}
		}
	}
	for i := 0; i < dag.InstCount(); i++ {
		scan(dag.Node(i).Defs)
		scan(dag.Node(i).Uses)
	}
	for t, c := range counts {
		files[t].Regs = make([]*Register, c)
		for n := 0; n < c; n++ {
			files[t].Regs[n] = &Register{Type: t, Num: n, Phys: ddg.NoPhysReg}
		}
	}

	// 2. Count defs and uses; record users and physical aliases.
	for i := 0; i < dag.InstCount(); i++ {
		node := dag.Node(i)
		for _, ref := range node.Defs {
			r := files[ref.Type].Regs[ref.Num]
			r.DefCnt++
			if ref.Phys != ddg.NoPhysReg {
				r.Phys = ref.Phys
			}
		}
		for _, ref := range node.Uses {
			r := files[ref.Type].Regs[ref.Num]
			r.UseCnt++
			r.Users = append(r.Users, node.Num)
		}
	}

	// 3. Resolve per-file physical register counts.
	for _, f := range files {
		for _, r := range f.Regs {
			if r.Phys != ddg.NoPhysReg && r.Phys+1 > f.physRegCnt {
				f.physRegCnt = r.Phys + 1
			}
		}
	}

	return files
}
