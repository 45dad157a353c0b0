package interp

import (
	"fmt"
	"regexp"
	"sort"

	"tracedf/internal/bytecode"
	"tracedf/internal/dataframe"
	"tracedf/internal/dferr"
	"tracedf/internal/fetch"
	"tracedf/internal/storage"
	"tracedf/internal/stringpool"
)

// Patterns supplies the precompiled glob/regex matchers a program's
// StringFilter(Glob)/StringFilter(Regex) instructions reference by slot,
// mirroring how CastFilterValue reaches scalar filter values through
// fetch.Fetcher. vtab.Parse builds them once per query; the interpreter
// never compiles one per row.
type Patterns struct {
	Globs   map[int]*CompiledGlob
	Regexes map[int]*regexp.Regexp
}

// Interpreter executes a bytecode.Program against one dataframe.
type Interpreter struct {
	df       *dataframe.Dataframe
	values   fetch.Fetcher
	patterns Patterns
}

// NewInterpreter returns an Interpreter bound to df. values supplies
// CastFilterValue's scalar operands; patterns supplies glob/regex
// matchers. Either may be nil if the program needs none.
func NewInterpreter(df *dataframe.Dataframe, values fetch.Fetcher, patterns Patterns) *Interpreter {
	return &Interpreter{df: df, values: values, patterns: patterns}
}

// Result is everything a Run leaves behind: the final selected row set
// (as a register) and the materialized output cells, if the program
// emitted any StrideCopy family instructions.
type Result struct {
	Selected bytecode.Reg
	Frame    *Frame
	Output   *Output
}

// Cell is one materialized output value. Exactly one of Int64/Double/Str
// is meaningful, selected by the owning column's Kind; Null overrides all
// of them.
type Cell struct {
	Null   bool
	Int64  int64
	Double float64
	Str    string
}

// Output is the flat, strided materialization buffer StrideCopy family
// instructions write into: logical row r, output column slot s sits at
// Buf[r*Stride+s].
type Output struct {
	Stride int
	Rows   int
	Buf    []Cell
}

func newOutput(stride, rows int) *Output {
	return &Output{Stride: stride, Rows: rows, Buf: make([]Cell, stride*rows)}
}

// Run executes every instruction in p in order and returns the final
// frame plus any materialized output.
func (in *Interpreter) Run(p *bytecode.Program) (*Result, error) {
	f := NewFrame(len(p.Instrs))
	var out *Output
	var last bytecode.Reg
	for _, instr := range p.Instrs {
		if err := in.step(f, instr, &out); err != nil {
			return nil, err
		}
		switch instr.Op {
		case bytecode.OpStrideCopy, bytecode.OpStrideTranslateAndCopySparseNullIndices, bytecode.OpStrideCopyDenseNullIndices:
			// These write the Output buffer, not a register.
		default:
			last = instr.Dst
		}
	}
	return &Result{Selected: last, Frame: f, Output: out}, nil
}

func (in *Interpreter) step(f *Frame, instr bytecode.Instruction, out **Output) error {
	switch instr.Op {
	case bytecode.OpInitRange:
		f.SetRange(instr.Dst, Range{0, uint32(instr.Imm)})
		return nil
	case bytecode.OpAllocateIndices:
		f.SetIndices(instr.Dst, make([]uint32, 0, instr.Imm))
		return nil
	case bytecode.OpIota:
		f.SetIndices(instr.Dst, f.Indices(instr.Src))
		return nil
	case bytecode.OpUint32SetIdSortedEq:
		return in.execSetIdSortedEq(f, instr)
	case bytecode.OpPrefixPopcount:
		col := in.df.Column(instr.Col)
		f.SetPopcount(instr.Dst, col.Overlay.Prefix())
		return nil
	case bytecode.OpTranslateSparseNullIndices:
		return in.execTranslateSparseNullIndices(f, instr)
	case bytecode.OpStrideCopy:
		return in.execStrideCopy(f, instr, out)
	case bytecode.OpStrideTranslateAndCopySparseNullIndices:
		return in.execStrideTranslateAndCopySparse(f, instr, out)
	case bytecode.OpStrideCopyDenseNullIndices:
		return in.execStrideCopyDense(f, instr, out)
	case bytecode.OpNullFilterIsNull:
		return in.execNullFilter(f, instr, true)
	case bytecode.OpNullFilterIsNotNull:
		return in.execNullFilter(f, instr, false)
	}

	if target, ok := bytecode.DecodeCastFilterValue(instr.Op); ok {
		cast := CastFilterValue(in.values, instr.Slot, target, bytecode.CmpOp(instr.Imm))
		f.SetCast(instr.Dst, cast)
		return nil
	}
	if t, mode, ok := bytecode.DecodeSortedFilter(instr.Op); ok {
		return in.execSortedFilter(f, instr, t, mode)
	}
	if t, op, ok := bytecode.DecodeNonStringFilter(instr.Op); ok {
		return in.execNonStringFilter(f, instr, t, op)
	}
	if op, ok := bytecode.DecodeStringFilter(instr.Op); ok {
		return in.execStringFilter(f, instr, op)
	}
	return &dferr.PlanError{Reason: fmt.Sprintf("interp: unknown opcode %d", instr.Op)}
}

// execNullFilter keeps, from src, only the rows whose column presence bit
// matches wantNull.
func (in *Interpreter) execNullFilter(f *Frame, instr bytecode.Instruction, wantNull bool) error {
	col := in.df.Column(instr.Col)
	if col.Overlay.Kind == storage.NonNull {
		if wantNull {
			f.SetIndices(instr.Dst, nil)
		} else {
			f.SetIndices(instr.Dst, f.Indices(instr.Src))
		}
		return nil
	}
	kept := make([]uint32, 0, f.Len(instr.Src))
	for _, row := range f.Indices(instr.Src) {
		if col.Overlay.IsNull(int(row)) == wantNull {
			kept = append(kept, row)
		}
	}
	f.SetIndices(instr.Dst, kept)
	return nil
}

// execSetIdSortedEq narrows src to the contiguous run of rows equal to the
// cast result in Src2, using the SetIdSorted law (first occurrence of v
// sits at row v) to jump directly to the run instead of scanning.
func (in *Interpreter) execSetIdSortedEq(f *Frame, instr bytecode.Instruction) error {
	cast := f.Cast(instr.Src2)
	col := in.df.Column(instr.Col)
	switch cast.Status {
	case CastNoneMatch:
		f.SetRange(instr.Dst, Range{0, 0})
		return nil
	case CastAllMatch:
		f.SetRange(instr.Dst, f.Get(instr.Src).Range)
		return nil
	}
	v := cast.Int64
	if v < 0 || v >= int64(col.Storage.Len()) {
		f.SetRange(instr.Dst, Range{0, 0})
		return nil
	}
	lo := uint32(v)
	hi := lo
	for int(hi) < col.Storage.Len() && col.Storage.AsInt64(int(hi)) == v {
		hi++
	}
	f.SetRange(instr.Dst, intersectRange(f.Get(instr.Src).Range, Range{lo, hi}))
	return nil
}

func intersectRange(a, b Range) Range {
	lo, hi := a.Lo, a.Hi
	if b.Lo > lo {
		lo = b.Lo
	}
	if b.Hi < hi {
		hi = b.Hi
	}
	if lo > hi {
		return Range{0, 0}
	}
	return Range{lo, hi}
}

// execSortedFilter narrows src via binary search against column col's
// sorted storage, per mode.
func (in *Interpreter) execSortedFilter(f *Frame, instr bytecode.Instruction, t bytecode.TypeIndex, mode bytecode.SortMode) error {
	cast := f.Cast(instr.Src2)
	switch cast.Status {
	case CastNoneMatch:
		f.SetRange(instr.Dst, Range{0, 0})
		return nil
	case CastAllMatch:
		f.SetRange(instr.Dst, f.Get(instr.Src).Range)
		return nil
	}
	col := in.df.Column(instr.Col)
	base := f.Get(instr.Src).Range
	n := col.Storage.Len()

	at := func(i int) (int64, float64) {
		if t == bytecode.TypeDouble {
			return 0, col.Storage.DoubleAt(i)
		}
		return col.Storage.AsInt64(i), 0
	}
	less := func(i int) bool {
		if t == bytecode.TypeDouble {
			_, d := at(i)
			return d < cast.Double
		}
		iv, _ := at(i)
		return iv < cast.Int64
	}
	lessOrEq := func(i int) bool {
		if t == bytecode.TypeDouble {
			_, d := at(i)
			return d <= cast.Double
		}
		iv, _ := at(i)
		return iv <= cast.Int64
	}

	lo := int(base.Lo)
	hi := int(base.Hi)
	lowerBound := lo + sort.Search(hi-lo, func(i int) bool { return !less(lo + i) })
	upperBound := lo + sort.Search(hi-lo, func(i int) bool { return !lessOrEq(lo + i) })

	switch mode {
	case bytecode.ModeLt:
		f.SetRange(instr.Dst, Range{base.Lo, uint32(lowerBound)})
	case bytecode.ModeLe:
		f.SetRange(instr.Dst, Range{base.Lo, uint32(upperBound)})
	case bytecode.ModeGt:
		f.SetRange(instr.Dst, Range{uint32(upperBound), base.Hi})
	case bytecode.ModeGe:
		f.SetRange(instr.Dst, Range{uint32(lowerBound), base.Hi})
	default: // ModeEq
		if lowerBound > upperBound {
			lowerBound = upperBound
		}
		f.SetRange(instr.Dst, Range{uint32(lowerBound), uint32(upperBound)})
	}
	if n == 0 {
		f.SetRange(instr.Dst, Range{0, 0})
	}
	return nil
}

// execNonStringFilter keeps, from src, only the rows whose column col
// value satisfies op against the cast result in Src2.
func (in *Interpreter) execNonStringFilter(f *Frame, instr bytecode.Instruction, t bytecode.TypeIndex, op bytecode.CmpOp) error {
	cast := f.Cast(instr.Src2)
	switch cast.Status {
	case CastNoneMatch:
		f.SetIndices(instr.Dst, nil)
		return nil
	case CastAllMatch:
		f.SetIndices(instr.Dst, f.Indices(instr.Src))
		return nil
	}
	col := in.df.Column(instr.Col)
	kept := make([]uint32, 0, f.Len(instr.Src))
	for _, row := range f.Indices(instr.Src) {
		var lhs, rhs float64
		if t == bytecode.TypeDouble {
			lhs, rhs = col.Storage.DoubleAt(int(row)), cast.Double
		} else {
			lhs, rhs = float64(col.Storage.AsInt64(int(row))), float64(cast.Int64)
		}
		if compareFloat(lhs, rhs, op) {
			kept = append(kept, row)
		}
	}
	f.SetIndices(instr.Dst, kept)
	return nil
}

func compareFloat(lhs, rhs float64, op bytecode.CmpOp) bool {
	switch op {
	case bytecode.CmpEq:
		return lhs == rhs
	case bytecode.CmpNe:
		return lhs != rhs
	case bytecode.CmpLt:
		return lhs < rhs
	case bytecode.CmpLe:
		return lhs <= rhs
	case bytecode.CmpGt:
		return lhs > rhs
	default: // CmpGe
		return lhs >= rhs
	}
}

// execStringFilter keeps, from src, only the rows whose column col string
// value satisfies op -- an ordinary comparison against the cast string, or
// a glob/regex match against the compiled pattern in instr.Slot.
func (in *Interpreter) execStringFilter(f *Frame, instr bytecode.Instruction, op bytecode.StringOp) error {
	col := in.df.Column(instr.Col)
	pool := in.df.Pool()
	kept := make([]uint32, 0, f.Len(instr.Src))

	if op == bytecode.StrGlob || op == bytecode.StrRegex {
		for _, row := range f.Indices(instr.Src) {
			s := string(pool.Get(col.Storage.StringIdAt(int(row))))
			var match bool
			if op == bytecode.StrGlob {
				match = in.patterns.Globs[instr.Slot].Match(s)
			} else {
				match = in.patterns.Regexes[instr.Slot].MatchString(s)
			}
			if match {
				kept = append(kept, row)
			}
		}
		f.SetIndices(instr.Dst, kept)
		return nil
	}

	cast := f.Cast(instr.Src2)
	switch cast.Status {
	case CastNoneMatch:
		f.SetIndices(instr.Dst, nil)
		return nil
	case CastAllMatch:
		f.SetIndices(instr.Dst, f.Indices(instr.Src))
		return nil
	}
	for _, row := range f.Indices(instr.Src) {
		s := string(pool.Get(col.Storage.StringIdAt(int(row))))
		if compareString(s, cast.Str, op) {
			kept = append(kept, row)
		}
	}
	f.SetIndices(instr.Dst, kept)
	return nil
}

func compareString(lhs, rhs string, op bytecode.StringOp) bool {
	switch op {
	case bytecode.StrEq:
		return lhs == rhs
	case bytecode.StrNe:
		return lhs != rhs
	case bytecode.StrLt:
		return lhs < rhs
	case bytecode.StrLe:
		return lhs <= rhs
	case bytecode.StrGt:
		return lhs > rhs
	default: // StrGe
		return lhs >= rhs
	}
}

func (in *Interpreter) execTranslateSparseNullIndices(f *Frame, instr bytecode.Instruction) error {
	col := in.df.Column(instr.Col)
	src := f.Indices(instr.Src)
	out := make([]uint32, 0, len(src))
	for _, row := range src {
		if col.Overlay.IsNull(int(row)) {
			continue
		}
		out = append(out, uint32(col.Overlay.StorageIndex(int(row))))
	}
	f.SetIndices(instr.Dst, out)
	return nil
}

func (in *Interpreter) ensureOutput(out **Output, stride, rows int) {
	if *out == nil {
		*out = newOutput(stride, rows)
	}
}

func (in *Interpreter) execStrideCopy(f *Frame, instr bytecode.Instruction, out **Output) error {
	col := in.df.Column(instr.Col)
	src := f.Indices(instr.Src)
	stride, offset := int(instr.Imm), instr.Slot
	in.ensureOutput(out, stride, len(src))
	pool := in.df.Pool()
	for r, row := range src {
		(*out).Buf[r*stride+offset] = cellFromStorage(col, pool, int(row))
	}
	return nil
}

func (in *Interpreter) execStrideTranslateAndCopySparse(f *Frame, instr bytecode.Instruction, out **Output) error {
	col := in.df.Column(instr.Col)
	src := f.Indices(instr.Src)
	stride, offset := int(instr.Imm), instr.Slot
	in.ensureOutput(out, stride, len(src))
	pool := in.df.Pool()
	for r, row := range src {
		idx := r*stride + offset
		if col.Overlay.IsNull(int(row)) {
			(*out).Buf[idx] = Cell{Null: true}
			continue
		}
		(*out).Buf[idx] = cellFromStorage(col, pool, col.Overlay.StorageIndex(int(row)))
	}
	return nil
}

func (in *Interpreter) execStrideCopyDense(f *Frame, instr bytecode.Instruction, out **Output) error {
	col := in.df.Column(instr.Col)
	src := f.Indices(instr.Src)
	stride, offset := int(instr.Imm), instr.Slot
	in.ensureOutput(out, stride, len(src))
	pool := in.df.Pool()
	for r, row := range src {
		idx := r*stride + offset
		if col.Overlay.IsNull(int(row)) {
			(*out).Buf[idx] = Cell{Null: true}
			continue
		}
		(*out).Buf[idx] = cellFromStorage(col, pool, int(row))
	}
	return nil
}

// cellFromStorage reads one value out of col's storage at storageIdx (a
// storage index, which for a SparseNull column differs from the row
// index) and boxes it into a Cell. Dispatches on Kind, matching the
// tagged-union convention the rest of the storage package uses.
func cellFromStorage(col *storage.Column, pool *stringpool.StringPool, storageIdx int) Cell {
	switch col.Spec.Kind {
	case storage.KindId:
		return Cell{Int64: int64(col.Storage.IdAt(storageIdx))}
	case storage.KindUint32:
		return Cell{Int64: int64(col.Storage.Uint32At(storageIdx))}
	case storage.KindInt32:
		return Cell{Int64: int64(col.Storage.Int32At(storageIdx))}
	case storage.KindInt64:
		return Cell{Int64: col.Storage.Int64At(storageIdx)}
	case storage.KindDouble:
		return Cell{Double: col.Storage.DoubleAt(storageIdx)}
	case storage.KindString:
		return Cell{Str: string(pool.Get(col.Storage.StringIdAt(storageIdx)))}
	default:
		panic("interp: unknown column kind")
	}
}
