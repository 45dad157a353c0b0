package bytecode

// Reg identifies a register slot in the interpreter's register file. Its
// content's shape (Range, Span, Slab, or a cast result) is determined by
// which opcode wrote it; the interpreter's Register records that shape in
// its Kind tag.
type Reg uint16

// Instruction is a fixed-size record: an opcode plus a handful of packed
// operands. Not every field is meaningful for every opcode -- see the
// comment on each constructor for which ones are read.
type Instruction struct {
	Op   Opcode
	Dst  Reg
	Src  Reg
	Src2 Reg
	Col  int // source column index, when the instruction reads a column
	Slot int // index into the caller-supplied filter-value slice
	Imm  int64
}

// Program is a flat, append-only sequence of instructions. Execution
// parameters that are not instructions themselves (filter-value slot
// count, output register, output stride) live alongside it in a
// planner.QueryPlan rather than on Program, mirroring the split between
// bytecode and InterpreterSpec upstream.
type Program struct {
	Instrs []Instruction
}

func (p *Program) append(i Instruction) Reg {
	p.Instrs = append(p.Instrs, i)
	return i.Dst
}

// InitRange emits InitRange: dst := [0, n).
func (p *Program) InitRange(dst Reg, n int) {
	p.append(Instruction{Op: OpInitRange, Dst: dst, Imm: int64(n)})
}

// AllocateIndices emits AllocateIndices: dst := an empty index buffer with
// capacity n.
func (p *Program) AllocateIndices(dst Reg, capacity int) {
	p.append(Instruction{Op: OpAllocateIndices, Dst: dst, Imm: int64(capacity)})
}

// Iota emits Iota: dst[i] := src[i] materialized as a dense index list
// (identity pass-through when src is a Range, or densified otherwise).
func (p *Program) Iota(dst, src Reg) {
	p.append(Instruction{Op: OpIota, Dst: dst, Src: src})
}

// CastFilterValue emits CastFilterValue<T>: dst := the typed cast result
// (Valid/NoneMatch/AllMatch) of slot-th caller value against the type of
// column col.
func (p *Program) CastFilterValue(dst Reg, t TypeIndex, col, slot int, op CmpOp) {
	p.append(Instruction{Op: CastFilterValueOpcode(t), Dst: dst, Col: col, Slot: slot, Imm: int64(op)})
}

// SortedFilter emits SortedFilter<T, Mode>: dst := the index subrange of
// src narrowed by binary search against column col's sorted storage.
func (p *Program) SortedFilter(dst, src Reg, t TypeIndex, mode SortMode, col int, valueReg Reg) {
	p.append(Instruction{Op: SortedFilterOpcode(t, mode), Dst: dst, Src: src, Src2: valueReg, Col: col})
}

// Uint32SetIdSortedEq emits the dedicated fast path for an equality filter
// against a SetIdSorted Uint32/Id column.
func (p *Program) Uint32SetIdSortedEq(dst, src Reg, col int, valueReg Reg) {
	p.append(Instruction{Op: OpUint32SetIdSortedEq, Dst: dst, Src: src, Src2: valueReg, Col: col})
}

// NonStringFilter emits NonStringFilter<T, Op>: dst := the subset of src
// whose column col value satisfies op against valueReg.
func (p *Program) NonStringFilter(dst, src Reg, t TypeIndex, op CmpOp, col int, valueReg Reg) {
	p.append(Instruction{Op: NonStringFilterOpcode(t, op), Dst: dst, Src: src, Src2: valueReg, Col: col})
}

// StringFilter emits StringFilter<Op>: dst := the subset of src whose
// column col string value satisfies op. For an ordinary comparison
// operator, arg is the register holding the CastFilterValue result; for
// Glob and Regex, arg is the pattern slot index into the Patterns table
// the interpreter was given (there is no cast involved, so no register).
func (p *Program) StringFilter(dst, src Reg, op StringOp, col int, arg int) {
	instr := Instruction{Op: StringFilterOpcode(op), Dst: dst, Src: src, Col: col}
	if op == StrGlob || op == StrRegex {
		instr.Slot = arg
	} else {
		instr.Src2 = Reg(arg)
	}
	p.append(instr)
}

// NullFilter emits NullFilter(IsNull|IsNotNull): dst := the subset of src
// whose column col presence bit matches wantNull.
func (p *Program) NullFilter(dst, src Reg, col int, wantNull bool) {
	op := Opcode(OpNullFilterIsNotNull)
	if wantNull {
		op = OpNullFilterIsNull
	}
	p.append(Instruction{Op: op, Dst: dst, Src: src, Col: col})
}

// PrefixPopcount emits PrefixPopcount: dst := the presence bitvector's
// prefix-popcount table for column col, cached for reuse across
// instructions that translate into its sparse storage.
func (p *Program) PrefixPopcount(dst Reg, col int) {
	p.append(Instruction{Op: OpPrefixPopcount, Dst: dst, Col: col})
}

// TranslateSparseNullIndices emits TranslateSparseNullIndices: dst :=
// src's row indices rewritten into column col's compacted SparseNull
// storage indices, using the prefix-popcount table in popcountReg.
func (p *Program) TranslateSparseNullIndices(dst, src Reg, col int, popcountReg Reg) {
	p.append(Instruction{Op: OpTranslateSparseNullIndices, Dst: dst, Src: src, Col: col, Src2: popcountReg})
}

// StrideCopy emits StrideCopy: copies src's values for column col into the
// output buffer at the given stride and offset.
func (p *Program) StrideCopy(src Reg, col, stride, offset int) {
	p.append(Instruction{Op: OpStrideCopy, Src: src, Col: col, Imm: int64(stride), Slot: offset})
}

// StrideTranslateAndCopySparseNullIndices emits the fused
// translate-then-copy fast path used when emitting an output column that
// is both SparseNull and feeding a strided cell layout.
func (p *Program) StrideTranslateAndCopySparseNullIndices(src Reg, col, stride, offset int, popcountReg Reg) {
	p.append(Instruction{Op: OpStrideTranslateAndCopySparseNullIndices, Src: src, Src2: popcountReg, Col: col, Imm: int64(stride), Slot: offset})
}

// StrideCopyDenseNullIndices emits the output path for a DenseNull column:
// copies presence bits alongside values at the given stride and offset.
func (p *Program) StrideCopyDenseNullIndices(src Reg, col, stride, offset int) {
	p.append(Instruction{Op: OpStrideCopyDenseNullIndices, Src: src, Col: col, Imm: int64(stride), Slot: offset})
}
