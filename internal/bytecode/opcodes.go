// Package bytecode defines the register-based instruction set the
// interpreter executes. Opcodes parameterized by a (column-type, operator)
// pair are flattened into a dense, arithmetically-addressable range rather
// than enumerated one member at a time, so the interpreter's dispatch is a
// single array index instead of a nested type switch. Each family's base
// number is computed from the sizes of the dimensions laid out before it,
// so adding a column kind, comparison operator, sort mode, or string
// operator, even at the end of its dimension, shifts the numbers of every
// family laid out after the first one that uses that dimension. Serialized
// plans store raw opcode numbers, so they decode correctly only under the
// enumeration that produced them.
package bytecode

// Opcode is a fixed-size instruction discriminant.
type Opcode uint16

// Fixed, non-templated opcodes.
const (
	OpInitRange Opcode = iota
	OpAllocateIndices
	OpIota
	OpUint32SetIdSortedEq
	OpPrefixPopcount
	OpTranslateSparseNullIndices
	OpStrideCopy
	OpStrideTranslateAndCopySparseNullIndices
	OpStrideCopyDenseNullIndices
	opFixedCount // first opcode number available to the templated families
)

// TypeIndex enumerates the column-type dimension of templated opcodes.
// Uint32, Int32, Int64, Double must remain the first four entries: the
// NonStringFilter family only covers non-string types and relies on that
// ordering.
type TypeIndex uint8

const (
	TypeUint32 TypeIndex = iota
	TypeInt32
	TypeInt64
	TypeDouble
	TypeString
	numTypes
)

const numNonStringTypes = TypeIndex(4)

// CmpOp enumerates the operator dimension for NonStringFilter.
type CmpOp uint8

const (
	CmpEq CmpOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
	numCmpOps
)

// StringOp enumerates the operator dimension for StringFilter, which
// additionally supports Glob and Regex.
type StringOp uint8

const (
	StrEq StringOp = iota
	StrNe
	StrLt
	StrLe
	StrGt
	StrGe
	StrGlob
	StrRegex
	numStringOps
)

// SortMode enumerates the narrowing behavior of SortedFilter, one per
// comparison operator that admits a binary-search implementation (every
// CmpOp except Ne, which cannot narrow a contiguous range).
type SortMode uint8

const (
	ModeEq SortMode = iota
	ModeLt
	ModeLe
	ModeGt
	ModeGe
	numSortModes
)

// Family base offsets, assigned in append order immediately after the
// fixed opcode block.
const (
	castFilterValueBase = Opcode(opFixedCount)
	nonStringFilterBase = castFilterValueBase + Opcode(numTypes)
	stringFilterBase    = nonStringFilterBase + Opcode(numNonStringTypes)*Opcode(numCmpOps)
	sortedFilterBase    = stringFilterBase + Opcode(numStringOps)
	nullFilterBase      = sortedFilterBase + Opcode(numTypes)*Opcode(numSortModes)

	OpNullFilterIsNull    = nullFilterBase
	OpNullFilterIsNotNull = nullFilterBase + 1

	opcodeCount = nullFilterBase + 2
)

// CastFilterValueOpcode returns the CastFilterValue<T> opcode for target
// type t.
func CastFilterValueOpcode(t TypeIndex) Opcode { return castFilterValueBase + Opcode(t) }

// DecodeCastFilterValue is the inverse of CastFilterValueOpcode.
func DecodeCastFilterValue(op Opcode) (TypeIndex, bool) {
	if op < castFilterValueBase || op >= castFilterValueBase+Opcode(numTypes) {
		return 0, false
	}
	return TypeIndex(op - castFilterValueBase), true
}

// NonStringFilterOpcode returns the NonStringFilter<T, Op> opcode for
// non-string type t and comparison op.
func NonStringFilterOpcode(t TypeIndex, op CmpOp) Opcode {
	return nonStringFilterBase + Opcode(t)*Opcode(numCmpOps) + Opcode(op)
}

// DecodeNonStringFilter is the inverse of NonStringFilterOpcode.
func DecodeNonStringFilter(op Opcode) (TypeIndex, CmpOp, bool) {
	if op < nonStringFilterBase || op >= nonStringFilterBase+Opcode(numNonStringTypes)*Opcode(numCmpOps) {
		return 0, 0, false
	}
	idx := op - nonStringFilterBase
	return TypeIndex(idx / Opcode(numCmpOps)), CmpOp(idx % Opcode(numCmpOps)), true
}

// StringFilterOpcode returns the StringFilter<Op> opcode.
func StringFilterOpcode(op StringOp) Opcode { return stringFilterBase + Opcode(op) }

// DecodeStringFilter is the inverse of StringFilterOpcode.
func DecodeStringFilter(op Opcode) (StringOp, bool) {
	if op < stringFilterBase || op >= stringFilterBase+Opcode(numStringOps) {
		return 0, false
	}
	return StringOp(op - stringFilterBase), true
}

// SortedFilterOpcode returns the SortedFilter<T, Mode> opcode.
func SortedFilterOpcode(t TypeIndex, mode SortMode) Opcode {
	return sortedFilterBase + Opcode(t)*Opcode(numSortModes) + Opcode(mode)
}

// DecodeSortedFilter is the inverse of SortedFilterOpcode.
func DecodeSortedFilter(op Opcode) (TypeIndex, SortMode, bool) {
	if op < sortedFilterBase || op >= sortedFilterBase+Opcode(numTypes)*Opcode(numSortModes) {
		return 0, 0, false
	}
	idx := op - sortedFilterBase
	return TypeIndex(idx / Opcode(numSortModes)), SortMode(idx % Opcode(numSortModes)), true
}

// KindToTypeIndex maps a storage.Kind-shaped value (passed as the small int
// already used by callers to avoid an import cycle with package storage)
// to its TypeIndex. Callers pass storage.Kind values directly; the
// constants below mirror storage.Kind's own ordering for Uint32..String.
func KindToTypeIndex(kind uint8) (TypeIndex, bool) {
	switch kind {
	case 1: // storage.KindUint32
		return TypeUint32, true
	case 2: // storage.KindInt32
		return TypeInt32, true
	case 3: // storage.KindInt64
		return TypeInt64, true
	case 4: // storage.KindDouble
		return TypeDouble, true
	case 5: // storage.KindString
		return TypeString, true
	default:
		return 0, false
	}
}
