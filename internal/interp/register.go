// Package interp executes a bytecode.Program against a dataframe: a
// register file holds intermediate index sets and cast results, and one
// handler per opcode family threads rows through filters down to a final
// index list (or contiguous range) ready for the cursor to walk.
package interp

import "tracedf/internal/bytecode"

// RegKind discriminates what a Register currently holds. Like
// storage.Storage, this is a tagged union dispatched by switch, never by
// interface, to keep the interpreter's inner loop allocation-free.
type RegKind uint8

const (
	RegRange RegKind = iota
	RegIndices
	RegCast
	RegPopcount
)

// Range is a half-open, contiguous row-index interval. Most programs start
// and often end here: a plain InitRange with no filters applied stays a
// Range all the way to the cursor.
type Range struct {
	Lo, Hi uint32
}

// Len reports the number of indices the range covers.
func (r Range) Len() int { return int(r.Hi) - int(r.Lo) }

// CastStatus is the outcome of CastFilterValue.
type CastStatus uint8

const (
	// CastValid means the filter value was successfully cast to the
	// column's representation; Int64/Double/Str holds the cast value.
	CastValid CastStatus = iota
	// CastNoneMatch means no row can satisfy the comparison regardless of
	// its value (e.g. the filter value is out of the column type's
	// representable range in the direction the operator requires).
	CastNoneMatch
	// CastAllMatch means every row satisfies the comparison regardless of
	// its value (the mirror image of CastNoneMatch).
	CastAllMatch
)

// CastResult is the value a CastFilterValue<T> instruction writes.
type CastResult struct {
	Status CastStatus
	Int64  int64
	Double float64
	Str    string
}

// Register holds one interpreter value. Exactly one field group is live,
// selected by Kind.
type Register struct {
	Kind     RegKind
	Range    Range
	Indices  []uint32
	Cast     CastResult
	Popcount []uint32
}

// Frame is the register file a single program execution runs against.
type Frame struct {
	regs []Register
}

// NewFrame allocates a frame with n registers, sized from the program's
// instruction count (an upper bound on distinct destinations).
func NewFrame(n int) *Frame {
	return &Frame{regs: make([]Register, n)}
}

func (f *Frame) SetRange(r bytecode.Reg, v Range) {
	f.regs[r] = Register{Kind: RegRange, Range: v}
}

func (f *Frame) SetIndices(r bytecode.Reg, v []uint32) {
	f.regs[r] = Register{Kind: RegIndices, Indices: v}
}

func (f *Frame) SetCast(r bytecode.Reg, v CastResult) {
	f.regs[r] = Register{Kind: RegCast, Cast: v}
}

func (f *Frame) SetPopcount(r bytecode.Reg, v []uint32) {
	f.regs[r] = Register{Kind: RegPopcount, Popcount: v}
}

func (f *Frame) Get(r bytecode.Reg) Register { return f.regs[r] }

func (f *Frame) Cast(r bytecode.Reg) CastResult { return f.regs[r].Cast }

func (f *Frame) Popcount(r bytecode.Reg) []uint32 { return f.regs[r].Popcount }

// Indices densifies register r into an explicit row-index slice, expanding
// a Range in place. Callers that can consume a Range directly (the cursor,
// SortedFilter's binary search) should prefer reading Kind themselves to
// avoid this allocation.
func (f *Frame) Indices(r bytecode.Reg) []uint32 {
	reg := f.regs[r]
	switch reg.Kind {
	case RegRange:
		out := make([]uint32, reg.Range.Len())
		for i := range out {
			out[i] = reg.Range.Lo + uint32(i)
		}
		return out
	case RegIndices:
		return reg.Indices
	default:
		panic("interp: register does not hold an index set")
	}
}

// Len reports how many rows register r currently represents, without
// densifying a Range.
func (f *Frame) Len(r bytecode.Reg) int {
	reg := f.regs[r]
	switch reg.Kind {
	case RegRange:
		return reg.Range.Len()
	case RegIndices:
		return len(reg.Indices)
	default:
		panic("interp: register does not hold an index set")
	}
}
