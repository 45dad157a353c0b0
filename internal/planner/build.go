package planner

import (
	"fmt"

	"tracedf/internal/bytecode"
	"tracedf/internal/config"
	"tracedf/internal/dferr"
	"tracedf/internal/storage"
)

// ExecutionParams is everything about running a Program that is not
// itself an instruction: how many filter-value slots the interpreter's
// fetcher must answer for, which register holds the final row selection,
// and the strided output layout.
type ExecutionParams struct {
	FilterValueCount  int
	OutputRegister    bytecode.Reg
	ColToOutputOffset map[int]int
	OutputPerRow      int
}

// QueryPlan pairs a compiled Program with the parameters needed to run
// and read it -- the unit plan serialization round-trips and Cursor
// consumes.
type QueryPlan struct {
	Program *bytecode.Program
	Params  ExecutionParams
}

// regAllocator hands out monotonically increasing register numbers;
// every register is written by exactly one instruction (single static
// assignment), so the interpreter can size its frame from instruction
// count alone.
type regAllocator struct{ next bytecode.Reg }

func (a *regAllocator) alloc() bytecode.Reg {
	r := a.next
	a.next++
	return r
}

// Build compiles specs and outputs using the default planner cost model.
// See BuildWithConfig for callers that want to supply a tuned
// config.PlannerConfig (e.g. loaded from a TOML file).
func Build(rowCount int, columns []storage.Column, specs []FilterSpec, outputs []OutputSpec) (*QueryPlan, error) {
	return BuildWithConfig(config.Default().Planner, rowCount, columns, specs, outputs)
}

// BuildWithConfig compiles specs (reordered by preferenceScore under cfg)
// and outputs into a QueryPlan over rowCount rows of columns. Returns a
// *dferr.PlanError if specs exceeds MaxFilters or references an
// out-of-range column.
func BuildWithConfig(cfg config.PlannerConfig, rowCount int, columns []storage.Column, specs []FilterSpec, outputs []OutputSpec) (*QueryPlan, error) {
	if len(specs) > MaxFilters {
		return nil, &dferr.PlanError{Reason: fmt.Sprintf("too many filters: %d > %d", len(specs), MaxFilters)}
	}
	for _, s := range specs {
		if s.Column < 0 || s.Column >= len(columns) {
			return nil, &dferr.PlanError{Reason: fmt.Sprintf("filter references out-of-range column %d", s.Column)}
		}
	}
	for _, o := range outputs {
		if o.Column < 0 || o.Column >= len(columns) {
			return nil, &dferr.PlanError{Reason: fmt.Sprintf("output references out-of-range column %d", o.Column)}
		}
	}

	p := &bytecode.Program{}
	var alloc regAllocator

	cur := alloc.alloc()
	p.InitRange(cur, rowCount)
	curIsRange := true

	maxSlot := -1
	ordered := orderFilters(columns, specs, cfg)
	for _, f := range ordered {
		col := columns[f.Column]
		if f.ValueSlot > maxSlot {
			maxSlot = f.ValueSlot
		}

		switch f.Op {
		case FilterIsNull, FilterIsNotNull:
			cur = densify(p, &alloc, cur, curIsRange)
			dst := alloc.alloc()
			p.NullFilter(dst, cur, f.Column, f.Op == FilterIsNull)
			cur, curIsRange = dst, false
			continue
		case FilterGlob, FilterRegex:
			cur = densify(p, &alloc, cur, curIsRange)
			dst := alloc.alloc()
			p.StringFilter(dst, cur, f.Op.stringOp(), f.Column, f.PatternSlot)
			cur, curIsRange = dst, false
			continue
		}

		if col.Spec.Kind == storage.KindString {
			castReg := alloc.alloc()
			t, _ := bytecode.KindToTypeIndex(uint8(col.Spec.Kind))
			p.CastFilterValue(castReg, t, f.Column, f.ValueSlot, f.Op.cmpOp())
			if curIsRange && col.Spec.Sort == storage.Sorted && isSortedFilterEligible(f.Op) {
				dst := alloc.alloc()
				p.SortedFilter(dst, cur, t, sortedModeFor(f.Op), f.Column, castReg)
				cur, curIsRange = dst, true
				continue
			}
			cur = densify(p, &alloc, cur, curIsRange)
			dst := alloc.alloc()
			p.StringFilter(dst, cur, f.Op.stringOp(), f.Column, int(castReg))
			cur, curIsRange = dst, false
			continue
		}

		// Numeric (including Id) column.
		t, ok := bytecode.KindToTypeIndex(uint8(col.Spec.Kind))
		if !ok {
			t = bytecode.TypeUint32 // Id: treated as an unsigned row index for casting
		}
		castReg := alloc.alloc()
		p.CastFilterValue(castReg, t, f.Column, f.ValueSlot, f.Op.cmpOp())

		if curIsRange && col.Spec.Sort == storage.SetIdSorted && f.Op == FilterEq {
			dst := alloc.alloc()
			p.Uint32SetIdSortedEq(dst, cur, f.Column, castReg)
			cur, curIsRange = dst, true
			continue
		}
		if curIsRange && col.Spec.Sort == storage.Sorted && isSortedFilterEligible(f.Op) {
			dst := alloc.alloc()
			p.SortedFilter(dst, cur, t, sortedModeFor(f.Op), f.Column, castReg)
			cur, curIsRange = dst, true
			continue
		}
		cur = densify(p, &alloc, cur, curIsRange)
		dst := alloc.alloc()
		p.NonStringFilter(dst, cur, t, f.Op.cmpOp(), f.Column, castReg)
		cur, curIsRange = dst, false
	}

	// The final selection always lands in a dedicated register, densified
	// to an explicit index list: Cursor and the StrideCopy family both
	// expect to walk a concrete row list, never a bare Range.
	selected := alloc.alloc()
	p.Iota(selected, cur)

	offsets := make(map[int]int, len(outputs))
	popcountRegs := make(map[int]bytecode.Reg)
	for _, o := range outputs {
		offsets[o.Column] = o.Offset
		col := columns[o.Column]
		if col.Overlay.Kind == storage.SparseNull {
			r := alloc.alloc()
			p.PrefixPopcount(r, o.Column)
			popcountRegs[o.Column] = r
		}
	}
	stride := len(outputs)
	for _, o := range outputs {
		col := columns[o.Column]
		switch col.Overlay.Kind {
		case storage.NonNull:
			p.StrideCopy(selected, o.Column, stride, o.Offset)
		case storage.SparseNull:
			p.StrideTranslateAndCopySparseNullIndices(selected, o.Column, stride, o.Offset, popcountRegs[o.Column])
		case storage.DenseNull:
			p.StrideCopyDenseNullIndices(selected, o.Column, stride, o.Offset)
		}
	}

	return &QueryPlan{
		Program: p,
		Params: ExecutionParams{
			FilterValueCount:  maxSlot + 1,
			OutputRegister:    selected,
			ColToOutputOffset: offsets,
			OutputPerRow:      stride,
		},
	}, nil
}

// densify ensures cur refers to an explicit index list rather than a
// Range, emitting an Iota only when necessary.
func densify(p *bytecode.Program, alloc *regAllocator, cur bytecode.Reg, curIsRange bool) bytecode.Reg {
	if !curIsRange {
		return cur
	}
	dst := alloc.alloc()
	p.Iota(dst, cur)
	return dst
}

func isSortedFilterEligible(op FilterOpKind) bool {
	switch op {
	case FilterEq, FilterLt, FilterLe, FilterGt, FilterGe:
		return true
	default:
		return false
	}
}

func sortedModeFor(op FilterOpKind) bytecode.SortMode {
	switch op {
	case FilterEq:
		return bytecode.ModeEq
	case FilterLt:
		return bytecode.ModeLt
	case FilterLe:
		return bytecode.ModeLe
	case FilterGt:
		return bytecode.ModeGt
	default: // Ge
		return bytecode.ModeGe
	}
}
