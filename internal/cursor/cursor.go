// Package cursor provides forward iteration over a query's materialized
// output rows. A Cursor is the read side of a planner.QueryPlan run
// through interp.Interpreter: Next moves to the next row, Eof reports
// exhaustion, and Cell reads one column's value at the current row.
package cursor

import (
	"tracedf/internal/interp"
	"tracedf/internal/planner"
)

// Cursor walks the strided output buffer an interp.Result carries,
// translating a caller-facing column index to its slot via the plan's
// ColToOutputOffset. Unlike the original engine's Cursor, which defers
// cell extraction to a per-access visitor callback switched on column
// type, this engine's StrideCopy family already materializes a typed
// interp.Cell per output slot during Run; Cell here is therefore a plain
// buffer index, not a visitor dispatch -- consistent with this engine's
// tagged-union-over-interface choice throughout (storage.Storage,
// interp.Register).
type Cursor struct {
	output *interp.Output
	offset map[int]int
	row    int
}

// New returns a Cursor over result's materialized output, using plan's
// execution parameters to locate each column's output slot. Panics if
// result carries no Output: Next/Eof/Cell require a plan with at least
// one OutputSpec, the same precondition the original enforces via an
// always-inline unconditional Span read.
func New(plan *planner.QueryPlan, result *interp.Result) *Cursor {
	if result.Output == nil {
		panic("cursor: query plan produced no output -- Build must include at least one OutputSpec")
	}
	return &Cursor{output: result.Output, offset: plan.Params.ColToOutputOffset}
}

// Eof reports whether the cursor has consumed every output row.
func (c *Cursor) Eof() bool {
	return c.row >= c.output.Rows
}

// Next advances the cursor to the next output row. Precondition: !Eof().
func (c *Cursor) Next() {
	if c.Eof() {
		panic("cursor: Next called past end of results")
	}
	c.row++
}

// Cell returns the value of column col at the cursor's current row.
// Precondition: !Eof() and col was included in the OutputSpec list used
// to Build the plan this cursor was constructed from.
func (c *Cursor) Cell(col int) interp.Cell {
	if c.Eof() {
		panic("cursor: Cell called past end of results")
	}
	slot, ok := c.offset[col]
	if !ok {
		panic("cursor: column was not requested as an output when the plan was built")
	}
	return c.output.Buf[c.row*c.output.Stride+slot]
}
