// Package builder implements the two DataframeBuilder shapes -- runtime
// (row-oriented, type-inferring) and adhoc (column-oriented, caller
// declares types up front) -- that both finalize into an immutable
// dataframe plus a column spec, picking the optimal physical
// representation for each column.
package builder

import (
	"tracedf/internal/container"
	"tracedf/internal/stringpool"
)

// inferredKind tracks what a column's logical type has settled to while
// rows are still arriving, before finalize() picks a concrete storage.Kind.
type inferredKind uint8

const (
	unknownKind inferredKind = iota
	int64Kind
	doubleKind
	stringKind
)

// rawColumn accumulates one column's values during building, independent of
// whether they arrive row-by-row (runtime) or column-by-column (adhoc). It
// always stores a dense, placeholder-bearing representation; finalize()
// decides whether the resulting overlay should be Sparse or Dense.
type rawColumn struct {
	name string
	kind inferredKind

	i64 *container.FlexVector[int64]
	f64 *container.FlexVector[float64]
	str *container.FlexVector[stringpool.Id]

	// nulls is created lazily on the first null value pushed into this
	// column; until then every row is implicitly non-null.
	nulls *container.BitVector
	rows  int // rows pushed so far, i.e. nulls' required length once created
}

func newRawColumn(name string) *rawColumn {
	return &rawColumn{name: name}
}

// setKindIfUnknown fixes the column's inferred type on its first non-null
// value and backfills priorRows zero placeholders so the typed slice stays
// aligned 1:1 with row position from then on. A no-op once kind is known.
func (c *rawColumn) setKindIfUnknown(k inferredKind, priorRows int) {
	if c.kind != unknownKind {
		return
	}
	c.kind = k
	switch k {
	case int64Kind:
		c.i64 = container.NewFlexVectorWithCapacity[int64](priorRows + 1)
		for i := 0; i < priorRows; i++ {
			c.i64.PushBack(0)
		}
	case doubleKind:
		c.f64 = container.NewFlexVectorWithCapacity[float64](priorRows + 1)
		for i := 0; i < priorRows; i++ {
			c.f64.PushBack(0)
		}
	case stringKind:
		c.str = container.NewFlexVectorWithCapacity[stringpool.Id](priorRows + 1)
		for i := 0; i < priorRows; i++ {
			c.str.PushBack(stringpool.NullId)
		}
	}
}

func (c *rawColumn) ensureNulls() {
	if c.nulls != nil {
		return
	}
	c.nulls = container.NewBitVectorOfSize(c.rows)
	for i := 0; i < c.rows; i++ {
		c.nulls.Set(i)
	}
}

func (c *rawColumn) markNull() {
	c.ensureNulls()
	c.nulls.PushBack(false)
	c.rows++
}

func (c *rawColumn) markPresent() {
	if c.nulls != nil {
		c.nulls.PushBack(true)
	}
	c.rows++
}

func (c *rawColumn) pushInt64(pool *stringpool.StringPool, v int64) {
	if c.i64 == nil {
		c.i64 = container.NewFlexVector[int64]()
	}
	c.i64.PushBack(v)
}

func (c *rawColumn) pushDouble(v float64) {
	if c.f64 == nil {
		c.f64 = container.NewFlexVector[float64]()
	}
	c.f64.PushBack(v)
}

func (c *rawColumn) pushString(pool *stringpool.StringPool, v string) (stringpool.Id, error) {
	if c.str == nil {
		c.str = container.NewFlexVector[stringpool.Id]()
	}
	id, err := pool.Intern([]byte(v))
	if err != nil {
		return 0, err
	}
	c.str.PushBack(id)
	return id, nil
}

// pushNullPlaceholder appends a zero-value placeholder into whichever
// typed slice is active, so dense storage always has one slot per row.
func (c *rawColumn) pushNullPlaceholder() {
	switch c.kind {
	case int64Kind:
		c.i64.PushBack(0)
	case doubleKind:
		c.f64.PushBack(0)
	case stringKind:
		c.str.PushBack(stringpool.NullId)
	}
}
