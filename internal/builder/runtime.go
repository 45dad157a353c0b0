package builder

import (
	"fmt"

	"tracedf/internal/dataframe"
	"tracedf/internal/dferr"
	"tracedf/internal/fetch"
	"tracedf/internal/storage"
	"tracedf/internal/stringpool"
)

// RuntimeDataframeBuilder accepts rows one at a time through a
// caller-supplied fetch.Fetcher. The type of each column is inferred from
// its first non-null value; later pushes of an incompatible type set a
// sticky error, after which every further call fails fast. Nullable
// columns are always finalized Dense: the builder keeps a placeholder slot
// for every row as it goes, so there is no extra pass needed to choose
// Sparse at Build() time.
type RuntimeDataframeBuilder struct {
	pool       *stringpool.StringPool
	columnName []string
	columns    []*rawColumn
	rowCount   int
	status     error
	finalized  bool
}

// NewRuntimeDataframeBuilder returns a builder for the given column names,
// in declaration order. If pool is nil, a private pool is created.
func NewRuntimeDataframeBuilder(columnNames []string, pool *stringpool.StringPool) *RuntimeDataframeBuilder {
	if pool == nil {
		pool = stringpool.New()
	}
	b := &RuntimeDataframeBuilder{pool: pool, columnName: columnNames}
	for _, name := range columnNames {
		b.columns = append(b.columns, newRawColumn(name))
	}
	return b
}

// Status returns the sticky error, if any has been set. It remains
// readable after the builder is consumed by Build().
func (b *RuntimeDataframeBuilder) Status() error { return b.status }

// AddRow pushes one row's worth of values, one per declared column, read
// from values by column index. It returns the sticky status (setting it
// first, if this call is what triggers it).
func (b *RuntimeDataframeBuilder) AddRow(values fetch.Fetcher) error {
	if b.status != nil {
		return b.status
	}
	if b.finalized {
		return fmt.Errorf("dataframe builder: AddRow called after Build()")
	}

	for i, raw := range b.columns {
		switch values.ValueType(i) {
		case fetch.NullType:
			raw.markNull()
			raw.pushNullPlaceholder()
		case fetch.Int64Type:
			if err := b.pushInt64(raw, values.Int64(i)); err != nil {
				b.status = err
				return err
			}
			raw.markPresent()
		case fetch.DoubleType:
			if err := b.pushDouble(raw, values.Double(i)); err != nil {
				b.status = err
				return err
			}
			raw.markPresent()
		case fetch.StringType:
			if err := b.pushString(raw, values.String(i)); err != nil {
				b.status = err
				return err
			}
			raw.markPresent()
		}
	}
	b.rowCount++
	return nil
}

func (b *RuntimeDataframeBuilder) pushInt64(raw *rawColumn, v int64) error {
	switch raw.kind {
	case unknownKind:
		raw.setKindIfUnknown(int64Kind, raw.rows)
		raw.pushInt64(b.pool, v)
	case int64Kind:
		raw.pushInt64(b.pool, v)
	case doubleKind:
		fv, err := acceptInt64IntoDoubleColumn(raw, v, b.rowCount)
		if err != nil {
			return err
		}
		raw.pushDouble(fv)
	case stringKind:
		return &dferr.BuildError{Column: raw.name, Row: b.rowCount, Reason: "expected string, got int64"}
	}
	return nil
}

func (b *RuntimeDataframeBuilder) pushDouble(raw *rawColumn, v float64) error {
	switch raw.kind {
	case unknownKind:
		raw.setKindIfUnknown(doubleKind, raw.rows)
		raw.pushDouble(v)
	case doubleKind:
		raw.pushDouble(v)
	case int64Kind:
		if err := coerceColumnToDouble(raw, b.rowCount); err != nil {
			return err
		}
		raw.pushDouble(v)
	case stringKind:
		return &dferr.BuildError{Column: raw.name, Row: b.rowCount, Reason: "expected string, got double"}
	}
	return nil
}

func (b *RuntimeDataframeBuilder) pushString(raw *rawColumn, v string) error {
	switch raw.kind {
	case unknownKind:
		raw.setKindIfUnknown(stringKind, raw.rows)
	case stringKind:
		// already the right kind
	default:
		return &dferr.BuildError{Column: raw.name, Row: b.rowCount, Reason: "expected numeric, got string"}
	}
	_, err := raw.pushString(b.pool, v)
	return err
}

// Build finalizes every column and returns the immutable dataframe. After
// Build, the builder is consumed: further AddRow calls fail, but Status()
// remains readable.
func (b *RuntimeDataframeBuilder) Build() (*dataframe.Dataframe, error) {
	if b.status != nil {
		return nil, b.status
	}
	b.finalized = true

	cols := make([]storage.Column, 0, len(b.columns))
	for _, raw := range b.columns {
		cols = append(cols, finalizeColumn(raw, b.rowCount, defaultDense, b.pool))
	}
	return dataframe.New(b.pool, cols, b.rowCount), nil
}
