package builder

import (
	"fmt"

	"tracedf/internal/dataframe"
	"tracedf/internal/dferr"
	"tracedf/internal/storage"
	"tracedf/internal/stringpool"
)

// ColumnDecl declares one column of an AdhocDataframeBuilder up front. Kind
// is optional: nil means the column's type is inferred from its first
// pushed value, exactly like the runtime builder.
type ColumnDecl struct {
	Name           string
	Kind           *storage.Kind
	Nullable       bool
	OverlayDefault storage.OverlayKind // consulted only if Nullable
}

// AdhocDataframeBuilder accepts values column-by-column: the caller
// explicitly declares column names, optional types, and default
// nullability, then pushes runs of non-null or null values per column.
// Repeated identical values may be folded into a single push via count.
type AdhocDataframeBuilder struct {
	pool    *stringpool.StringPool
	decls   []ColumnDecl
	columns []*rawColumn
	status  error
	dup     []*duplicateDetector
}

// NewAdhocDataframeBuilder returns a builder for the declared columns. If
// pool is nil, a private pool is created.
func NewAdhocDataframeBuilder(decls []ColumnDecl, pool *stringpool.StringPool) *AdhocDataframeBuilder {
	if pool == nil {
		pool = stringpool.New()
	}
	b := &AdhocDataframeBuilder{pool: pool, decls: decls}
	for _, d := range decls {
		raw := newRawColumn(d.Name)
		if d.Kind != nil {
			raw.setKindIfUnknown(kindToInferred(*d.Kind), 0)
		}
		b.columns = append(b.columns, raw)
		b.dup = append(b.dup, nil) // lazily created in PushNonNull
	}
	return b
}

func kindToInferred(k storage.Kind) inferredKind {
	switch k {
	case storage.KindString:
		return stringKind
	case storage.KindDouble:
		return doubleKind
	default:
		return int64Kind
	}
}

// Status returns the sticky error, if any.
func (b *AdhocDataframeBuilder) Status() error { return b.status }

// MaybeHasDuplicates reports the duplicate-detection filter's verdict for
// an int64 column: false is a proof the column has no duplicate values,
// true is only a suspicion. Columns of other kinds, or that never received
// an int64 value through the checked push path, always report true
// (unknown, so no claim of uniqueness can be made).
func (b *AdhocDataframeBuilder) MaybeHasDuplicates(col int) bool {
	d := b.dup[col]
	if d == nil {
		return true
	}
	return d.MaybeHasDuplicates()
}

func (b *AdhocDataframeBuilder) observeForDuplicates(col int, raw *rawColumn, v int64) {
	if b.dup[col] == nil {
		b.dup[col] = newDuplicateDetector(raw.rows + 16)
	}
	d := b.dup[col]
	if v < 0 || v >= int64(d.size) {
		d.maybeDup = true // outside the gate: uniqueness cannot be proven
		return
	}
	d.observe(uint64(v))
}

// PushNonNull appends count copies of value (an int64, float64, or string)
// to column col, validating the value against the column's declared or
// already-inferred type and applying the int64<->double coercion rule
// where applicable.
func (b *AdhocDataframeBuilder) PushNonNull(col int, value any, count int) error {
	if b.status != nil {
		return b.status
	}
	raw := b.columns[col]
	for i := 0; i < count; i++ {
		if err := b.pushOne(col, raw, value); err != nil {
			b.status = err
			return err
		}
		raw.markPresent()
	}
	return nil
}

// PushNonNullUnchecked is the fast path: the caller has already established
// the column's type (via declaration or a prior checked push) and
// guarantees value matches it exactly, skipping validation and coercion.
func (b *AdhocDataframeBuilder) PushNonNullUnchecked(col int, value any, count int) {
	raw := b.columns[col]
	for i := 0; i < count; i++ {
		switch v := value.(type) {
		case int64:
			raw.pushInt64(b.pool, v)
		case float64:
			raw.pushDouble(v)
		case string:
			_, _ = raw.pushString(b.pool, v)
		}
		raw.markPresent()
	}
}

// PushNull appends count null values to column col.
func (b *AdhocDataframeBuilder) PushNull(col int, count int) error {
	if b.status != nil {
		return b.status
	}
	if !b.decls[col].Nullable {
		err := &dferr.BuildError{Column: b.decls[col].Name, Row: -1, Reason: "column is not nullable"}
		b.status = err
		return err
	}
	raw := b.columns[col]
	for i := 0; i < count; i++ {
		raw.markNull()
		raw.pushNullPlaceholder()
	}
	return nil
}

func (b *AdhocDataframeBuilder) pushOne(col int, raw *rawColumn, value any) error {
	switch v := value.(type) {
	case int64:
		switch raw.kind {
		case unknownKind:
			raw.setKindIfUnknown(int64Kind, raw.rows)
			raw.pushInt64(b.pool, v)
			b.observeForDuplicates(col, raw, v)
		case int64Kind:
			raw.pushInt64(b.pool, v)
			b.observeForDuplicates(col, raw, v)
		case doubleKind:
			fv, err := acceptInt64IntoDoubleColumn(raw, v, raw.rows)
			if err != nil {
				return err
			}
			raw.pushDouble(fv)
		default:
			return &dferr.BuildError{Column: raw.name, Row: raw.rows, Reason: "expected string, got int64"}
		}
	case float64:
		switch raw.kind {
		case unknownKind:
			raw.setKindIfUnknown(doubleKind, raw.rows)
			raw.pushDouble(v)
		case doubleKind:
			raw.pushDouble(v)
		case int64Kind:
			if err := coerceColumnToDouble(raw, raw.rows); err != nil {
				return err
			}
			raw.pushDouble(v)
		default:
			return &dferr.BuildError{Column: raw.name, Row: raw.rows, Reason: "expected string, got double"}
		}
	case string:
		switch raw.kind {
		case unknownKind:
			raw.setKindIfUnknown(stringKind, raw.rows)
		case stringKind:
		default:
			return &dferr.BuildError{Column: raw.name, Row: raw.rows, Reason: "expected numeric, got string"}
		}
		if _, err := raw.pushString(b.pool, v); err != nil {
			return err
		}
	default:
		return &dferr.BuildError{Column: raw.name, Row: raw.rows, Reason: fmt.Sprintf("unsupported value type %T", value)}
	}
	return nil
}

// Build finalizes every column. All declared columns must have received
// the same number of values; otherwise Build returns an error instead of a
// partial dataframe.
func (b *AdhocDataframeBuilder) Build() (*dataframe.Dataframe, error) {
	if b.status != nil {
		return nil, b.status
	}
	rowCount := 0
	if len(b.columns) > 0 {
		rowCount = b.columns[0].rows
	}
	for _, raw := range b.columns {
		if raw.rows != rowCount {
			err := &dferr.BuildError{Column: raw.name, Row: -1, Reason: fmt.Sprintf("row count mismatch: %d vs %d", raw.rows, rowCount)}
			b.status = err
			return nil, err
		}
	}

	cols := make([]storage.Column, 0, len(b.columns))
	for i, raw := range b.columns {
		cols = append(cols, finalizeColumn(raw, rowCount, b.decls[i].OverlayDefault, b.pool))
	}
	return dataframe.New(b.pool, cols, rowCount), nil
}
