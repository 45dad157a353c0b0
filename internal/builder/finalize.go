package builder

import (
	"bytes"
	"math"

	"tracedf/internal/container"
	"tracedf/internal/storage"
	"tracedf/internal/stringpool"
)

// overlayDefault tells finalize whether a nullable column should be stored
// Sparse or Dense; the runtime builder always asks for Dense (it already
// keeps placeholder slots), the adhoc builder lets the caller declare it
// per column.
type overlayDefault = storage.OverlayKind

const (
	defaultDense  = storage.DenseNull
	defaultSparse = storage.SparseNull
)

// int64Scan holds the results of scanning a column's non-null int64 values.
type int64Scan struct {
	count          int
	min, max       int64
	isIdSorted     bool // value(row) == row for every non-null row, no nulls at all
	isSetIdSorted  bool // value(row) == predecessor or == row, for every row
	isMonotone     bool // non-decreasing
}

func scanInt64Column(raw *rawColumn, rowCount int, hasNulls bool) int64Scan {
	scan := int64Scan{isIdSorted: !hasNulls, isSetIdSorted: true, isMonotone: true}
	first := true
	var prev int64
	for row := 0; row < rowCount; row++ {
		if hasNulls && !raw.nulls.IsSet(row) {
			scan.isIdSorted = false
			continue
		}
		v := raw.i64.Get(row)
		if scan.count == 0 {
			scan.min, scan.max = v, v
		} else {
			if v < scan.min {
				scan.min = v
			}
			if v > scan.max {
				scan.max = v
			}
		}
		scan.count++

		if v != int64(row) {
			scan.isIdSorted = false
		}
		if first {
			// No predecessor: the set-id law reduces to v == row.
			if v != int64(row) {
				scan.isSetIdSorted = false
			}
		} else {
			if v != prev && v != int64(row) {
				scan.isSetIdSorted = false
			}
			if v < prev {
				scan.isMonotone = false
			}
		}
		prev = v
		first = false
	}
	return scan
}

func pickIntegerStorage(scan int64Scan, hasNulls bool) (storage.Kind, storage.SortState) {
	switch {
	case scan.isIdSorted && !hasNulls:
		return storage.KindId, storage.IdSorted
	case scan.min >= 0 && scan.max <= math.MaxUint32:
		return storage.KindUint32, sortStateFrom(scan, hasNulls)
	case scan.min >= math.MinInt32 && scan.max <= math.MaxInt32:
		return storage.KindInt32, sortStateFrom(scan, hasNulls)
	default:
		return storage.KindInt64, sortStateFrom(scan, hasNulls)
	}
}

func sortStateFrom(scan int64Scan, hasNulls bool) storage.SortState {
	if hasNulls {
		return storage.Unsorted
	}
	switch {
	case scan.isSetIdSorted:
		return storage.SetIdSorted
	case scan.isMonotone:
		return storage.Sorted
	default:
		return storage.Unsorted
	}
}

// finalizeInt64Column builds the final storage.Column for a column whose
// inferred kind is int64.
func finalizeInt64Column(raw *rawColumn, rowCount int, overlay overlayDefault) storage.Column {
	hasNulls := raw.nulls != nil
	scan := scanInt64Column(raw, rowCount, hasNulls)
	kind, sort := pickIntegerStorage(scan, hasNulls)

	spec := storage.ColumnSpec{Name: raw.name, Kind: kind, Sort: sort}

	if !hasNulls {
		return storage.NewColumn(spec, materializeInt(kind, raw, rowCount, nil), storage.NonNullOverlay())
	}

	if overlay == defaultSparse {
		s := materializeInt(kind, raw, rowCount, raw.nulls)
		return storage.NewColumn(spec, s, storage.SparseNullOverlay(raw.nulls))
	}
	s := materializeInt(kind, raw, rowCount, nil)
	return storage.NewColumn(spec, s, storage.DenseNullOverlay(raw.nulls))
}

// materializeInt converts the dense int64 buffer into the chosen physical
// width. When presence is non-nil, only rows present in it are copied
// (sparse compaction); otherwise every row is copied, including null
// placeholders (dense).
func materializeInt(kind storage.Kind, raw *rawColumn, rowCount int, presence *container.BitVector) storage.Storage {
	switch kind {
	case storage.KindId:
		return storage.NewIdStorage(rowCount)
	case storage.KindUint32:
		v := container.NewFlexVectorWithCapacity[uint32](rowCount)
		for row := 0; row < rowCount; row++ {
			if presence != nil && !presence.IsSet(row) {
				continue
			}
			v.PushBack(uint32(raw.i64.Get(row)))
		}
		return storage.NewUint32Storage(v)
	case storage.KindInt32:
		v := container.NewFlexVectorWithCapacity[int32](rowCount)
		for row := 0; row < rowCount; row++ {
			if presence != nil && !presence.IsSet(row) {
				continue
			}
			v.PushBack(int32(raw.i64.Get(row)))
		}
		return storage.NewInt32Storage(v)
	default:
		v := container.NewFlexVectorWithCapacity[int64](rowCount)
		for row := 0; row < rowCount; row++ {
			if presence != nil && !presence.IsSet(row) {
				continue
			}
			v.PushBack(raw.i64.Get(row))
		}
		return storage.NewInt64Storage(v)
	}
}

// finalizeDoubleColumn builds the final storage.Column for a column whose
// inferred kind is double. Sort state is Sorted only if the scan never
// observed a decrease (NaN comparisons are always false, so a NaN neither
// breaks nor establishes monotonicity -- IEEE semantics are preserved, not
// special-cased).
func finalizeDoubleColumn(raw *rawColumn, rowCount int, overlay overlayDefault) storage.Column {
	hasNulls := raw.nulls != nil
	monotone := true
	first := true
	var prev float64
	for row := 0; row < rowCount; row++ {
		if hasNulls && !raw.nulls.IsSet(row) {
			continue
		}
		v := raw.f64.Get(row)
		if !first && v < prev {
			monotone = false
		}
		prev = v
		first = false
	}

	sort := storage.Unsorted
	if !hasNulls && monotone {
		sort = storage.Sorted
	}
	spec := storage.ColumnSpec{Name: raw.name, Kind: storage.KindDouble, Sort: sort}

	if !hasNulls {
		return storage.NewColumn(spec, materializeDouble(raw, rowCount, nil), storage.NonNullOverlay())
	}
	if overlay == defaultSparse {
		s := materializeDouble(raw, rowCount, raw.nulls)
		return storage.NewColumn(spec, s, storage.SparseNullOverlay(raw.nulls))
	}
	s := materializeDouble(raw, rowCount, nil)
	return storage.NewColumn(spec, s, storage.DenseNullOverlay(raw.nulls))
}

func materializeDouble(raw *rawColumn, rowCount int, presence *container.BitVector) storage.Storage {
	v := container.NewFlexVectorWithCapacity[float64](rowCount)
	for row := 0; row < rowCount; row++ {
		if presence != nil && !presence.IsSet(row) {
			continue
		}
		v.PushBack(raw.f64.Get(row))
	}
	return storage.NewDoubleStorage(v)
}

// finalizeStringColumn builds the final storage.Column for a column whose
// inferred kind is string. Ordering comparisons use the pool's byte view,
// not the numeric Id (Ids are not assigned in content order).
func finalizeStringColumn(raw *rawColumn, rowCount int, overlay overlayDefault, pool *stringpool.StringPool) storage.Column {
	hasNulls := raw.nulls != nil
	monotone := true
	first := true
	var prev []byte
	for row := 0; row < rowCount; row++ {
		if hasNulls && !raw.nulls.IsSet(row) {
			continue
		}
		id := raw.str.Get(row)
		cur := pool.Get(id)
		if !first && bytes.Compare(cur, prev) < 0 {
			monotone = false
		}
		prev = cur
		first = false
	}

	sort := storage.Unsorted
	if !hasNulls && monotone {
		sort = storage.Sorted
	}
	spec := storage.ColumnSpec{Name: raw.name, Kind: storage.KindString, Sort: sort}

	if !hasNulls {
		return storage.NewColumn(spec, materializeString(raw, rowCount, nil), storage.NonNullOverlay())
	}
	if overlay == defaultSparse {
		s := materializeString(raw, rowCount, raw.nulls)
		return storage.NewColumn(spec, s, storage.SparseNullOverlay(raw.nulls))
	}
	s := materializeString(raw, rowCount, nil)
	return storage.NewColumn(spec, s, storage.DenseNullOverlay(raw.nulls))
}

func materializeString(raw *rawColumn, rowCount int, presence *container.BitVector) storage.Storage {
	v := container.NewFlexVectorWithCapacity[stringpool.Id](rowCount)
	for row := 0; row < rowCount; row++ {
		if presence != nil && !presence.IsSet(row) {
			continue
		}
		v.PushBack(raw.str.Get(row))
	}
	return storage.NewStringStorage(v)
}

// finalizeColumn dispatches to the kind-specific finalizer. A column that
// never received any value (kind == unknownKind) finalizes as an all-null
// Int64 column with Unsorted sort state, matching "no rows seen" gracefully
// rather than panicking.
func finalizeColumn(raw *rawColumn, rowCount int, overlay overlayDefault, pool *stringpool.StringPool) storage.Column {
	switch raw.kind {
	case int64Kind:
		return finalizeInt64Column(raw, rowCount, overlay)
	case doubleKind:
		return finalizeDoubleColumn(raw, rowCount, overlay)
	case stringKind:
		return finalizeStringColumn(raw, rowCount, overlay, pool)
	default:
		raw.kind = int64Kind
		if raw.nulls == nil {
			raw.nulls = container.NewBitVectorOfSize(rowCount)
		}
		if raw.i64 == nil {
			raw.i64 = container.NewFlexVectorWithCapacity[int64](rowCount)
			for i := 0; i < rowCount; i++ {
				raw.i64.PushBack(0)
			}
		}
		return finalizeInt64Column(raw, rowCount, overlay)
	}
}
