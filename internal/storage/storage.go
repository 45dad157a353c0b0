// Package storage defines the per-column payload representations: the
// tagged-union Storage variants, the nullability overlays layered on top of
// them, and the sort-state classification the planner relies on. Everything
// here is read-only after construction; dispatch is by discriminant switch,
// never by interface/vtable, so the interpreter's inner loop stays
// devirtualized.
package storage

import (
	"tracedf/internal/container"
	"tracedf/internal/stringpool"
)

// Kind discriminates the physical representation of a column's values.
type Kind uint8

const (
	KindId Kind = iota
	KindUint32
	KindInt32
	KindInt64
	KindDouble
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindId:
		return "Id"
	case KindUint32:
		return "Uint32"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindDouble:
		return "Double"
	case KindString:
		return "String"
	default:
		return "Unknown"
	}
}

// IsNumeric reports whether the kind participates in numeric comparisons
// (excludes Id, which is compared as an unsigned row index, and String).
func (k Kind) IsNumeric() bool {
	switch k {
	case KindUint32, KindInt32, KindInt64, KindDouble:
		return true
	default:
		return false
	}
}

// Storage is the tagged union of column payloads. Exactly one of the typed
// fields is populated, selected by Kind; Id storage populates none of them
// because the value of row i is i itself. Accessing the wrong field for the
// current Kind is a programming error and is not guarded: callers dispatch
// on Kind first, matching the ISA's (column-type, operator) specialization.
type Storage struct {
	Kind Kind

	// idLen is the only state Id storage needs: there is no backing array,
	// only a logical length equal to the dataframe's row count.
	idLen int

	u32 *container.FlexVector[uint32]
	i32 *container.FlexVector[int32]
	i64 *container.FlexVector[int64]
	f64 *container.FlexVector[float64]
	str *container.FlexVector[stringpool.Id]
}

// NewIdStorage returns pseudo-storage of the given length; Value(i) == i.
func NewIdStorage(length int) Storage {
	return Storage{Kind: KindId, idLen: length}
}

// NewUint32Storage wraps an existing FlexVector as Uint32 storage.
func NewUint32Storage(v *container.FlexVector[uint32]) Storage {
	return Storage{Kind: KindUint32, u32: v}
}

// NewInt32Storage wraps an existing FlexVector as Int32 storage.
func NewInt32Storage(v *container.FlexVector[int32]) Storage {
	return Storage{Kind: KindInt32, i32: v}
}

// NewInt64Storage wraps an existing FlexVector as Int64 storage.
func NewInt64Storage(v *container.FlexVector[int64]) Storage {
	return Storage{Kind: KindInt64, i64: v}
}

// NewDoubleStorage wraps an existing FlexVector as Double storage.
func NewDoubleStorage(v *container.FlexVector[float64]) Storage {
	return Storage{Kind: KindDouble, f64: v}
}

// NewStringStorage wraps an existing FlexVector of pool Ids as String
// storage.
func NewStringStorage(v *container.FlexVector[stringpool.Id]) Storage {
	return Storage{Kind: KindString, str: v}
}

// Len returns the number of logical values the storage holds (its own
// backing length, not the dataframe's row count -- these differ under a
// SparseNull overlay).
func (s Storage) Len() int {
	switch s.Kind {
	case KindId:
		return s.idLen
	case KindUint32:
		return s.u32.Len()
	case KindInt32:
		return s.i32.Len()
	case KindInt64:
		return s.i64.Len()
	case KindDouble:
		return s.f64.Len()
	case KindString:
		return s.str.Len()
	default:
		panic("storage: unknown kind")
	}
}

// Uint32At returns the value at storage index i. Precondition: Kind == KindUint32.
func (s Storage) Uint32At(i int) uint32 { return s.u32.Get(i) }

// Int32At returns the value at storage index i. Precondition: Kind == KindInt32.
func (s Storage) Int32At(i int) int32 { return s.i32.Get(i) }

// Int64At returns the value at storage index i. Precondition: Kind == KindInt64.
func (s Storage) Int64At(i int) int64 { return s.i64.Get(i) }

// DoubleAt returns the value at storage index i. Precondition: Kind == KindDouble.
func (s Storage) DoubleAt(i int) float64 { return s.f64.Get(i) }

// StringIdAt returns the pool Id at storage index i. Precondition: Kind == KindString.
func (s Storage) StringIdAt(i int) stringpool.Id { return s.str.Get(i) }

// IdAt returns i itself: Id storage has no backing payload.
func (s Storage) IdAt(i int) uint32 { return uint32(i) }

// AsInt64 widens the value at storage index i to int64, for any integer
// Kind (including Id, where the "value" is the storage index). Panics for
// Double or String storage: callers must dispatch by Kind first.
func (s Storage) AsInt64(i int) int64 {
	switch s.Kind {
	case KindId:
		return int64(s.IdAt(i))
	case KindUint32:
		return int64(s.Uint32At(i))
	case KindInt32:
		return int64(s.Int32At(i))
	case KindInt64:
		return s.Int64At(i)
	default:
		panic("storage: AsInt64 on non-integer kind")
	}
}
