package storage

import "tracedf/internal/container"

// OverlayKind discriminates how a column represents nullability.
type OverlayKind uint8

const (
	// NonNull means no overlay: storage length equals row count and every
	// row is present.
	NonNull OverlayKind = iota
	// SparseNull means storage holds only non-null values; a presence
	// bitvector (length == row count) plus a precomputed prefix-popcount
	// table maps row index to storage index.
	SparseNull
	// DenseNull means storage holds a slot for every row, including nulls,
	// whose values are undefined; a presence bitvector says which rows are
	// valid.
	DenseNull
)

// NullOverlay layers nullability on top of a Storage. The zero value is
// NonNull.
type NullOverlay struct {
	Kind     OverlayKind
	Presence *container.BitVector // nil when Kind == NonNull
	prefix   []uint32             // memoized PrefixPopcount of Presence, SparseNull only
}

// NonNullOverlay returns the overlay for a column with no nulls.
func NonNullOverlay() NullOverlay { return NullOverlay{Kind: NonNull} }

// SparseNullOverlay wraps a presence bitvector as a sparse overlay,
// precomputing the prefix-popcount table the planner's
// TranslateSparseNullIndices opcode needs.
func SparseNullOverlay(presence *container.BitVector) NullOverlay {
	return NullOverlay{Kind: SparseNull, Presence: presence, prefix: presence.PrefixPopcount()}
}

// DenseNullOverlay wraps a presence bitvector as a dense overlay.
func DenseNullOverlay(presence *container.BitVector) NullOverlay {
	return NullOverlay{Kind: DenseNull, Presence: presence}
}

// IsNull reports whether row is null. Precondition: Kind != NonNull.
func (o NullOverlay) IsNull(row int) bool {
	return !o.Presence.IsSet(row)
}

// Prefix returns the memoized per-word prefix-popcount table for a
// SparseNull overlay's presence bitvector.
func (o NullOverlay) Prefix() []uint32 { return o.prefix }

// StorageIndex maps a row index to a storage index for a SparseNull
// overlay: the prefix-popcount of the word containing row, plus the
// popcount of set bits before row within that word. Precondition:
// Kind == SparseNull and the row is non-null.
func (o NullOverlay) StorageIndex(row int) int {
	wordIdx := row / 64
	base := int(o.prefix[wordIdx])
	return base + o.Presence.CountSetBitsBefore(row)
}
