package storage

import "fmt"

// ColumnSpec is the immutable metadata half of a column: everything except
// the payload itself. Planners and callers consult this to decide which
// bytecode specialization applies without touching the storage.
type ColumnSpec struct {
	Name    string
	Kind    Kind
	Sort    SortState
	Nullable bool
}

// Column pairs a spec with its storage and nullability overlay. Built once
// by a DataframeBuilder and never mutated afterward.
type Column struct {
	Spec    ColumnSpec
	Storage Storage
	Overlay NullOverlay
}

// NewColumn validates the storage/overlay invariants and returns a Column.
// Panics on violation: these are builder-internal invariants, not
// user-facing errors -- a caller assembling a Column by hand outside the
// builder has made a programming error.
func NewColumn(spec ColumnSpec, s Storage, overlay NullOverlay) Column {
	if s.Kind == KindId && overlay.Kind != NonNull {
		panic("storage: Id storage is exclusive with any overlay other than NonNull")
	}
	if overlay.Kind == SparseNull && s.Len() != overlay.Presence.PopCount() {
		panic(fmt.Sprintf("storage: sparse storage length %d != presence popcount %d", s.Len(), overlay.Presence.PopCount()))
	}
	spec.Nullable = overlay.Kind != NonNull
	if spec.Nullable && spec.Sort != Unsorted {
		panic("storage: nullable column must have Unsorted sort state")
	}
	return Column{Spec: spec, Storage: s, Overlay: overlay}
}
