package builder

import "tracedf/internal/container"

// duplicateDetector is a cheap, adhoc-builder-only heuristic: a bitvector
// sized to 16x the expected row count when the column receives its first
// value. A pushed value inside that gate sets the bit at its own index; a
// bit that is already set flags the column as "maybe has duplicates", and
// so does any value outside the gate. A column that trips neither case is
// provably duplicate-free. This rules out "no duplicates" cheaply for many columns without a full
// value-level pass.
type duplicateDetector struct {
	bits    *container.BitVector
	size    int
	maybeDup bool
}

func newDuplicateDetector(expectedCount int) *duplicateDetector {
	size := expectedCount * 16
	if size < 64 {
		size = 64
	}
	return &duplicateDetector{bits: container.NewBitVectorOfSize(size), size: size}
}

func (d *duplicateDetector) observe(v uint64) {
	idx := int(v % uint64(d.size))
	if d.bits.IsSet(idx) {
		d.maybeDup = true
		return
	}
	d.bits.Set(idx)
}

// MaybeHasDuplicates reports whether any observed value collided with a
// previously observed one in the filter. false is a proof of no
// duplicates; true is only a suspicion.
func (d *duplicateDetector) MaybeHasDuplicates() bool { return d.maybeDup }

func hashInt64(v int64) uint64 {
	u := uint64(v)
	// SplitMix64 finalizer: cheap, well-distributed avalanche for a
	// bitvector index, not a content hash used for correctness.
	u ^= u >> 30
	u *= 0xbf58476d1ce4e5b9
	u ^= u >> 27
	u *= 0x94d049bb133111eb
	u ^= u >> 31
	return u
}
