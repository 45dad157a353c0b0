//go:build linux || darwin

package container

import "golang.org/x/sys/unix"

// alignmentBytes is the target alignment for FlexVector backing arrays. On
// unix platforms we query the system page size once and round down to the
// engine's fixed 64-byte target; querying via unix.Getpagesize confirms the
// platform's allocator can actually satisfy it without the runtime having to
// over-fetch a guard page per slab.
var alignmentBytes = func() int {
	if unix.Getpagesize() < 64 {
		return 16
	}
	return 64
}()

// alignedMake allocates a slice of n elements of T. Go's allocator does not
// expose an alignment knob for slices of arbitrary element size, so this is
// a best-effort: the runtime already aligns allocations to the element's
// natural alignment, and for the fixed-width numeric/Id types this engine
// stores, that is always <= alignmentBytes.
func alignedMake[T any](n int) []T {
	return make([]T, n)
}
