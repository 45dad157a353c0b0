package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpcodeFamiliesDoNotOverlap(t *testing.T) {
	seen := make(map[Opcode]string)
	record := func(op Opcode, label string) {
		if prior, ok := seen[op]; ok {
			t.Fatalf("opcode %d assigned to both %q and %q", op, prior, label)
		}
		seen[op] = label
	}

	for op := OpInitRange; op < opFixedCount; op++ {
		record(op, "fixed")
	}
	for t := TypeUint32; t < numTypes; t++ {
		record(CastFilterValueOpcode(t), "cast")
	}
	for t := TypeUint32; t < numNonStringTypes; t++ {
		for op := CmpEq; op < numCmpOps; op++ {
			record(NonStringFilterOpcode(t, op), "nonstring")
		}
	}
	for op := StrEq; op < numStringOps; op++ {
		record(StringFilterOpcode(op), "string")
	}
	for tt := TypeUint32; tt < numTypes; tt++ {
		for m := ModeEq; m < numSortModes; m++ {
			record(SortedFilterOpcode(tt, m), "sorted")
		}
	}
	record(OpNullFilterIsNull, "null")
	record(OpNullFilterIsNotNull, "null")

	assert.Equal(t, int(opcodeCount), len(seen))
}

func TestDecodeRoundTrips(t *testing.T) {
	for tt := TypeUint32; tt < numTypes; tt++ {
		got, ok := DecodeCastFilterValue(CastFilterValueOpcode(tt))
		assert.True(t, ok)
		assert.Equal(t, tt, got)
	}
	for tt := TypeUint32; tt < numNonStringTypes; tt++ {
		for op := CmpEq; op < numCmpOps; op++ {
			gotT, gotOp, ok := DecodeNonStringFilter(NonStringFilterOpcode(tt, op))
			assert.True(t, ok)
			assert.Equal(t, tt, gotT)
			assert.Equal(t, op, gotOp)
		}
	}
	for op := StrEq; op < numStringOps; op++ {
		got, ok := DecodeStringFilter(StringFilterOpcode(op))
		assert.True(t, ok)
		assert.Equal(t, op, got)
	}
	for tt := TypeUint32; tt < numTypes; tt++ {
		for m := ModeEq; m < numSortModes; m++ {
			gotT, gotM, ok := DecodeSortedFilter(SortedFilterOpcode(tt, m))
			assert.True(t, ok)
			assert.Equal(t, tt, gotT)
			assert.Equal(t, m, gotM)
		}
	}
}

func TestDecodeRejectsForeignOpcodes(t *testing.T) {
	_, ok := DecodeCastFilterValue(OpInitRange)
	assert.False(t, ok)
	_, _, ok = DecodeNonStringFilter(OpInitRange)
	assert.False(t, ok)
	_, ok = DecodeStringFilter(OpInitRange)
	assert.False(t, ok)
	_, _, ok = DecodeSortedFilter(OpInitRange)
	assert.False(t, ok)
}

func TestKindToTypeIndex(t *testing.T) {
	got, ok := KindToTypeIndex(5)
	assert.True(t, ok)
	assert.Equal(t, TypeString, got)

	_, ok = KindToTypeIndex(0) // KindId has no TypeIndex of its own
	assert.False(t, ok)
}
