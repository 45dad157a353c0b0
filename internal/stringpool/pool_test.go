package stringpool

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternIdempotence(t *testing.T) {
	p := New()
	id1, err := p.Intern([]byte("hello"))
	require.NoError(t, err)
	id2, err := p.Intern([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Equal(t, []byte("hello"), p.Get(id1))
}

func TestInternDistinctStrings(t *testing.T) {
	p := New()
	a, _ := p.Intern([]byte("alpha"))
	b, _ := p.Intern([]byte("beta"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, []byte("alpha"), p.Get(a))
	assert.Equal(t, []byte("beta"), p.Get(b))
}

func TestLookupMissing(t *testing.T) {
	p := New()
	_, ok := p.Lookup([]byte("nope"))
	assert.False(t, ok)

	id, err := p.Intern([]byte("nope"))
	require.NoError(t, err)
	got, ok := p.Lookup([]byte("nope"))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestNullId(t *testing.T) {
	p := New()
	view := p.Get(NullId)
	assert.Len(t, view, 0)

	emptyID, err := p.Intern([]byte{})
	require.NoError(t, err)
	assert.Equal(t, NullId, emptyID)
}

func TestLargeStringSideVector(t *testing.T) {
	p := New()
	big := make([]byte, largeCutoff+10)
	for i := range big {
		big[i] = byte('a' + i%26)
	}
	id, err := p.Intern(big)
	require.NoError(t, err)
	assert.True(t, id.isLarge())
	assert.Equal(t, big, p.Get(id))

	id2, err := p.Intern(big)
	require.NoError(t, err)
	assert.Equal(t, id, id2)
}

func TestAllYieldsEveryStringOnce(t *testing.T) {
	p := New()
	want := map[string]bool{"one": true, "two": true, "three": true}
	for s := range want {
		_, err := p.Intern([]byte(s))
		require.NoError(t, err)
	}

	seen := map[string]int{}
	p.All(func(id Id, s []byte) bool {
		seen[string(s)]++
		return true
	})
	assert.Len(t, seen, 3)
	for s, count := range seen {
		assert.Equal(t, 1, count, "string %q seen more than once", s)
		assert.True(t, want[s])
	}
}

func TestAllEarlyStop(t *testing.T) {
	p := New()
	for i := 0; i < 10; i++ {
		_, _ = p.Intern([]byte(fmt.Sprintf("s%d", i)))
	}
	count := 0
	p.All(func(id Id, s []byte) bool {
		count++
		return count < 3
	})
	assert.Equal(t, 3, count)
}

func TestBlockExhaustionReportsDiagnostic(t *testing.T) {
	p := New()
	// Simulate having already allocated every block, each left full, so the
	// next block-sized insert must fail without actually materializing
	// 2 GiB of backing arrays.
	for i := 0; i < maxBlocks; i++ {
		b := newBlock()
		b.data = b.data[:blockSize]
		p.blocks = append(p.blocks, b)
	}

	_, err := p.Intern([]byte("one more string"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted")
}
