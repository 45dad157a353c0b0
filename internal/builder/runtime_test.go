package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracedf/internal/fetch"
	"tracedf/internal/storage"
)

func TestRuntimeBuilderDoublePrecisionGuard(t *testing.T) {
	b := NewRuntimeDataframeBuilder([]string{"v"}, nil)
	require.NoError(t, b.AddRow(fetch.Slice{int64(1)}))
	require.NoError(t, b.AddRow(fetch.Slice{1.5}))

	df, err := b.Build()
	require.NoError(t, err)
	col := df.Column(0)
	assert.Equal(t, storage.KindDouble, col.Spec.Kind)
	assert.False(t, col.Spec.Nullable)
	assert.Equal(t, storage.Unsorted, col.Spec.Sort)
	assert.Equal(t, 1.0, col.Storage.DoubleAt(0))
	assert.Equal(t, 1.5, col.Storage.DoubleAt(1))
}

func TestRuntimeBuilderIntegerDowncast(t *testing.T) {
	b := NewRuntimeDataframeBuilder([]string{"v"}, nil)
	for _, v := range []int64{5, 100, 42, 7} {
		require.NoError(t, b.AddRow(fetch.Slice{v}))
	}
	df, err := b.Build()
	require.NoError(t, err)
	col := df.Column(0)
	assert.Equal(t, storage.KindUint32, col.Spec.Kind)
	assert.False(t, col.Spec.Nullable)
	assert.Equal(t, storage.Unsorted, col.Spec.Sort)
}

func TestRuntimeBuilderIdSorted(t *testing.T) {
	b := NewRuntimeDataframeBuilder([]string{"id"}, nil)
	for i := int64(0); i < 5; i++ {
		require.NoError(t, b.AddRow(fetch.Slice{i}))
	}
	df, err := b.Build()
	require.NoError(t, err)
	col := df.Column(0)
	assert.Equal(t, storage.KindId, col.Spec.Kind)
	assert.Equal(t, storage.IdSorted, col.Spec.Sort)
	for i := 0; i < 5; i++ {
		assert.Equal(t, uint32(i), col.Storage.IdAt(i))
	}
}

func TestRuntimeBuilderNullableColumnIsDense(t *testing.T) {
	b := NewRuntimeDataframeBuilder([]string{"col"}, nil)
	rows := []any{int64(1), nil, int64(3), nil, int64(5)}
	for _, r := range rows {
		require.NoError(t, b.AddRow(fetch.Slice{r}))
	}
	df, err := b.Build()
	require.NoError(t, err)
	col := df.Column(0)
	require.True(t, col.Spec.Nullable)
	assert.Equal(t, storage.Unsorted, col.Spec.Sort)
	assert.Equal(t, storage.DenseNull, col.Overlay.Kind)
	assert.True(t, col.Overlay.IsNull(1))
	assert.False(t, col.Overlay.IsNull(0))
}

func TestRuntimeBuilderTypeMismatchIsSticky(t *testing.T) {
	b := NewRuntimeDataframeBuilder([]string{"col"}, nil)
	require.NoError(t, b.AddRow(fetch.Slice{int64(1)}))
	err := b.AddRow(fetch.Slice{"oops"})
	require.Error(t, err)

	// Sticky: a further call fails with the same error without doing work.
	err2 := b.AddRow(fetch.Slice{int64(2)})
	require.Error(t, err2)
	assert.Equal(t, err, err2)

	_, buildErr := b.Build()
	assert.Error(t, buildErr)
}

func TestRuntimeBuilderStringSortedUsesPoolOrdering(t *testing.T) {
	b := NewRuntimeDataframeBuilder([]string{"name"}, nil)
	for _, s := range []string{"apple", "banana", "cherry"} {
		require.NoError(t, b.AddRow(fetch.Slice{s}))
	}
	df, err := b.Build()
	require.NoError(t, err)
	col := df.Column(0)
	assert.Equal(t, storage.KindString, col.Spec.Kind)
	assert.Equal(t, storage.Sorted, col.Spec.Sort)
}
