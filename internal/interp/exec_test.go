package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracedf/internal/bytecode"
	"tracedf/internal/container"
	"tracedf/internal/dataframe"
	"tracedf/internal/fetch"
	"tracedf/internal/storage"
	"tracedf/internal/stringpool"
)

func buildTestDataframe(t *testing.T) *dataframe.Dataframe {
	t.Helper()
	pool := stringpool.New()

	v := container.NewFlexVector[int64]()
	for _, x := range []int64{10, 20, 20, 30, 40} {
		v.PushBack(x)
	}
	vCol := storage.NewColumn(
		storage.ColumnSpec{Name: "v", Kind: storage.KindInt64, Sort: storage.Sorted},
		storage.NewInt64Storage(v),
		storage.NonNullOverlay(),
	)

	names := container.NewFlexVector[stringpool.Id]()
	for _, s := range []string{"alpha", "beta", "beta", "gamma", "delta"} {
		id, err := pool.Intern([]byte(s))
		require.NoError(t, err)
		names.PushBack(id)
	}
	nameCol := storage.NewColumn(
		storage.ColumnSpec{Name: "name", Kind: storage.KindString, Sort: storage.Unsorted},
		storage.NewStringStorage(names),
		storage.NonNullOverlay(),
	)

	opt := container.NewFlexVector[int64]()
	presence := container.NewBitVectorOfSize(5)
	for i, x := range []int64{1, 0, 3, 0, 5} {
		opt.PushBack(x)
		if x != 0 {
			presence.Set(i)
		}
	}
	optCol := storage.NewColumn(
		storage.ColumnSpec{Name: "opt", Kind: storage.KindInt64, Sort: storage.Unsorted},
		storage.NewInt64Storage(opt),
		storage.DenseNullOverlay(presence),
	)

	return dataframe.New(pool, []storage.Column{vCol, nameCol, optCol}, 5)
}

func TestInterpreterSortedFilterEqualRange(t *testing.T) {
	df := buildTestDataframe(t)
	values := fetch.Slice{int64(20)}
	in := NewInterpreter(df, values, Patterns{})

	p := &bytecode.Program{}
	p.InitRange(0, 5)
	p.CastFilterValue(1, bytecode.TypeInt64, 0, 0, bytecode.CmpEq)
	p.SortedFilter(2, 0, bytecode.TypeInt64, bytecode.ModeEq, 0, 1)

	res, err := in.Run(p)
	require.NoError(t, err)
	got := res.Frame.Get(2)
	require.Equal(t, RegRange, got.Kind)
	assert.Equal(t, uint32(1), got.Range.Lo)
	assert.Equal(t, uint32(3), got.Range.Hi)
}

func TestInterpreterNonStringFilterOnUnsortedColumn(t *testing.T) {
	df := buildTestDataframe(t)
	values := fetch.Slice{int64(0)}
	in := NewInterpreter(df, values, Patterns{})

	p := &bytecode.Program{}
	p.InitRange(0, 5)
	p.Iota(1, 0)
	p.CastFilterValue(2, bytecode.TypeInt64, 2, 0, bytecode.CmpGt)
	p.NonStringFilter(3, 1, bytecode.TypeInt64, bytecode.CmpGt, 2, 2)

	res, err := in.Run(p)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 2, 4}, res.Frame.Get(3).Indices)
}

func TestInterpreterNullFilter(t *testing.T) {
	df := buildTestDataframe(t)
	in := NewInterpreter(df, nil, Patterns{})

	p := &bytecode.Program{}
	p.InitRange(0, 5)
	p.Iota(1, 0)
	p.NullFilter(2, 1, 2, true)

	res, err := in.Run(p)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 3}, res.Frame.Get(2).Indices)
}

func TestInterpreterStringFilterGlob(t *testing.T) {
	df := buildTestDataframe(t)
	in := NewInterpreter(df, nil, Patterns{Globs: map[int]*CompiledGlob{0: NewCompiledGlob("b*")}})

	p := &bytecode.Program{}
	p.InitRange(0, 5)
	p.Iota(1, 0)
	p.StringFilter(2, 1, bytecode.StrGlob, 1, 0)

	res, err := in.Run(p)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2}, res.Frame.Get(2).Indices)
}

func TestInterpreterStrideCopyOutput(t *testing.T) {
	df := buildTestDataframe(t)
	in := NewInterpreter(df, nil, Patterns{})

	p := &bytecode.Program{}
	p.InitRange(0, 2) // rows 0,1: "alpha","beta"
	p.Iota(1, 0)
	p.StrideCopy(1, 1, 1, 0)

	res, err := in.Run(p)
	require.NoError(t, err)
	require.NotNil(t, res.Output)
	assert.Equal(t, "alpha", res.Output.Buf[0].Str)
	assert.Equal(t, "beta", res.Output.Buf[1].Str)
}

func TestInterpreterStrideCopyDenseNullIndices(t *testing.T) {
	df := buildTestDataframe(t)
	in := NewInterpreter(df, nil, Patterns{})

	p := &bytecode.Program{}
	p.InitRange(0, 5)
	p.Iota(1, 0)
	p.StrideCopyDenseNullIndices(1, 2, 1, 0)

	res, err := in.Run(p)
	require.NoError(t, err)
	assert.True(t, res.Output.Buf[1].Null)
	assert.False(t, res.Output.Buf[0].Null)
	assert.Equal(t, int64(1), res.Output.Buf[0].Int64)
}
