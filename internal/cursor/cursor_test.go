package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracedf/internal/container"
	"tracedf/internal/dataframe"
	"tracedf/internal/fetch"
	"tracedf/internal/interp"
	"tracedf/internal/planner"
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

	return dataframe.New(pool, []storage.Column{vCol, nameCol}, 5)
}

func TestCursorWalksFilteredRows(t *testing.T) {
	df := buildTestDataframe(t)
	columns := df.Columns()

	plan, err := planner.Build(5, columns,
		[]planner.FilterSpec{{Column: 0, Op: planner.FilterGe, ValueSlot: 0}},
		[]planner.OutputSpec{{Column: 0, Offset: 0}, {Column: 1, Offset: 1}},
	)
	require.NoError(t, err)

	in := interp.NewInterpreter(df, fetch.Slice{int64(20)}, interp.Patterns{})
	res, err := in.Run(plan.Program)
	require.NoError(t, err)

	c := New(plan, res)
	var gotV []int64
	var gotName []string
	for !c.Eof() {
		gotV = append(gotV, c.Cell(0).Int64)
		gotName = append(gotName, c.Cell(1).Str)
		c.Next()
	}
	assert.Equal(t, []int64{20, 20, 30, 40}, gotV)
	assert.Equal(t, []string{"beta", "beta", "gamma", "delta"}, gotName)
}

func TestCursorEofOnEmptyResult(t *testing.T) {
	df := buildTestDataframe(t)
	columns := df.Columns()

	plan, err := planner.Build(5, columns,
		[]planner.FilterSpec{{Column: 0, Op: planner.FilterGt, ValueSlot: 0}},
		[]planner.OutputSpec{{Column: 0, Offset: 0}},
	)
	require.NoError(t, err)

	in := interp.NewInterpreter(df, fetch.Slice{int64(1000)}, interp.Patterns{})
	res, err := in.Run(plan.Program)
	require.NoError(t, err)

	c := New(plan, res)
	assert.True(t, c.Eof())
	assert.Panics(t, func() { c.Next() })
	assert.Panics(t, func() { c.Cell(0) })
}

func TestCursorCellPanicsForUnrequestedColumn(t *testing.T) {
	df := buildTestDataframe(t)
	columns := df.Columns()

	plan, err := planner.Build(5, columns, nil, []planner.OutputSpec{{Column: 0, Offset: 0}})
	require.NoError(t, err)

	in := interp.NewInterpreter(df, nil, interp.Patterns{})
	res, err := in.Run(plan.Program)
	require.NoError(t, err)

	c := New(plan, res)
	require.False(t, c.Eof())
	assert.Panics(t, func() { c.Cell(1) })
}
