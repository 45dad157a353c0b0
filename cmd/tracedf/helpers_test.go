package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracedf/internal/cursor"
	"tracedf/internal/fetch"
	"tracedf/internal/interp"
	"tracedf/internal/planner"
	"tracedf/internal/storage"
)

func writeCSV(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadCSVDataframeInfersColumnKinds(t *testing.T) {
	path := writeCSV(t, "dur,name\n100,sched_switch\n200,irq_handler\n")

	df, err := loadCSVDataframe(path)
	require.NoError(t, err)
	assert.Equal(t, 2, df.RowCount())

	cols := df.Columns()
	require.Len(t, cols, 2)
	assert.Equal(t, "dur", cols[0].Spec.Name)
	assert.Equal(t, storage.KindUint32, cols[0].Spec.Kind)
	assert.Equal(t, "name", cols[1].Spec.Name)
	assert.Equal(t, storage.KindString, cols[1].Spec.Kind)
}

func TestLoadCSVDataframeTreatsEmptyFieldAsNull(t *testing.T) {
	path := writeCSV(t, "dur,name\n100,sched_switch\n,irq_handler\n")

	df, err := loadCSVDataframe(path)
	require.NoError(t, err)
	assert.Equal(t, 2, df.RowCount())

	idx, ok := df.ColumnIndex("dur")
	require.True(t, ok)
	assert.True(t, df.Columns()[idx].Spec.Nullable)
}

func TestResolveOutputColumnsDefaultsToAllColumnsInOrder(t *testing.T) {
	path := writeCSV(t, "dur,name\n100,sched_switch\n")
	df, err := loadCSVDataframe(path)
	require.NoError(t, err)

	outputs, infos, err := resolveOutputColumns(df, "")
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	assert.Equal(t, "dur", infos[0].Name)
	assert.Equal(t, "name", infos[1].Name)
	assert.Equal(t, 0, outputs[0].Offset)
	assert.Equal(t, 1, outputs[1].Offset)
}

func TestResolveOutputColumnsHonorsExplicitSelect(t *testing.T) {
	path := writeCSV(t, "dur,name\n100,sched_switch\n")
	df, err := loadCSVDataframe(path)
	require.NoError(t, err)

	outputs, infos, err := resolveOutputColumns(df, "name, dur")
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	assert.Equal(t, "name", infos[0].Name)
	assert.Equal(t, "dur", infos[1].Name)

	nameIdx, _ := df.ColumnIndex("name")
	assert.Equal(t, nameIdx, outputs[0].Column)
}

func TestResolveOutputColumnsRejectsUnknownColumn(t *testing.T) {
	path := writeCSV(t, "dur,name\n100,sched_switch\n")
	df, err := loadCSVDataframe(path)
	require.NoError(t, err)

	_, _, err = resolveOutputColumns(df, "missing")
	require.Error(t, err)
}

func TestParsePredicateTreatsEmptyWhereAsUnfiltered(t *testing.T) {
	q, err := parsePredicate("", func(string) (int, bool) { return 0, false })
	require.NoError(t, err)
	assert.Empty(t, q.Filters)
}

func TestLoadEngineConfigDefaultsWhenPathEmpty(t *testing.T) {
	cfg, err := loadEngineConfig("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Planner.SortedScore)
}

func TestCollectRowsWalksEveryOutputColumn(t *testing.T) {
	path := writeCSV(t, "dur,name\n100,sched_switch\n200,irq_handler\n")
	df, err := loadCSVDataframe(path)
	require.NoError(t, err)

	outputs, _, err := resolveOutputColumns(df, "")
	require.NoError(t, err)

	plan, err := planner.Build(df.RowCount(), df.Columns(), nil, outputs)
	require.NoError(t, err)

	in := interp.NewInterpreter(df, fetch.Slice{}, interp.Patterns{})
	result, err := in.Run(plan.Program)
	require.NoError(t, err)

	rows := collectRows(outputs, plan, result)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(100), rows[0][0].Int64)
	assert.Equal(t, "sched_switch", rows[0][1].Str)
	assert.Equal(t, int64(200), rows[1][0].Int64)
	assert.Equal(t, "irq_handler", rows[1][1].Str)

	c := cursor.New(plan, result)
	assert.False(t, c.Eof())
}
