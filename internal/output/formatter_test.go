package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracedf/internal/interp"
	"tracedf/internal/storage"
)

func sampleColumns() []ColumnInfo {
	return []ColumnInfo{
		{Name: "dur", Kind: storage.KindInt64},
		{Name: "name", Kind: storage.KindString},
	}
}

func sampleRows() [][]interp.Cell {
	return [][]interp.Cell{
		{{Int64: 100}, {Str: "sched_switch"}},
		{{Null: true}, {Str: "irq_handler"}},
	}
}

func TestNewFormatterDefaultsToTable(t *testing.T) {
	f, err := NewFormatter("")
	require.NoError(t, err)
	assert.IsType(t, tableFormatter{}, f)
}

func TestNewFormatterRejectsUnknownFormat(t *testing.T) {
	_, err := NewFormatter("xml")
	require.Error(t, err)
}

func TestTableFormatterRendersHeaderAndNull(t *testing.T) {
	f := tableFormatter{}
	out, err := f.FormatRows(sampleColumns(), sampleRows())
	require.NoError(t, err)
	assert.Contains(t, out, "dur")
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "sched_switch")
	assert.Contains(t, out, "NULL")
}

func TestJSONFormatterRendersNullAsJSONNull(t *testing.T) {
	f := jsonFormatter{}
	out, err := f.FormatRows(sampleColumns(), sampleRows())
	require.NoError(t, err)
	assert.Contains(t, out, `"dur": null`)
	assert.Contains(t, out, `"name": "sched_switch"`)
}
