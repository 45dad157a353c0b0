package output

import (
	"strings"
	"text/tabwriter"

	"tracedf/internal/interp"
)

type tableFormatter struct{}

// FormatRows renders rows as an aligned, tab-separated text table -- no
// third-party table-rendering library appears anywhere in the pack, so
// text/tabwriter (stdlib) is the idiomatic choice here.
func (tableFormatter) FormatRows(columns []ColumnInfo, rows [][]interp.Cell) (string, error) {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 2, 4, 2, ' ', 0)

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	if _, err := w.Write([]byte(strings.Join(names, "\t") + "\n")); err != nil {
		return "", err
	}

	for _, row := range rows {
		fields := make([]string, len(row))
		for i, cell := range row {
			fields[i] = cellString(cell, columns[i].Kind)
		}
		if _, err := w.Write([]byte(strings.Join(fields, "\t") + "\n")); err != nil {
			return "", err
		}
	}

	if err := w.Flush(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
