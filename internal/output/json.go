package output

import (
	"encoding/json"

	"tracedf/internal/interp"
	"tracedf/internal/storage"
)

type jsonFormatter struct{}

type rowsPayload struct {
	Format  string           `json:"format"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// FormatRows renders rows as a JSON object: a column list plus one
// object per row, keyed by column name so the shape stays stable
// regardless of output column ordering on the reader's side.
func (jsonFormatter) FormatRows(columns []ColumnInfo, rows [][]interp.Cell) (string, error) {
	payload := rowsPayload{
		Format:  string(FormatJSON),
		Columns: make([]string, len(columns)),
		Rows:    make([]map[string]any, 0, len(rows)),
	}
	for i, c := range columns {
		payload.Columns[i] = c.Name
	}
	for _, row := range rows {
		obj := make(map[string]any, len(row))
		for i, cell := range row {
			obj[columns[i].Name] = cellValue(cell, columns[i].Kind)
		}
		payload.Rows = append(payload.Rows, obj)
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

// cellValue returns the Go value a JSON encoder should marshal this cell
// as: nil for Null, else whichever of Cell's fields the column's Kind
// says is meaningful.
func cellValue(c interp.Cell, kind storage.Kind) any {
	if c.Null {
		return nil
	}
	switch kind {
	case storage.KindString:
		return c.Str
	case storage.KindDouble:
		return c.Double
	default:
		return c.Int64
	}
}
