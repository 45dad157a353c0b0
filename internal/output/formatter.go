// Package output renders a query's result rows for the CLI, following
// the teacher's own output package shape: a small Format enum, a
// Formatter interface, and a NewFormatter(name) constructor that picks
// the implementation by string -- only repointed from schema diffs and
// migrations at a dataframe's rows.
package output

import (
	"fmt"
	"strings"

	"tracedf/internal/interp"
	"tracedf/internal/storage"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ColumnInfo names one output column and the storage.Kind that tells a
// Formatter which field of interp.Cell carries its value -- Cell itself
// doesn't self-describe a non-null cell's dynamic type.
type ColumnInfo struct {
	Name string
	Kind storage.Kind
}

// Formatter renders a result set: column metadata in output order, and
// rows of cells in the same order, each row already shaped by a
// Cursor walk.
type Formatter interface {
	FormatRows(columns []ColumnInfo, rows [][]interp.Cell) (string, error)
}

// NewFormatter creates a new Formatter instance based on the given name.
// If no format is specified, defaults to table format.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatTable:
		return tableFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'table' or 'json'", name)
	}
}

// cellString renders a single cell as plain text: a Null cell prints as
// a literal marker rather than an empty field, so it isn't confused
// with an empty string.
func cellString(c interp.Cell, kind storage.Kind) string {
	if c.Null {
		return "NULL"
	}
	switch kind {
	case storage.KindString:
		return c.Str
	case storage.KindDouble:
		return fmt.Sprintf("%g", c.Double)
	default:
		return fmt.Sprintf("%d", c.Int64)
	}
}
