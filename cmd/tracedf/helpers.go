package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"tracedf/internal/builder"
	"tracedf/internal/config"
	"tracedf/internal/cursor"
	"tracedf/internal/dataframe"
	"tracedf/internal/fetch"
	"tracedf/internal/interp"
	"tracedf/internal/output"
	"tracedf/internal/planner"
	"tracedf/internal/vtab"
)

// databaseTimeout bounds the load subcommand's entire MySQL round trip --
// connecting and scanning every row of the requested table.
const databaseTimeout = 30 * time.Second

// loadCSVDataframe reads a header row plus data rows from path and builds
// a dataframe through the adhoc builder, inferring each column's type
// from its first value. AdhocDataframeBuilder.PushNonNull widens an
// integer column to double when a later row holds a fractional value; any
// other type change (a string in a numeric column, or a number in a
// string column) is a build error.
func loadCSVDataframe(path string) (*dataframe.Dataframe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %q: %w", path, err)
	}

	decls := make([]builder.ColumnDecl, len(header))
	for i, name := range header {
		decls[i] = builder.ColumnDecl{Name: strings.TrimSpace(name), Nullable: true}
	}
	b := builder.NewAdhocDataframeBuilder(decls, nil)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row of %q: %w", path, err)
		}
		for col, field := range record {
			if err := pushCSVField(b, col, field); err != nil {
				return nil, fmt.Errorf("%q: %w", path, err)
			}
		}
	}
	return b.Build()
}

// pushCSVField pushes one CSV field into col, inferring int64 over
// float64 over string from the field's own text -- an empty field is
// null, matching how a CSV writer usually represents an absent value.
func pushCSVField(b *builder.AdhocDataframeBuilder, col int, field string) error {
	if field == "" {
		return b.PushNull(col, 1)
	}
	if n, err := strconv.ParseInt(field, 10, 64); err == nil {
		return b.PushNonNull(col, n, 1)
	}
	if f, err := strconv.ParseFloat(field, 64); err == nil {
		return b.PushNonNull(col, f, 1)
	}
	return b.PushNonNull(col, field, 1)
}

// loadEngineConfig returns config.Default() when configPath is empty,
// else decodes the TOML file at configPath on top of the defaults.
func loadEngineConfig(configPath string) (config.EngineConfig, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// resolveOutputColumns turns a comma-separated --select flag into the
// planner.OutputSpec list Build consumes plus the parallel ColumnInfo
// list the output formatter needs. An empty selectFlag selects every
// column of df, in declared order.
func resolveOutputColumns(df *dataframe.Dataframe, selectFlag string) ([]planner.OutputSpec, []output.ColumnInfo, error) {
	columns := df.Columns()

	var names []string
	if strings.TrimSpace(selectFlag) == "" {
		for _, c := range columns {
			names = append(names, c.Spec.Name)
		}
	} else {
		for _, n := range strings.Split(selectFlag, ",") {
			names = append(names, strings.TrimSpace(n))
		}
	}

	outputs := make([]planner.OutputSpec, len(names))
	infos := make([]output.ColumnInfo, len(names))
	for offset, name := range names {
		idx, ok := df.ColumnIndex(name)
		if !ok {
			return nil, nil, fmt.Errorf("select: unknown column %q", name)
		}
		outputs[offset] = planner.OutputSpec{Column: idx, Offset: offset}
		infos[offset] = output.ColumnInfo{Name: name, Kind: columns[idx].Spec.Kind}
	}
	return outputs, infos, nil
}

// parsePredicate wraps vtab.Parse, treating an empty where string as an
// unfiltered query rather than a parse error.
func parsePredicate(where string, resolve vtab.ColumnResolver) (*vtab.Query, error) {
	if strings.TrimSpace(where) == "" {
		return &vtab.Query{}, nil
	}
	return vtab.Parse(where, resolve)
}

// collectRows walks a cursor over plan/result from start to Eof, reading
// every requested output column at each row.
func collectRows(outputs []planner.OutputSpec, plan *planner.QueryPlan, result *interp.Result) [][]interp.Cell {
	c := cursor.New(plan, result)
	var rows [][]interp.Cell
	for !c.Eof() {
		row := make([]interp.Cell, len(outputs))
		for i, o := range outputs {
			row[i] = c.Cell(o.Column)
		}
		rows = append(rows, row)
		c.Next()
	}
	return rows
}

// loadMySQLDataframe issues SELECT * against table and streams the
// result set through a RuntimeDataframeBuilder, one AddRow per database
// row. sql.Rows scans into []any first since the column count and types
// aren't known until DSN dial time; []byte columns (MySQL's default
// representation for many text/decimal types via database/sql) are
// normalized to string before wrapping as a fetch.Slice.
func loadMySQLDataframe(ctx context.Context, db *sql.DB, table string) (*dataframe.Dataframe, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", table))
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columnNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns of %q: %w", table, err)
	}

	b := builder.NewRuntimeDataframeBuilder(columnNames, nil)
	scanTargets := make([]any, len(columnNames))
	scanValues := make([]any, len(columnNames))
	for i := range scanTargets {
		scanTargets[i] = &scanValues[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan row of %q: %w", table, err)
		}
		values := make(fetch.Slice, len(scanValues))
		for i, v := range scanValues {
			if raw, ok := v.([]byte); ok {
				values[i] = string(raw)
			} else {
				values[i] = v
			}
		}
		if err := b.AddRow(values); err != nil {
			return nil, fmt.Errorf("add row of %q: %w", table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %q: %w", table, err)
	}
	return b.Build()
}
