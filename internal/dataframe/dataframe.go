// Package dataframe defines the immutable, columnar table the rest of the
// engine queries: a vector of columns sharing a string pool and a row
// count. Dataframes are built once by a builder and never mutated
// afterward; they may be owned uniquely by one engine or shared read-only
// through internal/shared.
package dataframe

import (
	"tracedf/internal/storage"
	"tracedf/internal/stringpool"
)

// Dataframe is an immutable, columnar table.
type Dataframe struct {
	pool     *stringpool.StringPool
	columns  []storage.Column
	rowCount int
}

// New returns a Dataframe over the given columns. Every column's storage
// must be consistent with rowCount per the overlay it carries (NonNull and
// DenseNull: storage length == rowCount; SparseNull: storage length ==
// popcount of the presence bitvector) -- builders are responsible for this;
// New does not re-validate it.
func New(pool *stringpool.StringPool, columns []storage.Column, rowCount int) *Dataframe {
	return &Dataframe{pool: pool, columns: columns, rowCount: rowCount}
}

// RowCount returns the number of rows, shared by every column.
func (d *Dataframe) RowCount() int { return d.rowCount }

// Pool returns the string pool backing this dataframe's String columns.
func (d *Dataframe) Pool() *stringpool.StringPool { return d.pool }

// Columns returns the dataframe's columns in declaration order.
func (d *Dataframe) Columns() []storage.Column { return d.columns }

// Column returns the column at index i.
func (d *Dataframe) Column(i int) *storage.Column { return &d.columns[i] }

// ColumnIndex returns the index of the column named name, and false if no
// such column exists. Supplements the original spec's dataframe with a
// name-based lookup used for error messages and output-offset tables.
func (d *Dataframe) ColumnIndex(name string) (int, bool) {
	for i, c := range d.columns {
		if c.Spec.Name == name {
			return i, true
		}
	}
	return 0, false
}
