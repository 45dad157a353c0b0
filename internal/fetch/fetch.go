// Package fetch defines the single caller-supplied callback surface shared
// by the row-oriented dataframe builder and the bytecode interpreter's
// CastFilterValue opcode: a cheap, monomorphic-per-execution value source
// that never blocks.
package fetch

// ValueType is the dynamic type of a single fetched value.
type ValueType uint8

const (
	Int64Type ValueType = iota
	DoubleType
	StringType
	NullType
)

// Fetcher is implemented by callers to supply values without the engine
// needing to know their origin -- a SQLite-style value array, a static
// constant array, or a test double. Index i means different things
// depending on the caller: a row-oriented builder indexes by declared
// column position; the interpreter indexes by filter-value slot.
type Fetcher interface {
	ValueType(i int) ValueType
	Int64(i int) int64
	Double(i int) float64
	String(i int) string
}

// Slice is a Fetcher backed by a plain slice of Go values, useful for tests
// and for callers with data already materialized in memory. Each element
// must be an int64, float64, string, or nil.
type Slice []any

var _ Fetcher = Slice(nil)

// ValueType reports the dynamic type of element i.
func (s Slice) ValueType(i int) ValueType {
	switch s[i].(type) {
	case int64:
		return Int64Type
	case float64:
		return DoubleType
	case string:
		return StringType
	case nil:
		return NullType
	default:
		panic("fetch: unsupported value type in Slice")
	}
}

// Int64 returns element i as int64. Precondition: ValueType(i) == Int64Type.
func (s Slice) Int64(i int) int64 { return s[i].(int64) }

// Double returns element i as float64. Precondition: ValueType(i) == DoubleType.
func (s Slice) Double(i int) float64 { return s[i].(float64) }

// String returns element i as string. Precondition: ValueType(i) == StringType.
func (s Slice) String(i int) string { return s[i].(string) }
