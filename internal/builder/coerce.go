package builder

import (
	"fmt"

	"tracedf/internal/container"
	"tracedf/internal/dferr"
)

const maxExactDoubleMagnitude = int64(1) << 53

func representableAsDouble(v int64) bool {
	return v >= -maxExactDoubleMagnitude && v <= maxExactDoubleMagnitude
}

// coerceColumnToDouble rewrites a column currently holding int64 values as
// double, failing if any prior value cannot be represented exactly.
func coerceColumnToDouble(c *rawColumn, rowIndex int) error {
	if c.i64 == nil {
		return nil
	}
	src := c.i64.Slice()
	for i, v := range src {
		if !representableAsDouble(v) {
			return &dferr.BuildError{
				Column: c.name,
				Row:    rowIndex,
				Reason: fmt.Sprintf("int64 value at row %d is not exactly representable as double", i),
			}
		}
	}
	dst := container.NewFlexVectorWithCapacity[float64](len(src))
	for _, v := range src {
		dst.PushBack(float64(v))
	}
	c.f64 = dst
	c.i64 = nil
	c.kind = doubleKind
	return nil
}

// acceptInt64IntoDoubleColumn checks whether v can be represented exactly
// as a double and, if so, returns the double to store.
func acceptInt64IntoDoubleColumn(c *rawColumn, v int64, rowIndex int) (float64, error) {
	if !representableAsDouble(v) {
		return 0, &dferr.BuildError{
			Column: c.name,
			Row:    rowIndex,
			Reason: "int64 value is not exactly representable as double",
		}
	}
	return float64(v), nil
}
