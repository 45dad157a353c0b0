package interp

import (
	"math"

	"tracedf/internal/bytecode"
	"tracedf/internal/fetch"
)

// Representable integer ranges for the narrower numeric storage kinds.
const (
	minUint32 = 0
	maxUint32 = (1 << 32) - 1
	minInt32  = -(1 << 31)
	maxInt32  = (1 << 31) - 1
)

// maxExactDoubleMagnitude mirrors the builder's int64<->double coercion
// law (see internal/builder/coerce.go): beyond 2^53 a double can no longer
// represent every integer, so an exact round-trip is not guaranteed.
const maxExactDoubleMagnitude = int64(1) << 53

// CastFilterValue evaluates the cast rules for comparing a caller-supplied
// filter value against a column of type t using comparison op. IS NULL /
// IS NOT NULL predicates are compiled to the dedicated NullFilter opcode
// instead; a null value in a comparison's slot gets the same verdict as a
// type mismatch. Beyond that, CastFilterValue only has to reconcile
// numeric width/precision and string/numeric type mismatches.
//
// The monotonicity property this function guarantees: if the filter value
// is out of the column type's representable range, the verdict (NoneMatch
// or AllMatch) is the one a real in-range value arbitrarily close to the
// boundary would have produced -- cast never flips the direction of an
// ordering comparison.
func CastFilterValue(values fetch.Fetcher, slot int, t bytecode.TypeIndex, op bytecode.CmpOp) CastResult {
	vt := values.ValueType(slot)
	switch t {
	case bytecode.TypeString:
		return castForString(values, slot, vt, op)
	default:
		return castForNumeric(values, slot, vt, t, op)
	}
}

func castForString(values fetch.Fetcher, slot int, vt fetch.ValueType, op bytecode.CmpOp) CastResult {
	if vt != fetch.StringType {
		// A numeric filter value against a string column: equality can
		// never hold, inequality always does, ordering is undefined and
		// conservatively treated as never matching.
		return mismatchResult(op)
	}
	return CastResult{Status: CastValid, Str: values.String(slot)}
}

func castForNumeric(values fetch.Fetcher, slot int, vt fetch.ValueType, t bytecode.TypeIndex, op bytecode.CmpOp) CastResult {
	if vt == fetch.StringType {
		return mismatchResult(op)
	}

	var asDouble float64
	var asInt64 int64
	var haveInt64 bool
	switch vt {
	case fetch.Int64Type:
		asInt64 = values.Int64(slot)
		haveInt64 = true
		asDouble = float64(asInt64)
	case fetch.DoubleType:
		asDouble = values.Double(slot)
	default:
		return mismatchResult(op)
	}

	if t == bytecode.TypeDouble {
		return CastResult{Status: CastValid, Double: asDouble}
	}

	// Target is an integer kind: a double filter value must be an exact
	// integer to be comparable at all under Eq/Ne; for ordering operators
	// an out-of-range or fractional value still has a well-defined
	// monotonic verdict.
	if !haveInt64 {
		if asDouble != math.Trunc(asDouble) {
			return fractionalResult(op, asDouble)
		}
		if asDouble < -float64(maxExactDoubleMagnitude) || asDouble > float64(maxExactDoubleMagnitude) {
			return outOfRangeResult(op, asDouble < 0)
		}
		asInt64 = int64(asDouble)
	}

	lo, hi := int64(minInt32), int64(maxInt32)
	switch t {
	case bytecode.TypeUint32:
		lo, hi = minUint32, maxUint32
	case bytecode.TypeInt32:
		lo, hi = minInt32, maxInt32
	case bytecode.TypeInt64:
		return CastResult{Status: CastValid, Int64: asInt64}
	}
	if asInt64 < lo {
		return outOfRangeResult(op, true)
	}
	if asInt64 > hi {
		return outOfRangeResult(op, false)
	}
	return CastResult{Status: CastValid, Int64: asInt64}
}

// mismatchResult handles a filter value whose dynamic type cannot be
// compared against the column's type at all (string vs numeric).
func mismatchResult(op bytecode.CmpOp) CastResult {
	switch op {
	case bytecode.CmpEq:
		return CastResult{Status: CastNoneMatch}
	case bytecode.CmpNe:
		return CastResult{Status: CastAllMatch}
	default:
		return CastResult{Status: CastNoneMatch}
	}
}

// fractionalResult handles a non-integral double compared against an
// integer column: no stored value can equal it, but an ordering
// comparison still resolves to an equivalent integer comparison using the
// *same* operator, rounding the boundary toward whichever integer keeps
// the comparison's truth value unchanged (Lt/Ge round up, Le/Gt round
// down).
func fractionalResult(op bytecode.CmpOp, v float64) CastResult {
	switch op {
	case bytecode.CmpEq:
		return CastResult{Status: CastNoneMatch}
	case bytecode.CmpNe:
		return CastResult{Status: CastAllMatch}
	case bytecode.CmpLt, bytecode.CmpGe:
		return CastResult{Status: CastValid, Int64: int64(math.Ceil(v))}
	default: // Le, Gt
		return CastResult{Status: CastValid, Int64: int64(math.Floor(v))}
	}
}

// outOfRangeResult handles a value outside the target integer type's
// representable range. below reports which side of the range it fell on.
func outOfRangeResult(op bytecode.CmpOp, below bool) CastResult {
	switch op {
	case bytecode.CmpEq:
		return CastResult{Status: CastNoneMatch}
	case bytecode.CmpNe:
		return CastResult{Status: CastAllMatch}
	case bytecode.CmpLt, bytecode.CmpLe:
		if below {
			return CastResult{Status: CastNoneMatch}
		}
		return CastResult{Status: CastAllMatch}
	default: // Gt, Ge
		if below {
			return CastResult{Status: CastAllMatch}
		}
		return CastResult{Status: CastNoneMatch}
	}
}
