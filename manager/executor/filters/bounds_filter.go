package filters

import (
	"math"

	"github.com/dot5enko/colstore/manager/query"
	"github.com/dot5enko/colstore/schema"
)

// integers up to 2^53 convert to float64 without rounding
const exactFloatInt = 1 << 53

// ProcessFilterOnBounds decides from a column block header alone whether no
// row, every row or some rows of the segment can match.
// present is false for columns the segment predates, which read as nulls.
func ProcessFilterOnBounds(filter query.CompiledFilter, header schema.ColumnBlockHeader, present bool, rows int) schema.BoundsFilterMatchResult {

	if filter.MatchNothing {
		return schema.NoIntersection
	}

	nulls := rows
	if present {
		nulls = int(header.NullCount)
	}

	if filter.Operand.Null {
		matchesNulls := filter.Comparator == query.Equals

		switch {
		case nulls == rows && matchesNulls, nulls == 0 && !matchesNulls:
			return schema.FullIntersection
		case nulls == 0 && matchesNulls, nulls == rows && !matchesNulls:
			return schema.NoIntersection
		}
		return schema.PartialIntersection
	}

	if nulls == rows {
		return schema.NoIntersection
	}

	if !header.HasBounds {
		return schema.UnknownIntersection
	}

	var operand float64
	switch filter.Type {
	case schema.Int64FieldType, schema.DateTimeFieldType:
		operand = float64(filter.Operand.Int)
	case schema.Float64FieldType:
		operand = filter.Operand.Float
		if math.IsNaN(operand) {
			return schema.UnknownIntersection
		}
	default:
		return schema.UnknownIntersection
	}

	bounds := header.Bounds
	exact := filter.Type == schema.Float64FieldType ||
		(math.Abs(bounds.Min) <= exactFloatInt && math.Abs(bounds.Max) <= exactFloatInt && math.Abs(operand) <= exactFloatInt)

	result := matchBounds(filter.Comparator, operand, bounds, exact)

	// bounds only describe non-null rows
	if result == schema.FullIntersection && nulls > 0 {
		return schema.PartialIntersection
	}

	// NaN fails every comparison except NotEquals, and bounds skip it
	if header.HasNaN {
		switch {
		case result == schema.FullIntersection && filter.Comparator != query.NotEquals:
			return schema.PartialIntersection
		case result == schema.NoIntersection && filter.Comparator == query.NotEquals:
			return schema.PartialIntersection
		}
	}

	return result
}

// Float conversion of large integers is monotonic but lossy, so ties only
// decide the outcome when the comparison is exact.
func matchBounds(cmp query.Comparator, operand float64, bounds schema.BoundsFloat, exact bool) schema.BoundsFilterMatchResult {

	outside := operand < bounds.Min || operand > bounds.Max
	single := exact && bounds.Min == bounds.Max && bounds.Min == operand

	switch cmp {
	case query.Equals:
		if outside {
			return schema.NoIntersection
		}
		if single {
			return schema.FullIntersection
		}

	case query.NotEquals:
		if single {
			return schema.NoIntersection
		}
		if outside {
			return schema.FullIntersection
		}

	case query.GreaterThan:
		if operand > bounds.Max || (exact && operand == bounds.Max) {
			return schema.NoIntersection
		}
		if operand < bounds.Min {
			return schema.FullIntersection
		}

	case query.GreaterOrEqual:
		if operand > bounds.Max {
			return schema.NoIntersection
		}
		if operand < bounds.Min || (exact && operand == bounds.Min) {
			return schema.FullIntersection
		}

	case query.LessThan:
		if operand < bounds.Min || (exact && operand == bounds.Min) {
			return schema.NoIntersection
		}
		if operand > bounds.Max {
			return schema.FullIntersection
		}

	case query.LessOrEqual:
		if operand < bounds.Min {
			return schema.NoIntersection
		}
		if operand > bounds.Max || (exact && operand == bounds.Max) {
			return schema.FullIntersection
		}

	default:
		return schema.UnknownIntersection
	}

	return schema.PartialIntersection
}
