package filters

import (
	"github.com/dot5enko/colstore/bits"
	"github.com/dot5enko/colstore/manager/query"
	"github.com/dot5enko/colstore/ops"
	"github.com/dot5enko/colstore/schema"
)

// ProcessNumericFilter runs the unrolled kernel for cmp, ORing matches into out.
func ProcessNumericFilter[T ops.NumericTypes](cmp query.Comparator, arr []T, operand T, out []uint64) {
	switch cmp {
	case query.Equals:
		ops.CompareValuesAreEqual(arr, operand, out)
	case query.NotEquals:
		ops.CompareValuesAreNotEqual(arr, operand, out)
	case query.GreaterThan:
		ops.CompareValuesAreBigger(arr, operand, out)
	case query.GreaterOrEqual:
		ops.CompareValuesAreBiggerOrEqual(arr, operand, out)
	case query.LessThan:
		ops.CompareValuesAreSmaller(arr, operand, out)
	case query.LessOrEqual:
		ops.CompareValuesAreSmallerOrEqual(arr, operand, out)
	}
}

// ProcessFilterOnColumn sets the bit of every row of vec matching the filter.
// out must be cleared and hold vec.Len() bits.
// It reports whether the vectorized kernels were used.
func ProcessFilterOnColumn(filter query.CompiledFilter, vec *schema.ColumnVector, out *bits.Bitfield) bool {

	if filter.MatchNothing {
		return false
	}

	if filter.Operand.Null {
		if vec.Nulls != nil {
			out.Or(vec.Nulls)
		}
		if filter.Comparator == query.NotEquals {
			out.Not()
		}
		return false
	}

	vectorized := true

	switch vec.Type {
	case schema.Int64FieldType, schema.DateTimeFieldType:
		ProcessNumericFilter(filter.Comparator, vec.Ints, filter.Operand.Int, out.Words())
	case schema.Float64FieldType:
		ProcessNumericFilter(filter.Comparator, vec.Floats, filter.Operand.Float, out.Words())
	default:
		vectorized = false
		for i := 0; i < vec.Len(); i++ {
			if filter.Matches(vec.Value(i)) {
				out.Set(i)
			}
		}
	}

	// nulls hold zero values in the typed slices
	if vectorized && vec.Nulls != nil {
		vec.Nulls.ForEach(func(bit int) bool {
			out.Clear(bit)
			return true
		})
	}

	return vectorized
}
