package filters

import (
	"math"
	"testing"

	"github.com/dot5enko/colstore/bits"
	"github.com/dot5enko/colstore/manager/query"
	"github.com/dot5enko/colstore/schema"
)

func floatHeader(min, max float64, nulls uint32) schema.ColumnBlockHeader {
	return schema.ColumnBlockHeader{
		DataType:  schema.Float64FieldType,
		NullCount: nulls,
		HasBounds: true,
		Bounds:    schema.NewBoundsFromValues(min, max),
	}
}

func floatFilter(cmp query.Comparator, v float64) query.CompiledFilter {
	return query.CompiledFilter{
		Type:       schema.Float64FieldType,
		Comparator: cmp,
		Operand:    schema.Float64Value(v),
	}
}

func TestHeaderFullIntersectFilter(t *testing.T) {

	matchResult := ProcessFilterOnBounds(floatFilter(query.GreaterThan, 0.4999), floatHeader(0.5, 0.8, 0), true, 100)

	if matchResult != schema.FullIntersection {
		t.Errorf("expected full intersection, got %s", matchResult.String())
	}
}

func TestHeaderNoIntersectFilter(t *testing.T) {

	matchResult := ProcessFilterOnBounds(floatFilter(query.LessThan, 0.4999), floatHeader(0.5, 0.8, 0), true, 100)

	if matchResult != schema.NoIntersection {
		t.Errorf("expected no intersection, got %s", matchResult.String())
	}
}

func TestHeaderPartialIntersectFilter(t *testing.T) {

	matchResult := ProcessFilterOnBounds(floatFilter(query.LessThan, 0.5999), floatHeader(0.5, 0.8, 0), true, 100)

	if matchResult != schema.PartialIntersection {
		t.Errorf("expected partial intersection, got %s", matchResult.String())
	}
}

func TestHeaderBoundaryTies(t *testing.T) {
	header := floatHeader(0.5, 0.8, 0)

	cases := []struct {
		cmp      query.Comparator
		operand  float64
		expected schema.BoundsFilterMatchResult
	}{
		{query.GreaterThan, 0.8, schema.NoIntersection},
		{query.GreaterOrEqual, 0.8, schema.PartialIntersection},
		{query.GreaterOrEqual, 0.5, schema.FullIntersection},
		{query.LessThan, 0.5, schema.NoIntersection},
		{query.LessOrEqual, 0.8, schema.FullIntersection},
		{query.Equals, 0.9, schema.NoIntersection},
		{query.NotEquals, 0.9, schema.FullIntersection},
		{query.NotEquals, 0.6, schema.PartialIntersection},
	}

	for _, tc := range cases {
		if got := ProcessFilterOnBounds(floatFilter(tc.cmp, tc.operand), header, true, 100); got != tc.expected {
			t.Errorf("%s %v: expected %s but got %s", tc.cmp, tc.operand, tc.expected, got)
		}
	}
}

func TestHeaderNullsPreventFullIntersection(t *testing.T) {

	matchResult := ProcessFilterOnBounds(floatFilter(query.GreaterThan, 0.1), floatHeader(0.5, 0.8, 3), true, 100)
	if matchResult != schema.PartialIntersection {
		t.Errorf("expected partial intersection, got %s", matchResult.String())
	}

	isNull := query.CompiledFilter{Type: schema.Float64FieldType, Comparator: query.Equals, Operand: schema.NullValue(schema.Float64FieldType)}
	if got := ProcessFilterOnBounds(isNull, floatHeader(0.5, 0.8, 0), true, 100); got != schema.NoIntersection {
		t.Errorf("expected no intersection, got %s", got)
	}
	if got := ProcessFilterOnBounds(isNull, schema.ColumnBlockHeader{}, false, 100); got != schema.FullIntersection {
		t.Errorf("expected missing column to be all nulls, got %s", got)
	}
	if got := ProcessFilterOnBounds(floatFilter(query.Equals, 1), schema.ColumnBlockHeader{}, false, 100); got != schema.NoIntersection {
		t.Errorf("expected no intersection on missing column, got %s", got)
	}
}

func TestHeaderNaNPreventsFullIntersection(t *testing.T) {
	header := floatHeader(1, 2, 0)
	header.HasNaN = true

	cases := []struct {
		cmp      query.Comparator
		operand  float64
		expected schema.BoundsFilterMatchResult
	}{
		{query.GreaterThan, 0, schema.PartialIntersection},
		{query.LessOrEqual, 2, schema.PartialIntersection},
		{query.GreaterThan, 2, schema.NoIntersection},
		{query.Equals, 3, schema.NoIntersection},
		{query.NotEquals, 3, schema.FullIntersection},
	}

	for _, tc := range cases {
		if got := ProcessFilterOnBounds(floatFilter(tc.cmp, tc.operand), header, true, 3); got != tc.expected {
			t.Errorf("%s %v: expected %s but got %s", tc.cmp, tc.operand, tc.expected, got)
		}
	}

	single := floatHeader(1, 1, 0)
	single.HasNaN = true
	if got := ProcessFilterOnBounds(floatFilter(query.NotEquals, 1), single, true, 2); got != schema.PartialIntersection {
		t.Errorf("expected NaN rows to keep NotEquals partial, got %s", got)
	}
}

// Every bounds verdict must agree with what the kernels select on the same block.
func TestHeaderAgreesWithKernelsOnNaN(t *testing.T) {
	blocks := [][]float64{
		{math.NaN(), 1, 2},
		{math.NaN(), 5, 0.5},
		{3, 3, math.NaN()},
	}
	comparators := []query.Comparator{
		query.Equals, query.NotEquals,
		query.GreaterThan, query.GreaterOrEqual,
		query.LessThan, query.LessOrEqual,
	}
	operands := []float64{0, 0.5, 0.75, 1, 2, 3, 5, 10}

	for _, values := range blocks {
		vec := schema.NewColumnVector(schema.Float64FieldType, len(values))
		for _, v := range values {
			vec.Append(schema.Float64Value(v))
		}

		header := schema.ColumnBlockHeader{DataType: schema.Float64FieldType, HasNaN: vec.NaNCount() > 0}
		header.Bounds, header.HasBounds = vec.Bounds()

		if !header.HasNaN {
			t.Fatalf("expected %v to be flagged as holding NaN", values)
		}

		for _, cmp := range comparators {
			for _, operand := range operands {
				filter := floatFilter(cmp, operand)

				out := bits.NewBitfield(vec.Len(), false)
				ProcessFilterOnColumn(filter, vec, out)
				matched := out.Count()

				switch got := ProcessFilterOnBounds(filter, header, true, vec.Len()); got {
				case schema.FullIntersection:
					if matched != vec.Len() {
						t.Errorf("%v %s %v: bounds say full but kernels matched %d of %d", values, cmp, operand, matched, vec.Len())
					}
				case schema.NoIntersection:
					if matched != 0 {
						t.Errorf("%v %s %v: bounds say none but kernels matched %d", values, cmp, operand, matched)
					}
				}
			}
		}
	}
}

func TestHeaderLargeIntegersAreNotPrunedOnTies(t *testing.T) {
	const big = int64(1_700_000_000_000_000_001)

	header := schema.ColumnBlockHeader{
		DataType:  schema.DateTimeFieldType,
		HasBounds: true,
		Bounds:    schema.NewBoundsFromValues(float64(big), float64(big)),
	}
	filter := query.CompiledFilter{
		Type:       schema.DateTimeFieldType,
		Comparator: query.GreaterThan,
		Operand:    schema.Value{Type: schema.DateTimeFieldType, Int: big - 1},
	}

	if got := ProcessFilterOnBounds(filter, header, true, 10); got != schema.PartialIntersection {
		t.Errorf("expected partial intersection, got %s", got)
	}
}

func TestProcessFilterOnColumn(t *testing.T) {
	vec := schema.NewColumnVector(schema.Int64FieldType, 10)
	for i := 0; i < 10; i++ {
		if i == 3 {
			vec.Append(schema.NullValue(schema.Int64FieldType))
			continue
		}
		vec.Append(schema.Int64Value(int64(i)))
	}

	out := bits.NewBitfield(vec.Len(), false)
	vectorized := ProcessFilterOnColumn(query.CompiledFilter{
		Type:       schema.Int64FieldType,
		Comparator: query.LessOrEqual,
		Operand:    schema.Int64Value(4),
	}, vec, out)

	if !vectorized {
		t.Errorf("expected int column to use kernels")
	}

	indices := make([]uint32, 10)
	n := out.ToIndices(indices)
	expected := []uint32{0, 1, 2, 4}

	if n != len(expected) {
		t.Fatalf("Expected %d but got %d", len(expected), n)
	}
	for i := range expected {
		if indices[i] != expected[i] {
			t.Errorf("Expected %d but got %d", expected[i], indices[i])
		}
	}

	notNull := bits.NewBitfield(vec.Len(), false)
	ProcessFilterOnColumn(query.CompiledFilter{
		Type:       schema.Int64FieldType,
		Comparator: query.NotEquals,
		Operand:    schema.NullValue(schema.Int64FieldType),
	}, vec, notNull)

	if notNull.Count() != 9 || notNull.Get(3) {
		t.Errorf("Expected 9 non-null rows but got %d", notNull.Count())
	}
}
