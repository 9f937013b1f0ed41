package main

import (
	"math"
	"math/rand"
	"testing"

	"github.com/dot5enko/colstore/bits"
	"github.com/dot5enko/colstore/ops"
)

func TestBiggerTail(t *testing.T) {
	input := []int64{1050, 9000, 2000}

	out := bits.NewBitfield(len(input), false)
	ops.CompareValuesAreBigger(input, 1500, out.Words())

	if out.Count() != 2 {
		t.Errorf("Expected %d but got %d", 2, out.Count())
	} else if !out.Get(2) {
		t.Errorf("Expected bit %d to be set", 2)
	}
}

func TestEqualBlockAndTailFloat(t *testing.T) {
	input := []float64{0, 0, 0, 1, 0, 0, 0, 7000, 1500, 7000}

	out := bits.NewBitfield(len(input), false)
	ops.CompareValuesAreEqual(input, 7000, out.Words())

	indices := make([]uint32, len(input))
	n := out.ToIndices(indices)

	if n != 2 {
		t.Errorf("Expected %d but got %d", 2, n)
	} else if indices[0] != 7 || indices[1] != 9 {
		t.Errorf("Expected [7 9] but got %v", indices[:n])
	}
}

func TestKernelsAcrossWordBoundary(t *testing.T) {
	size := 200
	input := make([]int64, size)
	for i := range input {
		input[i] = int64(i)
	}

	cases := []struct {
		name   string
		kernel func([]int64, int64, []uint64)
		expect int
	}{
		{"eq", ops.CompareValuesAreEqual[int64], 1},
		{"ne", ops.CompareValuesAreNotEqual[int64], size - 1},
		{"gt", ops.CompareValuesAreBigger[int64], size - 101},
		{"ge", ops.CompareValuesAreBiggerOrEqual[int64], size - 100},
		{"lt", ops.CompareValuesAreSmaller[int64], 100},
		{"le", ops.CompareValuesAreSmallerOrEqual[int64], 101},
	}

	for _, tc := range cases {
		out := bits.NewBitfield(size, false)
		tc.kernel(input, 100, out.Words())

		if out.Count() != tc.expect {
			t.Errorf("%s: Expected %d but got %d", tc.name, tc.expect, out.Count())
		}
	}
}

func TestAggregateSelected(t *testing.T) {
	input := []float64{5, -1, 8, 3}

	sel := bits.NewBitfield(len(input), false)
	sel.Set(1)
	sel.Set(2)

	agg := ops.AggregateSelected(input, sel)

	if agg.Count != 2 || agg.Sum != 7 {
		t.Errorf("Expected count 2 sum 7 but got %d %.2f", agg.Count, agg.Sum)
	}
	if agg.Bounds.Min != -1 || agg.Bounds.Max != 8 {
		t.Errorf("Expected bounds [-1, 8] but got [%.2f, %.2f]", agg.Bounds.Min, agg.Bounds.Max)
	}

	if s := ops.Sum([]int64{1, 2, 3, 4, 5, 6, 7}); s != 28 {
		t.Errorf("Expected %d but got %d", 28, s)
	}
}

func TestSumSelectedWideDoesNotWrap(t *testing.T) {
	input := []int64{math.MaxInt64, 7, math.MaxInt64, math.MinInt64}

	sel := bits.NewBitfield(len(input), false)
	sel.Set(0)
	sel.Set(2)

	sum, count := ops.SumSelectedWide(input, sel)
	if count != 2 {
		t.Errorf("Expected count 2 but got %d", count)
	}
	if _, fits := sum.Int64(); fits {
		t.Errorf("Expected 2*MaxInt64 to overflow int64")
	}
	if f := sum.Float64(); f != 2*float64(math.MaxInt64) {
		t.Errorf("Expected %g but got %g", 2*float64(math.MaxInt64), f)
	}

	sum.Add(math.MinInt64)
	sum.Add(math.MinInt64)
	if v, fits := sum.Int64(); !fits || v != -2 {
		t.Errorf("Expected -2 to fit but got %d (fits=%v)", v, fits)
	}

	var negative ops.WideSum
	negative.Add(-3)
	negative.Merge(sum)
	if v, fits := negative.Int64(); !fits || v != -5 {
		t.Errorf("Expected -5 but got %d", v)
	}
	if f := negative.Float64(); f != -5 {
		t.Errorf("Expected -5 but got %g", f)
	}

	var low ops.WideSum
	low.Add(math.MinInt64)
	low.Add(-1)
	if _, fits := low.Int64(); fits {
		t.Errorf("Expected MinInt64-1 to overflow int64")
	}
	if f := low.Float64(); f != float64(math.MinInt64)-1 {
		t.Errorf("Expected %g but got %g", float64(math.MinInt64)-1, f)
	}
}

func BenchmarkBiggerInt64(b *testing.B) {

	size := 40000

	var cmp int64 = 4096

	totalCount := 0

	input := make([]int64, size)

	for i := 0; i < size; i++ {
		val := rand.Int63n(50000)
		input[i] = val

		if val > cmp {
			totalCount++
		}
	}

	out := bits.NewBitfield(size, false)

	for b.Loop() {
		out.Reset()
		ops.CompareValuesAreBigger(input, cmp, out.Words())
		if totalBenchCount := out.Count(); totalCount != totalBenchCount {
			b.Fatalf("Benchmark failed: expected %d but got %d", totalCount, totalBenchCount)
		}
	}

}

func BenchmarkEqualFloats(b *testing.B) {

	size := 40000

	input := make([]float64, size)

	for i := 0; i < size; i++ {
		input[i] = float64(rand.Int63n(64))
	}

	out := bits.NewBitfield(size, false)

	for b.Loop() {
		out.Reset()
		ops.CompareValuesAreEqual(input, 7, out.Words())
	}

}
