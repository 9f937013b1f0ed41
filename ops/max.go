package ops

import "github.com/dot5enko/colstore/bits"

type Bounds[T NumericTypes] struct {
	Min T
	Max T
}

func (b *Bounds[T]) Morph(other Bounds[T]) {
	if other.Min < b.Min {
		b.Min = other.Min
	}
	if other.Max > b.Max {
		b.Max = other.Max
	}
}

// GetMaxMin expects a non-empty slice.
func GetMaxMin[T NumericTypes](arr []T) Bounds[T] {

	resultBounds := Bounds[T]{
		Min: arr[0],
		Max: arr[0],
	}

	for _, v := range arr[1:] {
		if v < resultBounds.Min {
			resultBounds.Min = v
		}
		if v > resultBounds.Max {
			resultBounds.Max = v
		}
	}
	return resultBounds
}

func Sum[T NumericTypes](arr []T) T {
	var s0, s1, s2, s3 T

	n := len(arr)
	i := 0
	for ; i+3 < n; i += 4 {
		s0 += arr[i]
		s1 += arr[i+1]
		s2 += arr[i+2]
		s3 += arr[i+3]
	}
	for ; i < n; i++ {
		s0 += arr[i]
	}
	return s0 + s1 + s2 + s3
}

// SelectedAggregate folds the values whose bit is set in sel.
type SelectedAggregate[T NumericTypes] struct {
	Sum    T
	Count  int
	Bounds Bounds[T]
}

func AggregateSelected[T NumericTypes](arr []T, sel *bits.Bitfield) SelectedAggregate[T] {
	var result SelectedAggregate[T]

	sel.ForEach(func(i int) bool {
		v := arr[i]
		if result.Count == 0 {
			result.Bounds = Bounds[T]{Min: v, Max: v}
		} else {
			result.Bounds.Morph(Bounds[T]{Min: v, Max: v})
		}
		result.Sum += v
		result.Count++
		return true
	})

	return result
}
