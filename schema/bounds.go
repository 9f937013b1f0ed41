package schema

import (
	"github.com/dot5enko/colstore/bits"
	"golang.org/x/exp/constraints"
)

type NumericTypes interface {
	constraints.Integer | constraints.Float
}

type Bounds[T NumericTypes] struct {
	Min T
	Max T
}

const BoundsSize = 8 + 8

type BoundsFloat struct {
	Min float64
	Max float64
}

type BoundsFilterMatchResult uint8

const (
	UnknownIntersection BoundsFilterMatchResult = iota
	NoIntersection
	PartialIntersection
	FullIntersection
)

func (r BoundsFilterMatchResult) String() string {
	switch r {
	case NoIntersection:
		return "none"
	case PartialIntersection:
		return "partial"
	case FullIntersection:
		return "full"
	default:
		return "unknown"
	}
}

func NewBoundsFromValues(a, b float64) BoundsFloat {
	if a > b {
		a, b = b, a
	}
	return BoundsFloat{Min: a, Max: b}
}

func (b *BoundsFloat) Morph(other BoundsFloat) bool {

	changes := 0

	if other.Min < b.Min {
		b.Min = other.Min
		changes += 1
	}
	if other.Max > b.Max {
		b.Max = other.Max
		changes += 1
	}

	return changes != 0
}

func (b BoundsFloat) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Intersects reports how much of b is covered by the closed range other.
func (b BoundsFloat) Intersects(other BoundsFloat) BoundsFilterMatchResult {
	if other.Max < b.Min || other.Min > b.Max {
		return NoIntersection
	}
	if other.Min <= b.Min && other.Max >= b.Max {
		return FullIntersection
	}
	return PartialIntersection
}

func GetMaxMinBoundsFloat[T NumericTypes](arr []T) BoundsFloat {

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
	return BoundsFloat{
		Min: float64(resultBounds.Min),
		Max: float64(resultBounds.Max),
	}
}

func (header *BoundsFloat) FromBytes(reader *bits.BitsReader) error {

	header.Max = reader.MustReadF64()
	header.Min = reader.MustReadF64()

	return reader.Err()
}

func (header *BoundsFloat) WriteTo(bw *bits.BitWriter) int {

	bw.PutFloat64(header.Max)
	bw.PutFloat64(header.Min)

	return bw.Position()
}
