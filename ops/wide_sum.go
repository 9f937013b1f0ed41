package ops

import (
	mathbits "math/bits"

	"github.com/dot5enko/colstore/bits"
)

// WideSum is a 128-bit two's complement sum of int64 values; it cannot overflow
// for fewer than 2^64 terms.
type WideSum struct {
	Hi int64
	Lo uint64
}

func (s *WideSum) Add(v int64) {
	lo, carry := mathbits.Add64(s.Lo, uint64(v), 0)
	s.Hi += v>>63 + int64(carry)
	s.Lo = lo
}

func (s *WideSum) Merge(other WideSum) {
	lo, carry := mathbits.Add64(s.Lo, other.Lo, 0)
	s.Hi += other.Hi + int64(carry)
	s.Lo = lo
}

// Int64 reports false when the sum does not fit.
func (s WideSum) Int64() (int64, bool) {
	v := int64(s.Lo)
	return v, s.Hi == v>>63
}

func (s WideSum) Float64() float64 {
	if v, ok := s.Int64(); ok {
		return float64(v)
	}
	return float64(s.Hi)*0x1p64 + float64(s.Lo)
}

// SumSelectedWide adds the values whose bit is set in sel.
func SumSelectedWide(arr []int64, sel *bits.Bitfield) (WideSum, int) {
	var (
		sum   WideSum
		count int
	)

	sel.ForEach(func(i int) bool {
		sum.Add(arr[i])
		count++
		return true
	})

	return sum, count
}
