package schema

import (
	"fmt"

	"github.com/dot5enko/colstore/bits"
	"github.com/shopspring/decimal"
)

// ColumnVector is the decoded, in-memory form of one column of a segment.
// Exactly one typed slice is populated; it always holds Len() entries,
// zero valued at null positions.
type ColumnVector struct {
	Type FieldType

	Ints   []int64 // Int64 and DateTime
	Floats []float64
	Bools  []bool
	Strs   []string
	Decs   []decimal.Decimal

	// Nulls has a set bit for every null row, nil when the column has none.
	Nulls *bits.Bitfield

	items int
}

func NewColumnVector(typ FieldType, capacity int) *ColumnVector {
	v := &ColumnVector{Type: typ}

	switch typ {
	case Int64FieldType, DateTimeFieldType:
		v.Ints = make([]int64, 0, capacity)
	case Float64FieldType:
		v.Floats = make([]float64, 0, capacity)
	case BoolFieldType:
		v.Bools = make([]bool, 0, capacity)
	case StringFieldType:
		v.Strs = make([]string, 0, capacity)
	case DecimalFieldType:
		v.Decs = make([]decimal.Decimal, 0, capacity)
	}

	return v
}

// NullColumnVector returns rows nulls, used for columns a segment predates.
func NullColumnVector(typ FieldType, rows int) *ColumnVector {
	v := NewColumnVector(typ, rows)
	for i := 0; i < rows; i++ {
		v.Append(NullValue(typ))
	}
	return v
}

func (v *ColumnVector) Len() int {
	return v.items
}

// Seal fixes the length of a vector whose typed slice was filled directly.
func (v *ColumnVector) Seal(rows int) {
	v.items = rows
}

func (v *ColumnVector) NullCount() int {
	if v.Nulls == nil {
		return 0
	}
	return v.Nulls.Count()
}

func (v *ColumnVector) IsNull(i int) bool {
	return v.Nulls != nil && v.Nulls.Get(i)
}

func (v *ColumnVector) markNull(i int) {
	if v.Nulls == nil {
		v.Nulls = bits.NewBitfield(v.items, false)
	}
	for v.Nulls.Len() <= i {
		v.Nulls.Append(false)
	}
	v.Nulls.Set(i)
}

// Append adds a value already coerced to the vector type.
func (v *ColumnVector) Append(val Value) {
	idx := v.items
	v.items++

	if v.Nulls != nil {
		v.Nulls.Append(false)
	}
	if val.Null {
		v.markNull(idx)
	}

	switch v.Type {
	case Int64FieldType, DateTimeFieldType:
		v.Ints = append(v.Ints, val.Int)
	case Float64FieldType:
		v.Floats = append(v.Floats, val.Float)
	case BoolFieldType:
		v.Bools = append(v.Bools, val.Bool)
	case StringFieldType:
		v.Strs = append(v.Strs, val.Str)
	case DecimalFieldType:
		v.Decs = append(v.Decs, val.Dec)
	default:
		panic(fmt.Sprintf("unsupported type when appending to column vector: %d", v.Type))
	}
}

func (v *ColumnVector) Value(i int) Value {
	if v.IsNull(i) {
		return NullValue(v.Type)
	}

	switch v.Type {
	case Int64FieldType, DateTimeFieldType:
		return Value{Type: v.Type, Int: v.Ints[i]}
	case Float64FieldType:
		return Float64Value(v.Floats[i])
	case BoolFieldType:
		return BoolValue(v.Bools[i])
	case StringFieldType:
		return StringValue(v.Strs[i])
	case DecimalFieldType:
		return DecimalValue(v.Decs[i])
	}
	return NullValue(v.Type)
}

// Gather copies the listed rows into a new vector.
func (v *ColumnVector) Gather(rows []uint32) *ColumnVector {
	out := NewColumnVector(v.Type, len(rows))
	for _, r := range rows {
		out.Append(v.Value(int(r)))
	}
	return out
}

// NaNCount counts non-null NaN cells of a Float64 vector.
func (v *ColumnVector) NaNCount() int {
	if v.Type != Float64FieldType {
		return 0
	}

	n := 0
	for i, f := range v.Floats[:v.items] {
		if f != f && !v.IsNull(i) {
			n++
		}
	}
	return n
}

// Bounds returns min/max over non-null numeric values, NaN excluded.
func (v *ColumnVector) Bounds() (BoundsFloat, bool) {
	var (
		result BoundsFloat
		found  bool
	)

	for i := 0; i < v.items; i++ {
		if v.IsNull(i) {
			continue
		}

		var f float64
		switch v.Type {
		case Int64FieldType, DateTimeFieldType:
			f = float64(v.Ints[i])
		case Float64FieldType:
			f = v.Floats[i]
			if f != f {
				continue
			}
		default:
			return result, false
		}

		if !found {
			result = BoundsFloat{Min: f, Max: f}
			found = true
			continue
		}
		result.Morph(BoundsFloat{Min: f, Max: f})
	}

	return result, found
}
