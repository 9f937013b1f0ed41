package schema

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Value is a typed, nullable cell.
// Int64 and DateTime share Int (DateTime is unix nanoseconds, UTC).
type Value struct {
	Type FieldType
	Null bool

	Int   int64
	Float float64
	Bool  bool
	Str   string
	Dec   decimal.Decimal
}

// Row is one ingested record keyed by column name.
type Row map[string]any

func NullValue(t FieldType) Value {
	return Value{Type: t, Null: true}
}

func Int64Value(v int64) Value {
	return Value{Type: Int64FieldType, Int: v}
}

func Float64Value(v float64) Value {
	return Value{Type: Float64FieldType, Float: v}
}

func DecimalValue(v decimal.Decimal) Value {
	return Value{Type: DecimalFieldType, Dec: v}
}

func BoolValue(v bool) Value {
	return Value{Type: BoolFieldType, Bool: v}
}

func StringValue(v string) Value {
	return Value{Type: StringFieldType, Str: v}
}

func DateTimeValue(t time.Time) Value {
	return Value{Type: DateTimeFieldType, Int: t.UnixNano()}
}

func (v Value) Time() time.Time {
	return time.Unix(0, v.Int).UTC()
}

// Any returns the native Go value, nil for nulls.
func (v Value) Any() any {
	if v.Null {
		return nil
	}

	switch v.Type {
	case Int64FieldType:
		return v.Int
	case Float64FieldType:
		return v.Float
	case DecimalFieldType:
		return v.Dec
	case BoolFieldType:
		return v.Bool
	case StringFieldType:
		return v.Str
	case DateTimeFieldType:
		return v.Time()
	default:
		return nil
	}
}

// Float converts numeric values for bounds checks and means.
func (v Value) AsFloat() float64 {
	switch v.Type {
	case Int64FieldType, DateTimeFieldType:
		return float64(v.Int)
	case Float64FieldType:
		return v.Float
	case DecimalFieldType:
		f, _ := v.Dec.Float64()
		return f
	case BoolFieldType:
		if v.Bool {
			return 1
		}
		return 0
	default:
		return math.NaN()
	}
}

// Compare orders two non-null values of the same type.
func (v Value) Compare(other Value) int {
	switch v.Type {
	case Int64FieldType, DateTimeFieldType:
		return cmp.Compare(v.Int, other.Int)
	case Float64FieldType:
		return cmp.Compare(v.Float, other.Float)
	case DecimalFieldType:
		return v.Dec.Cmp(other.Dec)
	case BoolFieldType:
		if v.Bool == other.Bool {
			return 0
		}
		if !v.Bool {
			return -1
		}
		return 1
	case StringFieldType:
		return strings.Compare(v.Str, other.Str)
	default:
		return 0
	}
}

// Equal treats two nulls as equal.
func (v Value) Equal(other Value) bool {
	if v.Null || other.Null {
		return v.Null == other.Null
	}
	if v.Type != other.Type {
		return false
	}
	return v.Compare(other) == 0
}

// GroupKey is a comparable representation used for hash grouping.
type GroupKey struct {
	null bool
	nan  bool
	i    int64
	f    float64
	s    string
}

func (v Value) Key() GroupKey {
	if v.Null {
		return GroupKey{null: true}
	}

	switch v.Type {
	case Int64FieldType, DateTimeFieldType:
		return GroupKey{i: v.Int}
	case Float64FieldType:
		if v.Float != v.Float {
			return GroupKey{nan: true}
		}
		return GroupKey{f: v.Float}
	case BoolFieldType:
		if v.Bool {
			return GroupKey{i: 1}
		}
		return GroupKey{}
	case DecimalFieldType:
		// normalized so 1.0 and 1.00 group together
		return GroupKey{s: v.Dec.String()}
	default:
		return GroupKey{s: v.Str}
	}
}

func (v Value) String() string {
	if v.Null {
		return "NULL"
	}

	switch v.Type {
	case Int64FieldType:
		return strconv.FormatInt(v.Int, 10)
	case Float64FieldType:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case DecimalFieldType:
		return v.Dec.String()
	case BoolFieldType:
		return strconv.FormatBool(v.Bool)
	case StringFieldType:
		return v.Str
	case DateTimeFieldType:
		return v.Time().Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("<%d>", v.Type)
	}
}
