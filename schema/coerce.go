package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// IsEmptyInput reports whether an ingested field counts as missing.
func IsEmptyInput(in any) bool {
	switch v := in.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case Value:
		return v.Null || (v.Type == StringFieldType && strings.TrimSpace(v.Str) == "")
	case *Value:
		return v == nil || IsEmptyInput(*v)
	default:
		return false
	}
}

func coerceErr(typ FieldType, in any) error {
	return fmt.Errorf("%w: %T(%v) into %s", ErrCoercion, in, in, typ.String())
}

// Coerce converts an ingested Go value into the column type.
// Empty input becomes a null; unusable input returns ErrCoercion.
func Coerce(typ FieldType, in any) (Value, error) {
	if v, ok := in.(*Value); ok && v != nil {
		in = *v
	}

	if v, ok := in.(Value); ok {
		if v.Null {
			return NullValue(typ), nil
		}
		if v.Type == typ {
			return v, nil
		}
		in = v.Any()
	}

	if IsEmptyInput(in) {
		if typ == StringFieldType {
			if s, ok := in.(string); ok {
				return StringValue(s), nil
			}
		}
		return NullValue(typ), nil
	}

	switch typ {
	case Int64FieldType:
		return coerceInt(in)
	case Float64FieldType:
		return coerceFloat(in)
	case DecimalFieldType:
		return coerceDecimal(in)
	case BoolFieldType:
		return coerceBool(in)
	case StringFieldType:
		return coerceString(in), nil
	case DateTimeFieldType:
		return coerceDateTime(in)
	default:
		return NullValue(typ), fmt.Errorf("%w: unsupported column type %d", ErrSchema, typ)
	}
}

func asInt64(in any) (int64, bool) {
	switch v := in.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	}
	return 0, false
}

func asFloat64(in any) (float64, bool) {
	switch v := in.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	if i, ok := asInt64(in); ok {
		return float64(i), true
	}
	return 0, false
}

func coerceInt(in any) (Value, error) {
	if i, ok := asInt64(in); ok {
		return Int64Value(i), nil
	}

	switch v := in.(type) {
	case float64, float32:
		f, _ := asFloat64(v)
		if f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
			return Int64Value(int64(f)), nil
		}
	case decimal.Decimal:
		if v.IsInteger() && v.BigInt().IsInt64() {
			return Int64Value(v.IntPart()), nil
		}
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err == nil {
			return Int64Value(i), nil
		}
	}

	return NullValue(Int64FieldType), coerceErr(Int64FieldType, in)
}

func coerceFloat(in any) (Value, error) {
	if f, ok := asFloat64(in); ok {
		return Float64Value(f), nil
	}

	switch v := in.(type) {
	case decimal.Decimal:
		f, _ := v.Float64()
		return Float64Value(f), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return Float64Value(f), nil
		}
	}

	return NullValue(Float64FieldType), coerceErr(Float64FieldType, in)
}

func coerceDecimal(in any) (Value, error) {
	if i, ok := asInt64(in); ok {
		return DecimalValue(decimal.NewFromInt(i)), nil
	}

	switch v := in.(type) {
	case decimal.Decimal:
		return DecimalValue(v), nil
	case float64:
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return DecimalValue(decimal.NewFromFloat(v)), nil
		}
	case float32:
		return DecimalValue(decimal.NewFromFloat32(v)), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err == nil {
			return DecimalValue(d), nil
		}
	}

	return NullValue(DecimalFieldType), coerceErr(DecimalFieldType, in)
}

// parseBoolText accepts only spelled-out booleans so numeric 0/1 columns stay numeric.
func parseBoolText(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	}
	return false, false
}

func coerceBool(in any) (Value, error) {
	switch v := in.(type) {
	case bool:
		return BoolValue(v), nil
	case string:
		if b, ok := parseBoolText(v); ok {
			return BoolValue(b), nil
		}
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return BoolValue(b), nil
		}
	default:
		if i, ok := asInt64(in); ok && (i == 0 || i == 1) {
			return BoolValue(i == 1), nil
		}
	}

	return NullValue(BoolFieldType), coerceErr(BoolFieldType, in)
}

func coerceString(in any) Value {
	switch v := in.(type) {
	case string:
		return StringValue(v)
	case fmt.Stringer:
		return StringValue(v.String())
	case time.Time:
		return StringValue(v.UTC().Format(time.RFC3339Nano))
	case float64:
		return StringValue(strconv.FormatFloat(v, 'f', -1, 64))
	case bool:
		return StringValue(strconv.FormatBool(v))
	}
	if i, ok := asInt64(in); ok {
		return StringValue(strconv.FormatInt(i, 10))
	}
	return StringValue(fmt.Sprint(in))
}

func parseDateTimeText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateTime values outside the unix-nanosecond range (years 1678..2262) are rejected.
func coerceDateTime(in any) (Value, error) {
	var t time.Time
	ok := false

	switch v := in.(type) {
	case time.Time:
		t, ok = v, true
	case string:
		t, ok = parseDateTimeText(v)
	default:
		// integers are unix seconds
		if sec, isInt := asInt64(in); isInt {
			t, ok = time.Unix(sec, 0), true
		}
	}

	if ok && t.Year() > 1677 && t.Year() < 2262 {
		return DateTimeValue(t), nil
	}

	return NullValue(DateTimeFieldType), coerceErr(DateTimeFieldType, in)
}
