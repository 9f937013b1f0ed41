package schema

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var inferencePrecedence = []FieldType{
	BoolFieldType,
	Int64FieldType,
	Float64FieldType,
	DecimalFieldType,
	DateTimeFieldType,
}

func unwrapSample(in any) any {
	switch v := in.(type) {
	case Value:
		return v.Any()
	case *Value:
		if v == nil {
			return nil
		}
		return v.Any()
	}
	return in
}

// accepts is stricter than Coerce: a typed sample only votes for its own kind.
func accepts(typ FieldType, in any) bool {
	if s, ok := in.(string); ok {
		s = strings.TrimSpace(s)
		switch typ {
		case BoolFieldType:
			_, ok := parseBoolText(s)
			return ok
		case Int64FieldType:
			_, err := strconv.ParseInt(s, 10, 64)
			return err == nil
		case Float64FieldType:
			_, err := strconv.ParseFloat(s, 64)
			return err == nil
		case DecimalFieldType:
			// decimal never wins on text alone
			return false
		case DateTimeFieldType:
			_, ok := parseDateTimeText(s)
			return ok
		}
		return false
	}

	_, isInt := asInt64(in)

	switch typ {
	case BoolFieldType:
		_, ok := in.(bool)
		return ok
	case Int64FieldType:
		return isInt
	case Float64FieldType:
		switch in.(type) {
		case float32, float64:
			return true
		}
		return isInt
	case DecimalFieldType:
		_, ok := in.(decimal.Decimal)
		return ok
	case DateTimeFieldType:
		_, ok := in.(time.Time)
		return ok
	}
	return false
}

// InferType picks the first type in precedence order that accepts every non-empty sample.
// All-empty samples fall back to String.
func InferType(samples []any) FieldType {
	values := make([]any, 0, len(samples))
	hasDecimal := false

	for _, s := range samples {
		s = unwrapSample(s)
		if IsEmptyInput(s) {
			continue
		}
		if _, ok := s.(decimal.Decimal); ok {
			hasDecimal = true
		}
		values = append(values, s)
	}

	if len(values) == 0 {
		return StringFieldType
	}

	if hasDecimal {
		for _, v := range values {
			if _, ok := v.(decimal.Decimal); ok {
				continue
			}
			if _, ok := asFloat64(v); ok {
				continue
			}
			if s, ok := v.(string); ok {
				if _, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
					continue
				}
			}
			return StringFieldType
		}
		return DecimalFieldType
	}

	for _, typ := range inferencePrecedence {
		all := true
		for _, v := range values {
			if !accepts(typ, v) {
				all = false
				break
			}
		}
		if all {
			return typ
		}
	}

	return StringFieldType
}

// Infer builds a schema from sampled rows.
// Column order follows order when given, otherwise names sorted lexicographically.
func Infer(name string, rows []Row, order []string) (Schema, error) {
	samples := map[string][]any{}
	for _, row := range rows {
		for k, v := range row {
			samples[k] = append(samples[k], v)
		}
	}

	var names []string
	if len(order) > 0 {
		names = order
		for k := range samples {
			if !slices.Contains(order, k) {
				return Schema{}, fmt.Errorf("%w: column `%s` missing from inference order", ErrSchema, k)
			}
		}
	} else {
		names = make([]string, 0, len(samples))
		for k := range samples {
			names = append(names, k)
		}
		slices.Sort(names)
	}

	columns := make([]SchemaColumn, 0, len(names))
	for _, n := range names {
		columns = append(columns, SchemaColumn{
			Name: n,
			Type: InferType(samples[n]),
		})
	}

	return Declare(name, columns)
}
