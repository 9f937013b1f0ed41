package schema

import (
	"fmt"
	"strings"
)

type FieldType uint8

const (
	Int64FieldType FieldType = iota + 1
	Float64FieldType
	DecimalFieldType
	BoolFieldType
	StringFieldType
	DateTimeFieldType
)

func (f FieldType) String() string {
	switch f {
	case Int64FieldType:
		return "Int64"
	case Float64FieldType:
		return "Float64"
	case DecimalFieldType:
		return "Decimal"
	case BoolFieldType:
		return "Bool"
	case StringFieldType:
		return "String"
	case DateTimeFieldType:
		return "DateTime"
	default:
		return ""
	}
}

func (f FieldType) Valid() bool {
	return f >= Int64FieldType && f <= DateTimeFieldType
}

// Size is the plain fixed-width size of one value, 0 for variable width types.
func (f FieldType) Size() int {
	switch f {
	case Int64FieldType, Float64FieldType, DateTimeFieldType:
		return 8
	case BoolFieldType:
		return 1
	default:
		return 0
	}
}

// Numeric types support Sum and Mean.
func (f FieldType) Numeric() bool {
	return f == Int64FieldType || f == Float64FieldType || f == DecimalFieldType
}

func ParseFieldType(name string) (FieldType, error) {
	for t := Int64FieldType; t <= DateTimeFieldType; t++ {
		if strings.EqualFold(t.String(), name) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown field type `%s`", ErrSchema, name)
}

func (f FieldType) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: invalid field type %d", ErrSchema, uint8(f))
	}
	return []byte(f.String()), nil
}

func (f *FieldType) UnmarshalText(text []byte) error {
	parsed, err := ParseFieldType(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
