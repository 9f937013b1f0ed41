package codec

import (
	"fmt"

	"github.com/dot5enko/colstore/bits"
	"github.com/dot5enko/colstore/schema"
	"github.com/shopspring/decimal"
)

func encodePlain(w *bits.BitWriter, vec *schema.ColumnVector) error {
	switch vec.Type {
	case schema.Int64FieldType, schema.DateTimeFieldType:
		w.Write(bits.ArrayToBytes(nil, vec.Ints))
	case schema.Float64FieldType:
		w.Write(bits.ArrayToBytes(nil, vec.Floats))
	case schema.BoolFieldType:
		for _, b := range vec.Bools {
			if b {
				w.WriteByte(1)
			} else {
				w.WriteByte(0)
			}
		}
	case schema.StringFieldType:
		for _, s := range vec.Strs {
			w.PutString(s)
		}
	case schema.DecimalFieldType:
		for _, d := range vec.Decs {
			w.PutString(d.String())
		}
	default:
		return fmt.Errorf("plain encoding does not support %s", vec.Type.String())
	}
	return nil
}

func decodePlain(r *bits.BitsReader, vec *schema.ColumnVector, rows int) error {
	switch vec.Type {
	case schema.Int64FieldType, schema.DateTimeFieldType:
		raw, err := r.ReadBytes(rows * 8)
		if err != nil {
			return err
		}
		vec.Ints = bits.MapBytesToArray[int64](raw, rows)
	case schema.Float64FieldType:
		raw, err := r.ReadBytes(rows * 8)
		if err != nil {
			return err
		}
		vec.Floats = bits.MapBytesToArray[float64](raw, rows)
	case schema.BoolFieldType:
		raw, err := r.ReadBytes(rows)
		if err != nil {
			return err
		}
		for _, b := range raw {
			vec.Bools = append(vec.Bools, b != 0)
		}
	case schema.StringFieldType:
		for i := 0; i < rows; i++ {
			s, err := r.ReadPrefixed()
			if err != nil {
				return err
			}
			vec.Strs = append(vec.Strs, string(s))
		}
	case schema.DecimalFieldType:
		for i := 0; i < rows; i++ {
			d, err := readDecimal(r)
			if err != nil {
				return err
			}
			vec.Decs = append(vec.Decs, d)
		}
	default:
		return fmt.Errorf("plain encoding does not support %s", vec.Type.String())
	}
	return nil
}

func readDecimal(r *bits.BitsReader) (decimal.Decimal, error) {
	s, err := r.ReadPrefixed()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(string(s))
}
