package codec

import (
	"fmt"

	"github.com/dot5enko/colstore/bits"
	"github.com/dot5enko/colstore/schema"
)

const maxDictionarySize = 65535

// run count, then (length, value) pairs
func encodeRunLength(w *bits.BitWriter, vec *schema.ColumnVector) error {
	rows := vec.Len()

	type run struct {
		start, length int
	}

	runs := make([]run, 0, 16)
	for i := 0; i < rows; i++ {
		if len(runs) > 0 {
			last := &runs[len(runs)-1]
			if sameRaw(vec, last.start, i) {
				last.length++
				continue
			}
		}
		runs = append(runs, run{start: i, length: 1})
	}

	w.PutUvarint(uint64(len(runs)))
	for _, it := range runs {
		w.PutUvarint(uint64(it.length))
		if err := writeRaw(w, vec, it.start); err != nil {
			return err
		}
	}
	return nil
}

func decodeRunLength(r *bits.BitsReader, vec *schema.ColumnVector, rows int) error {
	count, err := r.ReadUvarint()
	if err != nil {
		return err
	}

	total := 0
	for i := uint64(0); i < count; i++ {
		length, err := r.ReadUvarint()
		if err != nil {
			return err
		}
		if total+int(length) > rows {
			return fmt.Errorf("run of %d overflows %d rows", length, rows)
		}

		if err = readRawRepeated(r, vec, int(length)); err != nil {
			return err
		}
		total += int(length)
	}

	if total != rows {
		return fmt.Errorf("runs cover %d of %d rows", total, rows)
	}
	return nil
}

func sameRaw(vec *schema.ColumnVector, a, b int) bool {
	switch vec.Type {
	case schema.Int64FieldType, schema.DateTimeFieldType:
		return vec.Ints[a] == vec.Ints[b]
	case schema.BoolFieldType:
		return vec.Bools[a] == vec.Bools[b]
	case schema.StringFieldType:
		return vec.Strs[a] == vec.Strs[b]
	case schema.DecimalFieldType:
		return vec.Decs[a].Equal(vec.Decs[b]) && vec.Decs[a].Exponent() == vec.Decs[b].Exponent()
	case schema.Float64FieldType:
		return vec.Floats[a] == vec.Floats[b]
	}
	return false
}

func writeRaw(w *bits.BitWriter, vec *schema.ColumnVector, i int) error {
	switch vec.Type {
	case schema.Int64FieldType, schema.DateTimeFieldType:
		w.PutUvarint(ZigZagEncode(vec.Ints[i]))
	case schema.BoolFieldType:
		if vec.Bools[i] {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
	case schema.StringFieldType:
		w.PutString(vec.Strs[i])
	case schema.DecimalFieldType:
		w.PutString(vec.Decs[i].String())
	case schema.Float64FieldType:
		w.PutFloat64(vec.Floats[i])
	default:
		return errNotApplicable
	}
	return nil
}

func readRawRepeated(r *bits.BitsReader, vec *schema.ColumnVector, n int) error {
	switch vec.Type {
	case schema.Int64FieldType, schema.DateTimeFieldType:
		zz, err := r.ReadUvarint()
		if err != nil {
			return err
		}
		v := ZigZagDecode(zz)
		for j := 0; j < n; j++ {
			vec.Ints = append(vec.Ints, v)
		}
	case schema.BoolFieldType:
		b, err := r.ReadU8()
		if err != nil {
			return err
		}
		for j := 0; j < n; j++ {
			vec.Bools = append(vec.Bools, b != 0)
		}
	case schema.StringFieldType:
		raw, err := r.ReadPrefixed()
		if err != nil {
			return err
		}
		s := string(raw)
		for j := 0; j < n; j++ {
			vec.Strs = append(vec.Strs, s)
		}
	case schema.DecimalFieldType:
		d, err := readDecimal(r)
		if err != nil {
			return err
		}
		for j := 0; j < n; j++ {
			vec.Decs = append(vec.Decs, d)
		}
	case schema.Float64FieldType:
		f, err := r.ReadF64()
		if err != nil {
			return err
		}
		for j := 0; j < n; j++ {
			vec.Floats = append(vec.Floats, f)
		}
	default:
		return errNotApplicable
	}
	return nil
}

// dictionary of distinct strings followed by 1 or 2 byte indices
func encodeDictionary(w *bits.BitWriter, vec *schema.ColumnVector) error {
	if vec.Type != schema.StringFieldType {
		return errNotApplicable
	}

	rows := vec.Len()
	limit := min(rows/2, maxDictionarySize)

	ids := make(map[string]uint16, 64)
	dict := make([]string, 0, 64)

	for _, s := range vec.Strs {
		if _, ok := ids[s]; ok {
			continue
		}
		if len(dict) >= limit {
			return errNotApplicable
		}
		ids[s] = uint16(len(dict))
		dict = append(dict, s)
	}

	w.PutUvarint(uint64(len(dict)))
	for _, s := range dict {
		w.PutString(s)
	}

	width := uint8(1)
	if len(dict) > 256 {
		width = 2
	}
	w.WriteByte(width)

	for _, s := range vec.Strs {
		if width == 1 {
			w.WriteByte(uint8(ids[s]))
		} else {
			w.PutUint16(ids[s])
		}
	}
	return nil
}

func decodeDictionary(r *bits.BitsReader, vec *schema.ColumnVector, rows int) error {
	size, err := r.ReadUvarint()
	if err != nil {
		return err
	}
	if size > maxDictionarySize {
		return fmt.Errorf("dictionary of %d entries", size)
	}

	dict := make([]string, size)
	for i := range dict {
		raw, err := r.ReadPrefixed()
		if err != nil {
			return err
		}
		dict[i] = string(raw)
	}

	width, err := r.ReadU8()
	if err != nil {
		return err
	}
	if width != 1 && width != 2 {
		return fmt.Errorf("invalid dictionary index width %d", width)
	}

	raw, err := r.ReadBytes(rows * int(width))
	if err != nil {
		return err
	}

	vec.Strs = make([]string, rows)
	for i := range vec.Strs {
		var idx int
		if width == 1 {
			idx = int(raw[i])
		} else {
			idx = int(order.Uint16(raw[i*2:]))
		}
		if idx >= len(dict) {
			return fmt.Errorf("dictionary index %d out of %d", idx, len(dict))
		}
		vec.Strs[i] = dict[idx]
	}
	return nil
}
