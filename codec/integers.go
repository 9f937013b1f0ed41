package codec

import (
	"fmt"
	"math"

	"github.com/dot5enko/colstore/bits"
	"github.com/dot5enko/colstore/schema"
)

func isIntegerType(typ schema.FieldType) bool {
	return typ == schema.Int64FieldType || typ == schema.DateTimeFieldType
}

// frame of reference: min value followed by fixed width unsigned offsets.
func encodeNarrow(w *bits.BitWriter, vec *schema.ColumnVector) error {
	if !isIntegerType(vec.Type) {
		return errNotApplicable
	}

	minV, maxV := int64(0), int64(0)
	found := false
	for i, v := range vec.Ints {
		if vec.IsNull(i) {
			continue
		}
		if !found {
			minV, maxV = v, v
			found = true
			continue
		}
		minV = min(minV, v)
		maxV = max(maxV, v)
	}

	span := uint64(maxV) - uint64(minV)

	var width uint8
	switch {
	case span <= math.MaxUint8:
		width = 1
	case span <= math.MaxUint16:
		width = 2
	case span <= math.MaxUint32:
		width = 4
	default:
		return errNotApplicable
	}

	w.PutInt64(minV)
	w.WriteByte(width)

	for i, v := range vec.Ints {
		var delta uint64
		if !vec.IsNull(i) {
			delta = uint64(v) - uint64(minV)
		}

		switch width {
		case 1:
			w.WriteByte(uint8(delta))
		case 2:
			w.PutUint16(uint16(delta))
		case 4:
			w.PutUint32(uint32(delta))
		}
	}
	return nil
}

func decodeNarrow(r *bits.BitsReader, vec *schema.ColumnVector, rows int) error {
	base, _ := r.ReadI64()
	width, err := r.ReadU8()
	if err != nil {
		return err
	}

	raw, err := r.ReadBytes(rows * int(width))
	if err != nil {
		return err
	}

	out := make([]int64, rows)
	switch width {
	case 1:
		for i := range out {
			out[i] = int64(uint64(base) + uint64(raw[i]))
		}
	case 2:
		for i := range out {
			out[i] = int64(uint64(base) + uint64(order.Uint16(raw[i*2:])))
		}
	case 4:
		for i := range out {
			out[i] = int64(uint64(base) + uint64(order.Uint32(raw[i*4:])))
		}
	default:
		return fmt.Errorf("invalid narrow width %d", width)
	}

	vec.Ints = out
	return nil
}

// delta -> zigzag -> uvarint
func encodeDelta(w *bits.BitWriter, vec *schema.ColumnVector) error {
	if !isIntegerType(vec.Type) {
		return errNotApplicable
	}

	var prev int64
	for _, v := range vec.Ints {
		w.PutUvarint(ZigZagEncode(v - prev))
		prev = v
	}
	return nil
}

func decodeDelta(r *bits.BitsReader, vec *schema.ColumnVector, rows int) error {
	out := make([]int64, rows)

	var prev int64
	for i := range out {
		zz, err := r.ReadUvarint()
		if err != nil {
			return fmt.Errorf("unable to decode delta at row %d: %w", i, err)
		}
		prev += ZigZagDecode(zz)
		out[i] = prev
	}

	vec.Ints = out
	return nil
}
