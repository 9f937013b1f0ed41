// Package codec turns decoded column vectors into compact byte payloads and back.
//
// Payload layout:
//
//	[null flag u8][null bitmap words, when flag is set][encoding body]
//
// Every body encodes exactly rows values; null positions carry a zero value.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dot5enko/colstore/bits"
	"github.com/dot5enko/colstore/schema"
	"github.com/shopspring/decimal"
)

type Encoding uint8

const (
	PlainEncoding Encoding = iota
	NarrowEncoding
	DeltaEncoding
	RunLengthEncoding
	DictionaryEncoding
)

var ErrCorruptBlock = errors.New("corrupt column block")

var order = binary.LittleEndian

func (e Encoding) String() string {
	switch e {
	case PlainEncoding:
		return "plain"
	case NarrowEncoding:
		return "narrow"
	case DeltaEncoding:
		return "delta"
	case RunLengthEncoding:
		return "rle"
	case DictionaryEncoding:
		return "dictionary"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// Candidates lists the encodings tried for a column type, in preference order.
func Candidates(typ schema.FieldType) []Encoding {
	switch typ {
	case schema.Int64FieldType, schema.DateTimeFieldType:
		return []Encoding{PlainEncoding, NarrowEncoding, DeltaEncoding, RunLengthEncoding}
	case schema.BoolFieldType, schema.DecimalFieldType:
		return []Encoding{PlainEncoding, RunLengthEncoding}
	case schema.StringFieldType:
		return []Encoding{PlainEncoding, DictionaryEncoding, RunLengthEncoding}
	default:
		return []Encoding{PlainEncoding}
	}
}

// Encode tries every applicable encoding and keeps the smallest payload.
func Encode(vec *schema.ColumnVector) (Encoding, []byte, error) {
	var (
		best    []byte
		bestEnc Encoding
	)

	for _, enc := range Candidates(vec.Type) {
		payload, err := EncodeWith(enc, vec)
		if errors.Is(err, errNotApplicable) {
			continue
		}
		if err != nil {
			return 0, nil, err
		}
		if best == nil || len(payload) < len(best) {
			best = payload
			bestEnc = enc
		}
	}

	if best == nil {
		return 0, nil, fmt.Errorf("no encoding applies to %s column", vec.Type.String())
	}

	return bestEnc, best, nil
}

var errNotApplicable = errors.New("encoding not applicable")

func EncodeWith(enc Encoding, vec *schema.ColumnVector) ([]byte, error) {
	rows := vec.Len()
	w := bits.NewGrowingBuffer(rows*2+16, order)

	writeNulls(&w, vec)

	var err error
	switch enc {
	case PlainEncoding:
		err = encodePlain(&w, vec)
	case NarrowEncoding:
		err = encodeNarrow(&w, vec)
	case DeltaEncoding:
		err = encodeDelta(&w, vec)
	case RunLengthEncoding:
		err = encodeRunLength(&w, vec)
	case DictionaryEncoding:
		err = encodeDictionary(&w, vec)
	default:
		err = fmt.Errorf("unknown encoding %d", enc)
	}

	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Decode restores a vector of rows values from a payload.
func Decode(typ schema.FieldType, enc Encoding, rows int, payload []byte) (*schema.ColumnVector, error) {
	r := bits.NewReader(payload, order)

	nulls, err := readNulls(r, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read null bitmap: %w", ErrCorruptBlock, err)
	}

	vec := schema.NewColumnVector(typ, rows)

	switch enc {
	case PlainEncoding:
		err = decodePlain(r, vec, rows)
	case NarrowEncoding:
		err = decodeNarrow(r, vec, rows)
	case DeltaEncoding:
		err = decodeDelta(r, vec, rows)
	case RunLengthEncoding:
		err = decodeRunLength(r, vec, rows)
	case DictionaryEncoding:
		err = decodeDictionary(r, vec, rows)
	default:
		err = fmt.Errorf("unknown encoding %d", enc)
	}

	if err == nil {
		err = r.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s block: %w", ErrCorruptBlock, enc.String(), typ.String(), err)
	}

	vec.Seal(rows)
	if nulls != nil {
		vec.Nulls = nulls
		zeroNulls(vec)
	}

	return vec, nil
}

func writeNulls(w *bits.BitWriter, vec *schema.ColumnVector) {
	if vec.NullCount() == 0 {
		w.WriteByte(0)
		return
	}

	w.WriteByte(1)

	nulls := vec.Nulls
	if nulls.Len() < vec.Len() {
		nulls = bits.BitfieldFromWords(append([]uint64(nil), nulls.Words()...), vec.Len())
	}
	w.Write(bits.ArrayToBytes(nil, nulls.Words()))
}

func readNulls(r *bits.BitsReader, rows int) (*bits.Bitfield, error) {
	flag, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	if flag == 0 {
		return nil, nil
	}

	words := (rows + 63) / 64
	raw, err := r.ReadBytes(words * 8)
	if err != nil {
		return nil, err
	}
	return bits.BitfieldFromWords(bits.MapBytesToArray[uint64](raw, words), rows), nil
}

func zeroNulls(vec *schema.ColumnVector) {
	vec.Nulls.ForEach(func(i int) bool {
		switch vec.Type {
		case schema.Int64FieldType, schema.DateTimeFieldType:
			vec.Ints[i] = 0
		case schema.Float64FieldType:
			vec.Floats[i] = 0
		case schema.BoolFieldType:
			vec.Bools[i] = false
		case schema.StringFieldType:
			vec.Strs[i] = ""
		case schema.DecimalFieldType:
			vec.Decs[i] = decimal.Zero
		}
		return true
	})
}

func ZigZagEncode(n int64) uint64 {
	return uint64((n << 1) ^ (n >> 63))
}

func ZigZagDecode(z uint64) int64 {
	return int64(z>>1) ^ -int64(z&1)
}
