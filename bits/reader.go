package bits

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/google/uuid"
)

var (
	ErrEOF          = errors.New("end of buffer")
	ErrReadMismatch = errors.New("read size mismatch")
	ErrBadVarint    = errors.New("malformed varint")
)

// BitsReader decodes values from an in-memory buffer.
// The first failure is sticky: later reads return zero values and Err() reports it.
type BitsReader struct {
	buf   []byte
	pos   int
	order binary.ByteOrder

	err error
}

func NewReader(buf []byte, order binary.ByteOrder) *BitsReader {
	return &BitsReader{buf: buf, order: order}
}

func (r *BitsReader) Err() error {
	return r.err
}

func (r *BitsReader) Position() int {
	return r.pos
}

func (r *BitsReader) Remaining() int {
	return len(r.buf) - r.pos
}

func (r *BitsReader) next(size int) []byte {
	if r.err != nil {
		return nil
	}
	if size < 0 || r.pos+size > len(r.buf) {
		r.err = ErrEOF
		return nil
	}
	out := r.buf[r.pos : r.pos+size]
	r.pos += size
	return out
}

func (r *BitsReader) Skip(n int) error {
	r.next(n)
	return r.err
}

func (r *BitsReader) ReadU8() (uint8, error) {
	b := r.next(1)
	if b == nil {
		return 0, r.err
	}
	return b[0], nil
}

func (r *BitsReader) ReadU16() (uint16, error) {
	b := r.next(2)
	if b == nil {
		return 0, r.err
	}
	return r.order.Uint16(b), nil
}

func (r *BitsReader) ReadU32() (uint32, error) {
	b := r.next(4)
	if b == nil {
		return 0, r.err
	}
	return r.order.Uint32(b), nil
}

func (r *BitsReader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *BitsReader) ReadU64() (uint64, error) {
	b := r.next(8)
	if b == nil {
		return 0, r.err
	}
	return r.order.Uint64(b), nil
}

func (r *BitsReader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func (r *BitsReader) ReadF64() (float64, error) {
	u, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

func (r *BitsReader) ReadUUID() (result uuid.UUID, err error) {
	b := r.next(16)
	if b == nil {
		return uuid.Nil, r.err
	}
	copy(result[:], b)
	return result, nil
}

func (r *BitsReader) ReadUvarint() (uint64, error) {
	if r.err != nil {
		return 0, r.err
	}
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		r.err = ErrBadVarint
		return 0, r.err
	}
	r.pos += n
	return v, nil
}

// ReadBytes returns n bytes without copying.
func (r *BitsReader) ReadBytes(n int) ([]byte, error) {
	b := r.next(n)
	if b == nil {
		return nil, r.err
	}
	return b, nil
}

// ReadPrefixed reads a uvarint length followed by that many bytes.
func (r *BitsReader) ReadPrefixed() ([]byte, error) {
	l, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if l > uint64(r.Remaining()) {
		r.err = ErrReadMismatch
		return nil, r.err
	}
	return r.ReadBytes(int(l))
}

func (r *BitsReader) MustReadU8() uint8 {
	u, _ := r.ReadU8()
	return u
}

func (r *BitsReader) MustReadU16() uint16 {
	u, _ := r.ReadU16()
	return u
}

func (r *BitsReader) MustReadU32() uint32 {
	u, _ := r.ReadU32()
	return u
}

func (r *BitsReader) MustReadU64() uint64 {
	u, _ := r.ReadU64()
	return u
}

func (r *BitsReader) MustReadI64() int64 {
	i, _ := r.ReadI64()
	return i
}

func (r *BitsReader) MustReadF64() float64 {
	f, _ := r.ReadF64()
	return f
}
