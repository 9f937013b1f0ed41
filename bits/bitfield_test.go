package bits

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitfieldFullHasExactLength(t *testing.T) {
	b := NewBitfield(70, true)

	assert.Equal(t, 70, b.Len())
	assert.Equal(t, 70, b.Count())
	assert.True(t, b.Get(69))

	b.Clear(3)
	b.Clear(3)
	assert.Equal(t, 69, b.Count())
	assert.False(t, b.Get(3))
}

func TestBitfieldAppendAndIndices(t *testing.T) {
	b := NewBitfield(0, false)
	for i := 0; i < 130; i++ {
		b.Append(i%3 == 0)
	}

	require.Equal(t, 130, b.Len())

	out := make([]uint32, b.Len())
	n := b.ToIndices(out)

	assert.Equal(t, 44, n)
	for _, idx := range out[:n] {
		assert.Zero(t, idx%3)
	}
}

func TestBitfieldNotKeepsTailClear(t *testing.T) {
	b := NewBitfield(10, false)
	b.Set(2)
	b.Not()

	assert.Equal(t, 9, b.Count())
	assert.False(t, b.Get(2))
}

func TestBitfieldFromSorted(t *testing.T) {
	b := NewBitfield(200, false)
	b.FromSorted([]uint32{1, 5, 64, 65, 199})

	assert.Equal(t, 5, b.Count())
	assert.True(t, b.Get(199))

	other := NewBitfield(200, true)
	other.Clear(64)

	merged := MergeAND(b, other)
	assert.Equal(t, 4, merged.Count())
	assert.Equal(t, 5, b.Count())
}

func TestReaderIsStickyOnShortBuffer(t *testing.T) {
	w := NewGrowingBuffer(4, binary.LittleEndian)
	w.PutUint16(7)
	w.PutString("abc")

	r := NewReader(w.Bytes(), binary.LittleEndian)
	v, err := r.ReadU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(7), v)

	s, err := r.ReadPrefixed()
	require.NoError(t, err)
	assert.Equal(t, "abc", string(s))

	_, err = r.ReadU64()
	assert.ErrorIs(t, err, ErrEOF)
	assert.ErrorIs(t, r.Err(), ErrEOF)
}

func TestFixedWidthRoundTrip(t *testing.T) {
	in := []int64{-5, 0, 1 << 40}
	raw := ArrayToBytes(nil, in)

	require.Len(t, raw, 24)
	assert.Equal(t, in, MapBytesToArray[int64](raw, 3))
}
