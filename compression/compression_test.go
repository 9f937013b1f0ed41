package compression

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressRoundTrip(t *testing.T) {
	src := bytes.Repeat([]byte("column store block "), 500)

	for _, typ := range []Type{None, Lz4, Zstd} {
		applied, stored, err := Compress(typ, src)
		require.NoError(t, err)
		assert.Equal(t, typ, applied)

		if typ != None {
			assert.Less(t, len(stored), len(src))
		}

		out, err := Decompress(applied, stored, len(src))
		require.NoError(t, err)
		assert.Equal(t, src, out)
	}
}

func TestIncompressibleIsStoredRaw(t *testing.T) {
	src := make([]byte, 256)
	_, err := rand.Read(src)
	require.NoError(t, err)

	for _, typ := range []Type{Lz4, Zstd} {
		applied, stored, err := Compress(typ, src)
		require.NoError(t, err)
		assert.Equal(t, None, applied)
		assert.Equal(t, src, stored)
	}
}

func TestDecompressSizeMismatch(t *testing.T) {
	src := bytes.Repeat([]byte{1, 2, 3, 4}, 100)

	applied, stored, err := Compress(Lz4, src)
	require.NoError(t, err)

	_, err = Decompress(applied, stored, len(src)+10)
	assert.Error(t, err)

	_, err = Decompress(None, src, len(src)-1)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, Zstd, typ)

	_, err = ParseType("brotli")
	assert.Error(t, err)
}
