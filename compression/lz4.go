package compression

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// CompressLz4 uses the lz4 block format, the raw size is kept by the caller.
// A nil result means the input is incompressible.
func CompressLz4(src []byte) ([]byte, error) {
	compressed := make([]byte, lz4.CompressBlockBound(len(src)))

	var hashTable [1 << 16]int
	n, err := lz4.CompressBlock(src, compressed, hashTable[:])
	if err != nil {
		return nil, err
	}

	if n == 0 {
		return nil, nil
	}

	return compressed[:n], nil
}

func DecompressLz4(src []byte, rawSize int) ([]byte, error) {
	result := make([]byte, rawSize)

	n, err := lz4.UncompressBlock(src, result)
	if err != nil {
		return nil, err
	}
	if n != rawSize {
		return nil, fmt.Errorf("%w: lz4 produced %d of %d bytes", ErrSizeMismatch, n, rawSize)
	}

	return result, nil
}
