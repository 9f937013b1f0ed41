package compression

import (
	"errors"
	"fmt"
	"strings"
)

type Type uint8

const (
	None Type = iota
	Lz4
	Zstd
)

var ErrSizeMismatch = errors.New("decompressed size mismatch")

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case Lz4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(t))
	}
}

func ParseType(name string) (Type, error) {
	for _, t := range []Type{None, Lz4, Zstd} {
		if strings.EqualFold(t.String(), name) {
			return t, nil
		}
	}
	return None, fmt.Errorf("unknown compression `%s`", name)
}

// Compress returns the stored bytes and the compression actually applied.
// Blocks that do not shrink are stored raw.
func Compress(typ Type, src []byte) (Type, []byte, error) {
	if len(src) == 0 {
		return None, src, nil
	}

	var (
		out []byte
		err error
	)

	switch typ {
	case None:
		return None, src, nil
	case Lz4:
		out, err = CompressLz4(src)
	case Zstd:
		out = CompressZstd(src)
	default:
		return None, nil, fmt.Errorf("unsupported compression type %d", typ)
	}

	if err != nil {
		return None, nil, fmt.Errorf("unable to compress block with %s: %w", typ.String(), err)
	}

	if out == nil || len(out) >= len(src) {
		return None, src, nil
	}

	return typ, out, nil
}

func Decompress(typ Type, src []byte, rawSize int) ([]byte, error) {
	switch typ {
	case None:
		if len(src) != rawSize {
			return nil, fmt.Errorf("%w: raw block of %d, expected %d", ErrSizeMismatch, len(src), rawSize)
		}
		return src, nil
	case Lz4:
		return DecompressLz4(src, rawSize)
	case Zstd:
		return DecompressZstd(src, rawSize)
	default:
		return nil, fmt.Errorf("unsupported compression type %d", typ)
	}
}
