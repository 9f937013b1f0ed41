package schema

import (
	"fmt"

	"github.com/dot5enko/colstore/bits"
)

const TotalHeaderSize = 64

const HeaderSizeUsed = 1 + 1 + 1 + 1 + 4 + 4 + 8 + 4 + 4 + BoundsSize // type, encoding, compression, flags, raw, stored, offset, crc, nulls, bounds
const ReservedSize = TotalHeaderSize - HeaderSizeUsed

const (
	headerFlagBounds = 1 << 0
	headerFlagNaN    = 1 << 1
)

// ColumnBlockHeader is one entry of a segment's column directory.
// Encoding and Compression hold the codec and compression enums as raw bytes.
type ColumnBlockHeader struct {
	DataType    FieldType
	Encoding    uint8
	Compression uint8

	RawSize    uint32
	StoredSize uint32
	Offset     uint64
	Checksum   uint32
	NullCount  uint32

	// Bounds never include NaN; HasNaN marks a block that holds some.
	HasBounds bool
	HasNaN    bool
	Bounds    BoundsFloat
}

func (header *ColumnBlockHeader) FromBytes(reader *bits.BitsReader) (topErr error) {

	header.DataType = FieldType(reader.MustReadU8())
	header.Encoding = reader.MustReadU8()
	header.Compression = reader.MustReadU8()
	flags := reader.MustReadU8()
	header.HasBounds = flags&headerFlagBounds != 0
	header.HasNaN = flags&headerFlagNaN != 0

	header.RawSize = reader.MustReadU32()
	header.StoredSize = reader.MustReadU32()
	header.Offset = reader.MustReadU64()
	header.Checksum = reader.MustReadU32()
	header.NullCount = reader.MustReadU32()

	if topErr = header.Bounds.FromBytes(reader); topErr != nil {
		return fmt.Errorf("unable to decode column block header: %w", topErr)
	}

	if topErr = reader.Skip(ReservedSize); topErr != nil {
		return fmt.Errorf("unable to skip column block header padding: %w", topErr)
	}

	if !header.DataType.Valid() {
		return fmt.Errorf("%w: column block header has invalid type %d", ErrMalformedHeader, header.DataType)
	}

	return nil
}

func (header *ColumnBlockHeader) WriteTo(bw *bits.BitWriter) int {

	var flags uint8
	if header.HasBounds {
		flags |= headerFlagBounds
	}
	if header.HasNaN {
		flags |= headerFlagNaN
	}

	bw.WriteByte(uint8(header.DataType))
	bw.WriteByte(header.Encoding)
	bw.WriteByte(header.Compression)
	bw.WriteByte(flags)

	bw.PutUint32(header.RawSize)
	bw.PutUint32(header.StoredSize)
	bw.PutUint64(header.Offset)
	bw.PutUint32(header.Checksum)
	bw.PutUint32(header.NullCount)

	header.Bounds.WriteTo(bw)

	bw.EmptyBytes(ReservedSize)

	return bw.Position()
}
