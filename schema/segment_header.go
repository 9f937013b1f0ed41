package schema

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/dot5enko/colstore/bits"
	"github.com/google/uuid"
)

// segment file on disk

// *--------------------------------*
// | magic, version, store uid      |
// | segment id, schema version     |
// | rows, columns, liveness entry  |
// *--------------------------------*
// | column block headers 1 ... n   |
// *--------------------------------*
// | header crc32                   |
// *--------------------------------*
// | compressed column blocks       |
// *--------------------------------*
// | liveness bitmap block          |
// *--------------------------------*

const CurrentSegmentVersion = 1

var SegmentMagic = [4]byte{'C', 'S', 'E', 'G'}

// SegmentPrefixSize is the fixed part of the header before the column directory.
const SegmentPrefixSize = 4 + 2 + 16 + 8 + 4 + 4 + 2 + 8 + 4 + 4

const columnCountOffset = 4 + 2 + 16 + 8 + 4 + 4

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func Checksum(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}

type SegmentHeader struct {
	Version uint16

	StoreUid      uuid.UUID
	SegmentId     uint64
	SchemaVersion uint32

	Rows uint32

	LivenessOffset   uint64
	LivenessSize     uint32
	LivenessChecksum uint32

	Columns []ColumnBlockHeader
}

// SegmentHeaderSize is the on-disk header length including the trailing crc.
func SegmentHeaderSize(columns int) int {
	return SegmentPrefixSize + columns*TotalHeaderSize + 4
}

// PeekColumnCount reads the column count from a header prefix.
func PeekColumnCount(prefix []byte) (int, error) {
	if len(prefix) < SegmentPrefixSize {
		return 0, fmt.Errorf("%w: short header prefix %d", ErrMalformedHeader, len(prefix))
	}
	if [4]byte(prefix[:4]) != SegmentMagic {
		return 0, fmt.Errorf("%w: bad magic %x", ErrMalformedHeader, prefix[:4])
	}
	return int(binary.LittleEndian.Uint16(prefix[columnCountOffset:])), nil
}

func (header *SegmentHeader) WriteTo(bw *bits.BitWriter) int {
	start := bw.Position()

	bw.Write(SegmentMagic[:])
	bw.PutUint16(header.Version)
	bw.Write(header.StoreUid[:])
	bw.PutUint64(header.SegmentId)
	bw.PutUint32(header.SchemaVersion)
	bw.PutUint32(header.Rows)
	bw.PutUint16(uint16(len(header.Columns)))
	bw.PutUint64(header.LivenessOffset)
	bw.PutUint32(header.LivenessSize)
	bw.PutUint32(header.LivenessChecksum)

	for i := range header.Columns {
		header.Columns[i].WriteTo(bw)
	}

	bw.PutUint32(Checksum(bw.Bytes()[start:]))

	return bw.Position() - start
}

func (header *SegmentHeader) FromBytes(input []byte) (topErr error) {

	columns, topErr := PeekColumnCount(input)
	if topErr != nil {
		return topErr
	}

	size := SegmentHeaderSize(columns)
	if len(input) < size {
		return fmt.Errorf("%w: header needs %d bytes, got %d", ErrMalformedHeader, size, len(input))
	}

	stored := binary.LittleEndian.Uint32(input[size-4:])
	if actual := Checksum(input[:size-4]); actual != stored {
		return fmt.Errorf("%w: stored %08x, computed %08x", ErrHeaderChecksum, stored, actual)
	}

	reader := bits.NewReader(input[:size-4], binary.LittleEndian)
	reader.Skip(len(SegmentMagic))

	header.Version = reader.MustReadU16()
	if header.Version != CurrentSegmentVersion {
		return fmt.Errorf("%w: invalid version %d. Supported versions: %d", ErrMalformedHeader, header.Version, CurrentSegmentVersion)
	}

	header.StoreUid, topErr = reader.ReadUUID()
	if topErr != nil {
		return fmt.Errorf("unable to decode segment store uid: %w", topErr)
	}

	header.SegmentId = reader.MustReadU64()
	header.SchemaVersion = reader.MustReadU32()
	header.Rows = reader.MustReadU32()
	reader.MustReadU16()
	header.LivenessOffset = reader.MustReadU64()
	header.LivenessSize = reader.MustReadU32()
	header.LivenessChecksum = reader.MustReadU32()

	header.Columns = make([]ColumnBlockHeader, columns)
	for i := range header.Columns {
		if topErr = header.Columns[i].FromBytes(reader); topErr != nil {
			return fmt.Errorf("unable to decode column %d header: %w", i, topErr)
		}
	}

	return reader.Err()
}
