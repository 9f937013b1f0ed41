package meta

import (
	"encoding/binary"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/dot5enko/colstore/bits"
	"github.com/dot5enko/colstore/codec"
	"github.com/dot5enko/colstore/compression"
	"github.com/dot5enko/colstore/io"
	"github.com/dot5enko/colstore/schema"
	"github.com/google/uuid"
)

// WriteSegment encodes, compresses and durably writes one batch of columns.
// The returned segment holds one owner reference.
func (m *SegmentManager) WriteSegment(
	storeUid uuid.UUID,
	id uint64,
	schemaVersion uint32,
	columns []*schema.ColumnVector,
) (*Segment, error) {

	if len(columns) == 0 {
		return nil, fmt.Errorf("segment %d has no columns", id)
	}

	rows := columns[0].Len()

	header := schema.SegmentHeader{
		Version:       schema.CurrentSegmentVersion,
		StoreUid:      storeUid,
		SegmentId:     id,
		SchemaVersion: schemaVersion,
		Rows:          uint32(rows),
		Columns:       make([]schema.ColumnBlockHeader, len(columns)),
	}

	offset := uint64(schema.SegmentHeaderSize(len(columns)))
	blocks := make([][]byte, 0, len(columns)+1)

	for i, vec := range columns {
		if vec.Len() != rows {
			return nil, fmt.Errorf("column %d has %d rows, expected %d", i, vec.Len(), rows)
		}

		encoding, payload, encodeErr := codec.Encode(vec)
		if encodeErr != nil {
			return nil, fmt.Errorf("unable to encode column %d: %w", i, encodeErr)
		}

		compressionType, stored, compressErr := compression.Compress(m.compression, payload)
		if compressErr != nil {
			return nil, fmt.Errorf("unable to compress column %d: %w", i, compressErr)
		}

		block := &header.Columns[i]
		block.DataType = vec.Type
		block.Encoding = uint8(encoding)
		block.Compression = uint8(compressionType)
		block.RawSize = uint32(len(payload))
		block.StoredSize = uint32(len(stored))
		block.Offset = offset
		block.Checksum = schema.Checksum(stored)
		block.NullCount = uint32(vec.NullCount())
		block.Bounds, block.HasBounds = vec.Bounds()
		block.HasNaN = vec.NaNCount() > 0

		blocks = append(blocks, stored)
		offset += uint64(len(stored))
	}

	liveness := bits.NewBitfield(rows, true)
	livenessBlock := bits.ArrayToBytes(nil, liveness.Words())

	header.LivenessOffset = offset
	header.LivenessSize = uint32(len(livenessBlock))
	header.LivenessChecksum = schema.Checksum(livenessBlock)
	blocks = append(blocks, livenessBlock)

	total := int(offset) + len(livenessBlock)

	bw := bits.NewGrowingBuffer(total, binary.LittleEndian)
	header.WriteTo(&bw)
	for _, b := range blocks {
		bw.Write(b)
	}

	if bw.Position() != total {
		return nil, fmt.Errorf("segment %d layout mismatch: wrote %d bytes, planned %d", id, bw.Position(), total)
	}

	path := m.GetSegmentPath(id)
	if err := io.WriteFileAtomic(path, bw.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: unable to write segment %d: %w", ErrIOFailure, id, err)
	}

	return newSegment(header, path, m.GetDeletionsPath(id), int64(total), liveness, roaring.New()), nil
}
