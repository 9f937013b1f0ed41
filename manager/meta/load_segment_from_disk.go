package meta

import (
	"fmt"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/dot5enko/colstore/bits"
	"github.com/dot5enko/colstore/codec"
	"github.com/dot5enko/colstore/compression"
	"github.com/dot5enko/colstore/io"
	"github.com/dot5enko/colstore/manager/cache"
	"github.com/dot5enko/colstore/schema"
)

const dumpBytesLimit = 256

func (m *SegmentManager) dumpCorrupt(msg string, id uint64, data []byte) {
	m.logger.Debug(msg, "segment", id, "dump", spew.Sdump(data[:min(len(data), dumpBytesLimit)]))
}

// OpenSegment reads and verifies a segment header and its liveness,
// then applies the deletions sidecar.
func (m *SegmentManager) OpenSegment(id uint64) (*Segment, error) {

	path := m.GetSegmentPath(id)

	fileReader := io.NewFileReader(path)
	if err := fileReader.Open(); err != nil {
		return nil, fmt.Errorf("%w: unable to open segment %d: %w", ErrIOFailure, id, err)
	}
	defer fileReader.Close()

	headerReadBuffer, headerBufferIdx := m.headerReaderBufferRing.Get()
	prefixErr := fileReader.ReadAt(headerReadBuffer, 0)

	var (
		columns int
		peekErr error
	)
	if prefixErr == nil {
		columns, peekErr = schema.PeekColumnCount(headerReadBuffer)
		if peekErr != nil {
			m.dumpCorrupt("corrupt segment header prefix", id, headerReadBuffer)
		}
	}
	m.headerReaderBufferRing.Return(headerBufferIdx)

	if prefixErr != nil {
		return nil, fmt.Errorf("%w: unable to read segment %d header: %w", ErrCorruptSegment, id, prefixErr)
	}
	if peekErr != nil {
		return nil, fmt.Errorf("%w: segment %d: %w", ErrCorruptSegment, id, peekErr)
	}

	headerBytes := make([]byte, schema.SegmentHeaderSize(columns))
	if err := fileReader.ReadAt(headerBytes, 0); err != nil {
		return nil, fmt.Errorf("%w: unable to read segment %d header: %w", ErrCorruptSegment, id, err)
	}

	var header schema.SegmentHeader
	if err := header.FromBytes(headerBytes); err != nil {
		m.dumpCorrupt("corrupt segment header", id, headerBytes)
		return nil, fmt.Errorf("%w: segment %d: %w", ErrCorruptSegment, id, err)
	}

	if header.SegmentId != id {
		return nil, fmt.Errorf("%w: file of segment %d holds segment %d", ErrCorruptSegment, id, header.SegmentId)
	}

	livenessBlock := make([]byte, header.LivenessSize)
	if err := fileReader.ReadAt(livenessBlock, int64(header.LivenessOffset)); err != nil {
		return nil, fmt.Errorf("%w: unable to read segment %d liveness: %w", ErrCorruptSegment, id, err)
	}

	words := (int(header.Rows) + 63) / 64
	if schema.Checksum(livenessBlock) != header.LivenessChecksum || len(livenessBlock) != words*8 {
		m.dumpCorrupt("corrupt segment liveness", id, livenessBlock)
		return nil, fmt.Errorf("%w: segment %d liveness checksum mismatch", ErrCorruptSegment, id)
	}

	liveness := bits.BitfieldFromWords(bits.MapBytesToArray[uint64](livenessBlock, words), int(header.Rows))

	deleted, deletionsSize, err := readDeletions(m.GetDeletionsPath(id))
	if err != nil {
		return nil, err
	}

	it := deleted.Iterator()
	for it.HasNext() {
		offset := it.Next()
		if offset >= header.Rows {
			return nil, fmt.Errorf("%w: segment %d deletes offset %d of %d rows", ErrCorruptSegment, id, offset, header.Rows)
		}
		liveness.Clear(int(offset))
	}

	seg := newSegment(header, path, m.GetDeletionsPath(id), fileReader.Size(), liveness, deleted)
	seg.deletionsSize = deletionsSize

	return seg, nil
}

// LoadColumn returns the decoded column, shared through the cache.
// Columns added after the segment was written read as nulls.
func (m *SegmentManager) LoadColumn(seg *Segment, column int, typ schema.FieldType) (*schema.ColumnVector, error) {

	if column >= len(seg.Header.Columns) {
		return schema.NullColumnVector(typ, seg.Rows()), nil
	}

	key := cache.ColumnKey{Segment: seg.Id(), Column: column}
	if cached, ok := m.cache.Get(key); ok {
		return cached, nil
	}

	v, err, _ := m.loadGroup.Do(strconv.FormatUint(seg.Id(), 10)+"/"+strconv.Itoa(column), func() (any, error) {

		if cached, ok := m.cache.Get(key); ok {
			return cached, nil
		}

		vec, loadErr := m.readColumn(seg, column, typ)
		if loadErr != nil {
			return nil, loadErr
		}

		m.cache.Put(key, vec)
		return vec, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*schema.ColumnVector), nil
}

func (m *SegmentManager) readColumn(seg *Segment, column int, typ schema.FieldType) (*schema.ColumnVector, error) {

	block := seg.Header.Columns[column]
	id := seg.Id()

	if block.DataType != typ {
		return nil, fmt.Errorf("%w: segment %d column %d is %s, schema says %s", ErrCorruptSegment, id, column, block.DataType, typ)
	}

	fileReader := io.NewFileReader(seg.Path())
	if err := fileReader.Open(); err != nil {
		return nil, fmt.Errorf("%w: unable to open segment %d: %w", ErrIOFailure, id, err)
	}
	defer fileReader.Close()

	stored := make([]byte, block.StoredSize)
	if err := fileReader.ReadAt(stored, int64(block.Offset)); err != nil {
		return nil, fmt.Errorf("%w: unable to read segment %d column %d: %w", ErrCorruptSegment, id, column, err)
	}

	if actual := schema.Checksum(stored); actual != block.Checksum {
		m.dumpCorrupt("corrupt column block", id, stored)
		return nil, fmt.Errorf("%w: segment %d column %d checksum %08x, expected %08x", ErrCorruptSegment, id, column, actual, block.Checksum)
	}

	payload, err := compression.Decompress(compression.Type(block.Compression), stored, int(block.RawSize))
	if err != nil {
		m.dumpCorrupt("unable to decompress column block", id, stored)
		return nil, fmt.Errorf("%w: segment %d column %d: %w", ErrCorruptSegment, id, column, err)
	}

	vec, err := codec.Decode(typ, codec.Encoding(block.Encoding), seg.Rows(), payload)
	if err != nil {
		m.dumpCorrupt("unable to decode column block", id, payload)
		return nil, fmt.Errorf("%w: segment %d column %d: %w", ErrCorruptSegment, id, column, err)
	}

	return vec, nil
}
