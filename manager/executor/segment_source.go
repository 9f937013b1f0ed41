package executor

import (
	"github.com/dot5enko/colstore/bits"
	"github.com/dot5enko/colstore/schema"
)

// Segment is the read view of one segment of a snapshot.
type Segment interface {
	Id() uint64
	Rows() int

	// Liveness returns the liveness captured when the segment was handed to the query. Read only.
	Liveness() *bits.Bitfield

	// ColumnHeader is false for columns added after the segment was written.
	ColumnHeader(column int) (schema.ColumnBlockHeader, bool)

	// Column returns the decoded column. The vector is shared and read only.
	Column(column int, typ schema.FieldType) (*schema.ColumnVector, error)
}

// SegmentSelection lists the matching live offsets of one segment, ascending.
type SegmentSelection struct {
	Segment int
	Offsets []uint32
}

type RowRef struct {
	Segment int32
	Offset  uint32
}

func flatten(selections []SegmentSelection) []RowRef {
	total := 0
	for _, s := range selections {
		total += len(s.Offsets)
	}

	refs := make([]RowRef, 0, total)
	for _, s := range selections {
		for _, off := range s.Offsets {
			refs = append(refs, RowRef{Segment: int32(s.Segment), Offset: off})
		}
	}
	return refs
}

// columnLoader memoizes decoded columns for the duration of one query.
type columnLoader struct {
	segments []Segment
	schema   schema.Schema
	loaded   [][]*schema.ColumnVector
}

func newColumnLoader(s schema.Schema, segments []Segment) *columnLoader {
	return &columnLoader{
		segments: segments,
		schema:   s,
		loaded:   make([][]*schema.ColumnVector, len(segments)),
	}
}

func (l *columnLoader) column(segment, column int) (*schema.ColumnVector, error) {
	cols := l.loaded[segment]
	if cols == nil {
		cols = make([]*schema.ColumnVector, len(l.schema.Columns))
		l.loaded[segment] = cols
	}

	if cols[column] == nil {
		vec, err := l.segments[segment].Column(column, l.schema.Columns[column].Type)
		if err != nil {
			return nil, err
		}
		cols[column] = vec
	}

	return cols[column], nil
}

func (l *columnLoader) value(ref RowRef, column int) (schema.Value, error) {
	vec, err := l.column(int(ref.Segment), column)
	if err != nil {
		return schema.Value{}, err
	}
	return vec.Value(int(ref.Offset)), nil
}

func (l *columnLoader) rowId(ref RowRef) schema.RowID {
	return schema.RowID{Segment: l.segments[ref.Segment].Id(), Offset: ref.Offset}
}
