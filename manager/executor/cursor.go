package executor

import (
	"fmt"
	"sync"

	"github.com/dot5enko/colstore/schema"
)

func unknownResultColumn(name string) error {
	return fmt.Errorf("%w: `%s` is not a result column", schema.ErrUnknownColumn, name)
}

type rowSource interface {
	next() (row []schema.Value, id schema.RowID, ok bool, err error)
}

// Cursor is a single use forward iterator over query rows.
// It is not safe for concurrent use. Exhausting or closing it releases the snapshot it reads.
type Cursor struct {
	columns []schema.SchemaColumn
	src     rowSource

	row []schema.Value
	id  schema.RowID

	err  error
	done bool

	release     func()
	releaseOnce sync.Once
}

func newCursor(columns []schema.SchemaColumn, src rowSource, release func()) *Cursor {
	return &Cursor{
		columns: columns,
		src:     src,
		release: release,
	}
}

func (c *Cursor) Columns() []schema.SchemaColumn {
	return c.columns
}

// Next advances to the next row, false once rows are exhausted or an error occurred.
func (c *Cursor) Next() bool {
	if c.done {
		return false
	}

	row, id, ok, err := c.src.next()
	if err != nil || !ok {
		c.err = err
		c.row = nil
		c.Close()
		return false
	}

	c.row, c.id = row, id
	return true
}

// Row is the current row in column order. The slice must not be retained across Next.
func (c *Cursor) Row() []schema.Value {
	return c.row
}

// RowID is the address of the current row. Grouped rows have no address.
func (c *Cursor) RowID() schema.RowID {
	return c.id
}

func (c *Cursor) Value(column string) (schema.Value, error) {
	for i, col := range c.columns {
		if col.Name == column {
			return c.row[i], nil
		}
	}
	return schema.Value{}, unknownResultColumn(column)
}

// Map returns the current row keyed by column name with plain Go values.
func (c *Cursor) Map() map[string]any {
	out := make(map[string]any, len(c.columns))
	for i, col := range c.columns {
		out[col.Name] = c.row[i].Any()
	}
	return out
}

func (c *Cursor) Err() error {
	return c.err
}

// Close releases the cursor early. It is safe to call more than once.
func (c *Cursor) Close() error {
	c.done = true
	c.releaseOnce.Do(func() {
		if c.release != nil {
			c.release()
		}
	})
	return nil
}

// refSource lazily materializes projected columns of already selected rows.
type refSource struct {
	loader     *columnLoader
	refs       []RowRef
	projection []int

	pos int
	buf []schema.Value
}

func (s *refSource) next() ([]schema.Value, schema.RowID, bool, error) {
	if s.pos >= len(s.refs) {
		return nil, schema.RowID{}, false, nil
	}

	ref := s.refs[s.pos]
	s.pos++

	if s.buf == nil {
		s.buf = make([]schema.Value, len(s.projection))
	}

	for i, col := range s.projection {
		v, err := s.loader.value(ref, col)
		if err != nil {
			return nil, schema.RowID{}, false, err
		}
		s.buf[i] = v
	}

	return s.buf, s.loader.rowId(ref), true, nil
}

// scanSource walks every live row segment by segment, holding one segment's columns at a time.
type scanSource struct {
	schema   schema.Schema
	segments []Segment

	segment int
	offsets []uint32
	pos     int
	columns []*schema.ColumnVector

	buf []schema.Value
}

func (s *scanSource) enter(idx int) error {
	seg := s.segments[idx]

	live := seg.Liveness()
	s.offsets = make([]uint32, live.Count())
	live.ToIndices(s.offsets)
	s.pos = 0

	if len(s.offsets) == 0 {
		s.columns = nil
		return nil
	}

	s.columns = make([]*schema.ColumnVector, len(s.schema.Columns))
	for i, col := range s.schema.Columns {
		vec, err := seg.Column(i, col.Type)
		if err != nil {
			return fmt.Errorf("unable to load column `%s` of segment %d: %w", col.Name, seg.Id(), err)
		}
		s.columns[i] = vec
	}
	return nil
}

func (s *scanSource) next() ([]schema.Value, schema.RowID, bool, error) {
	for s.offsets == nil || s.pos >= len(s.offsets) {
		if s.offsets != nil {
			s.segment++
		}
		if s.segment >= len(s.segments) {
			return nil, schema.RowID{}, false, nil
		}
		if err := s.enter(s.segment); err != nil {
			return nil, schema.RowID{}, false, err
		}
	}

	off := s.offsets[s.pos]
	s.pos++

	if s.buf == nil {
		s.buf = make([]schema.Value, len(s.schema.Columns))
	}
	for i, vec := range s.columns {
		s.buf[i] = vec.Value(int(off))
	}

	return s.buf, schema.RowID{Segment: s.segments[s.segment].Id(), Offset: off}, true, nil
}

type failedSource struct {
	err error
}

func (s failedSource) next() ([]schema.Value, schema.RowID, bool, error) {
	return nil, schema.RowID{}, false, s.err
}

// FailedCursor yields no rows and reports err from Err.
func FailedCursor(err error) *Cursor {
	return newCursor(nil, failedSource{err: err}, nil)
}
