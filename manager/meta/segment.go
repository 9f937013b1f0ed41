package meta

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/dot5enko/colstore/bits"
	"github.com/dot5enko/colstore/schema"
)

// Segment is an immutable on-disk batch of rows plus its mutable liveness.
// Deleted offsets live in a roaring sidecar so the .seg file is never rewritten.
type Segment struct {
	Header schema.SegmentHeader

	path          string
	deletionsPath string
	fileSize      int64

	locker        sync.RWMutex
	liveness      *bits.Bitfield
	deleted       *roaring.Bitmap
	dirty         bool
	deletionsSize int64

	refs    atomic.Int64
	onClose atomic.Value // func()
}

func newSegment(header schema.SegmentHeader, path, deletionsPath string, fileSize int64, liveness *bits.Bitfield, deleted *roaring.Bitmap) *Segment {
	s := &Segment{
		Header:        header,
		path:          path,
		deletionsPath: deletionsPath,
		fileSize:      fileSize,
		liveness:      liveness,
		deleted:       deleted,
	}
	s.refs.Store(1)

	var f func()
	s.onClose.Store(f)

	return s
}

func (s *Segment) Id() uint64 {
	return s.Header.SegmentId
}

func (s *Segment) Rows() int {
	return int(s.Header.Rows)
}

func (s *Segment) Path() string {
	return s.path
}

func (s *Segment) IncRef() {
	s.refs.Add(1)
}

func (s *Segment) DecRef() {
	if s.refs.Add(-1) == 0 {
		if f := s.onClose.Load().(func()); f != nil {
			f()
		}
	}
}

// SetOnClose registers the callback run when the last reference is dropped.
func (s *Segment) SetOnClose(f func()) {
	s.onClose.Store(f)
}

// Liveness returns a copy of the liveness bitmap.
func (s *Segment) Liveness() *bits.Bitfield {
	s.locker.RLock()
	defer s.locker.RUnlock()

	return s.liveness.Clone()
}

func (s *Segment) ActiveRows() int {
	s.locker.RLock()
	defer s.locker.RUnlock()

	return s.Rows() - int(s.deleted.GetCardinality())
}

func (s *Segment) DeletedRows() int {
	s.locker.RLock()
	defer s.locker.RUnlock()

	return int(s.deleted.GetCardinality())
}

// SizeBytes is the segment file plus its persisted deletions.
func (s *Segment) SizeBytes() int64 {
	s.locker.RLock()
	defer s.locker.RUnlock()

	return s.fileSize + s.deletionsSize
}

// Delete clears one liveness bit. It reports false when the row was already deleted.
func (s *Segment) Delete(offset uint32) (bool, error) {
	if offset >= s.Header.Rows {
		return false, fmt.Errorf("%w: offset %d of segment %d with %d rows", ErrRowNotFound, offset, s.Id(), s.Header.Rows)
	}

	s.locker.Lock()
	defer s.locker.Unlock()

	if !s.deleted.CheckedAdd(offset) {
		return false, nil
	}

	s.liveness.Clear(int(offset))
	s.dirty = true

	return true, nil
}

// DeleteMany deletes every offset of rows and returns how many were live.
func (s *Segment) DeleteMany(rows *roaring.Bitmap) int {
	s.locker.Lock()
	defer s.locker.Unlock()

	changed := 0

	it := rows.Iterator()
	for it.HasNext() {
		offset := it.Next()
		if offset >= s.Header.Rows {
			continue
		}
		if s.deleted.CheckedAdd(offset) {
			s.liveness.Clear(int(offset))
			changed++
		}
	}

	if changed > 0 {
		s.dirty = true
	}
	return changed
}

// PersistDeletions writes the sidecar when deletions changed since the last call.
func (s *Segment) PersistDeletions() error {
	s.locker.Lock()
	defer s.locker.Unlock()

	if !s.dirty {
		return nil
	}

	size, err := writeDeletions(s.deletionsPath, s.deleted)
	if err != nil {
		return err
	}

	s.deletionsSize = size
	s.dirty = false

	return nil
}
