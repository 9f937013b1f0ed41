package manager

import (
	"sync"

	"github.com/dot5enko/colstore/bits"
	"github.com/dot5enko/colstore/manager/executor"
	"github.com/dot5enko/colstore/manager/meta"
	"github.com/dot5enko/colstore/schema"
)

// segmentView is the executor's read view of a referenced segment.
type segmentView struct {
	seg      *meta.Segment
	manager  *meta.SegmentManager
	liveness *bits.Bitfield
}

func (v *segmentView) Id() uint64 {
	return v.seg.Id()
}

func (v *segmentView) Rows() int {
	return v.seg.Rows()
}

func (v *segmentView) Liveness() *bits.Bitfield {
	return v.liveness
}

func (v *segmentView) ColumnHeader(column int) (schema.ColumnBlockHeader, bool) {
	if column >= len(v.seg.Header.Columns) {
		return schema.ColumnBlockHeader{}, false
	}
	return v.seg.Header.Columns[column], true
}

func (v *segmentView) Column(column int, typ schema.FieldType) (*schema.ColumnVector, error) {
	return v.manager.LoadColumn(v.seg, column, typ)
}

// snapshot pins the segments live at one instant together with their liveness.
type snapshot struct {
	schema schema.Schema
	views  []executor.Segment

	segments    []*meta.Segment
	releaseOnce sync.Once
}

func (s *Store) acquire() (*snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	snap := &snapshot{
		segments: append([]*meta.Segment(nil), s.segments...),
		views:    make([]executor.Segment, len(s.segments)),
	}
	if s.schema != nil {
		snap.schema = *s.schema
	}

	for i, seg := range snap.segments {
		seg.IncRef()
		snap.views[i] = &segmentView{
			seg:      seg,
			manager:  s.Segments,
			liveness: seg.Liveness(),
		}
	}

	return snap, nil
}

func (snap *snapshot) release() {
	snap.releaseOnce.Do(func() {
		for _, seg := range snap.segments {
			seg.DecRef()
		}
	})
}
