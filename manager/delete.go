package manager

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/dot5enko/colstore/manager/query"
)

// Delete clears the liveness bit of one row. Deleting a deleted row is a no-op.
// The deletion is persisted by the next Flush, Compact or Close.
func (s *Store) Delete(id RowID) error {

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.isClosed() {
		return ErrStoreClosed
	}

	s.mu.RLock()
	seg, ok := s.byId[id.Segment]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: no segment %d", ErrRowNotFound, id.Segment)
	}

	_, err := seg.Delete(id.Offset)
	return err
}

// DeleteWhere deletes every row the plan selects, honoring its sort and limit,
// and persists the affected deletions. Grouped plans are rejected.
func (s *Store) DeleteWhere(ctx context.Context, plan *query.Plan) (int, error) {

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snap, err := s.acquire()
	if err != nil {
		return 0, err
	}
	defer snap.release()

	compiled, err := s.compile(snap, plan)
	if err != nil {
		return 0, err
	}
	if compiled.Grouped {
		return 0, fmt.Errorf("%w: grouped plans select no rows to delete", query.ErrInvalidArgument)
	}

	ids, err := s.executor.RowIDs(ctx, compiled, snap.views)
	if err != nil {
		return 0, err
	}

	perSegment := map[uint64]*roaring.Bitmap{}
	for _, id := range ids {
		bm, ok := perSegment[id.Segment]
		if !ok {
			bm = roaring.New()
			perSegment[id.Segment] = bm
		}
		bm.Add(id.Offset)
	}

	deleted := 0
	for _, seg := range snap.segments {
		bm, ok := perSegment[seg.Id()]
		if !ok {
			continue
		}
		deleted += seg.DeleteMany(bm)
		if err = seg.PersistDeletions(); err != nil {
			return deleted, fmt.Errorf("unable to persist deletions of segment %d: %w", seg.Id(), err)
		}
	}

	s.logger.Debug("deleted rows", "rows", deleted, "segments", len(perSegment))
	return deleted, nil
}
