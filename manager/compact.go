package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/dot5enko/colstore/manager/meta"
	"github.com/dot5enko/colstore/schema"
	"github.com/fatih/color"
)

// Compact rewrites live rows into fresh segments of up to BatchSize rows,
// publishes them with one index replacement and retires the old segments.
// Retired files are removed once the last reader releases them.
func (s *Store) Compact() error {

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.isClosed() {
		return ErrStoreClosed
	}

	return s.compactLocked(context.Background())
}

// CompactIfNeeded compacts when the deleted share of stored rows reaches threshold.
func (s *Store) CompactIfNeeded(threshold float64) (bool, error) {

	if s.isClosed() {
		return false, ErrStoreClosed
	}

	stats := s.Stats()
	if stats.DeletedRows == 0 || stats.DeletedRatio() < threshold {
		return false, nil
	}

	if err := s.Compact(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) throttle(ctx context.Context, bytes int64) error {
	if s.compactionLimiter == nil {
		return nil
	}

	burst := int64(s.compactionLimiter.Burst())
	for bytes > 0 {
		n := min(bytes, burst)
		if err := s.compactionLimiter.WaitN(ctx, int(n)); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

func (s *Store) compactLocked(ctx context.Context) (topErr error) {

	current, ok := s.Schema()
	old := s.liveSegments()

	if !ok || len(old) == 0 {
		return nil
	}

	if err := s.persistDeletions(old); err != nil {
		return err
	}

	before := s.Stats()

	buffer := NewIngestBuffer(current, s.config.BatchSize)
	written := []*meta.Segment{}

	defer func() {
		if topErr == nil {
			return
		}
		for _, seg := range written {
			seg.DecRef()
			topErr = errors.Join(topErr, s.Segments.RemoveFiles(seg.Id()))
		}
	}()

	emit := func() error {
		seg, err := s.writeSegment(buffer)
		if err != nil {
			return err
		}
		written = append(written, seg)
		buffer.Reset()

		return s.throttle(ctx, seg.SizeBytes())
	}

	values := make([]schema.Value, len(current.Columns))
	columns := make([]*schema.ColumnVector, len(current.Columns))

	for _, seg := range old {
		live := seg.Liveness()
		if !live.Any() {
			continue
		}

		for i, col := range current.Columns {
			vec, err := s.Segments.LoadColumn(seg, i, col.Type)
			if err != nil {
				return fmt.Errorf("unable to read segment %d for compaction: %w", seg.Id(), err)
			}
			columns[i] = vec
		}

		var emitErr error
		live.ForEach(func(offset int) bool {
			for i, vec := range columns {
				values[i] = vec.Value(offset)
			}
			buffer.AddRow(values)

			if buffer.Full() {
				emitErr = emit()
			}
			return emitErr == nil
		})
		if emitErr != nil {
			return emitErr
		}
	}

	if buffer.Len() > 0 {
		if err := emit(); err != nil {
			return err
		}
	}

	ids := make([]uint64, len(written))
	for i, seg := range written {
		ids[i] = seg.Id()
	}

	if err := s.Meta.StoreIndex(ids); err != nil {
		return err
	}

	s.mu.Lock()
	s.segments = written
	s.byId = make(map[uint64]*meta.Segment, len(written))
	for _, seg := range written {
		s.byId[seg.Id()] = seg
	}
	s.mu.Unlock()

	for _, seg := range old {
		s.Segments.Forget(seg.Id())
		s.Segments.Retire(seg)
	}

	after := s.Stats()

	s.logger.Info("compaction finished",
		"segments_before", before.SegmentCount,
		"segments_after", after.SegmentCount,
		"rows_removed", before.DeletedRows,
		"bytes_before", before.EstimatedSizeBytes,
		"bytes_after", after.EstimatedSizeBytes,
	)
	if s.config.Verbose {
		color.Green(" +++ compacted %d segments into %d, %d rows dropped", before.SegmentCount, after.SegmentCount, before.DeletedRows)
	}

	return nil
}
