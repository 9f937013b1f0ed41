package manager

import (
	"errors"
	"fmt"

	"github.com/dot5enko/colstore/manager/meta"
	"github.com/fatih/color"
)

// Flush writes the pending partial segment and persists pending deletions.
func (s *Store) Flush() error {

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.isClosed() {
		return ErrStoreClosed
	}

	return s.flushLocked()
}

func (s *Store) flushLocked() error {

	if s.buffer != nil && s.buffer.Len() > 0 {
		if err := s.writeBuffer(); err != nil {
			return err
		}
	}

	return s.persistDeletions(s.liveSegments())
}

func (s *Store) liveSegments() []*meta.Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*meta.Segment(nil), s.segments...)
}

func (s *Store) liveSegmentIds(extra ...uint64) []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint64, 0, len(s.segments)+len(extra))
	for _, seg := range s.segments {
		ids = append(ids, seg.Id())
	}
	return append(ids, extra...)
}

// writeSegment writes columns as a new segment that is not yet part of the index.
func (s *Store) writeSegment(buffer *IngestBuffer) (*meta.Segment, error) {

	id := s.Meta.AllocateSegmentId()

	seg, err := s.Segments.WriteSegment(s.Meta.GetIndex().StoreUid, id, buffer.SchemaVersion(), buffer.Columns())
	if err != nil {
		return nil, fmt.Errorf("unable to write segment %d: %w", id, err)
	}
	return seg, nil
}

// writeBuffer turns the ingest buffer into a durable segment and publishes it.
func (s *Store) writeBuffer() error {

	seg, err := s.writeSegment(s.buffer)
	if err != nil {
		return err
	}

	if err = s.Meta.StoreIndex(s.liveSegmentIds(seg.Id())); err != nil {
		seg.DecRef()
		return errors.Join(err, s.Segments.RemoveFiles(seg.Id()))
	}

	s.mu.Lock()
	s.segments = append(s.segments, seg)
	s.byId[seg.Id()] = seg
	s.mu.Unlock()

	rows := s.buffer.Len()
	s.buffer.Reset()
	s.pendingRows.Store(0)

	s.logger.Info("segment flushed", "segment", seg.Id(), "rows", rows, "bytes", seg.SizeBytes())
	if s.config.Verbose {
		color.Green(" +++ flushed segment %d with %d rows (%d bytes)", seg.Id(), rows, seg.SizeBytes())
	}

	return nil
}

func (s *Store) persistDeletions(segments []*meta.Segment) error {
	var errs []error
	for _, seg := range segments {
		if err := seg.PersistDeletions(); err != nil {
			errs = append(errs, fmt.Errorf("unable to persist deletions of segment %d: %w", seg.Id(), err))
		}
	}
	return errors.Join(errs...)
}
