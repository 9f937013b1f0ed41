package manager

import "github.com/dot5enko/colstore/manager/cache"

// Stats is a metadata snapshot of the store.
type Stats struct {
	TotalRows   int
	ActiveRows  int
	DeletedRows int

	SegmentCount       int
	EstimatedSizeBytes int64

	// PendingRows are ingested but not yet flushed into a segment.
	PendingRows int
}

func (s Stats) DeletedRatio() float64 {
	if s.TotalRows == 0 {
		return 0
	}
	return float64(s.DeletedRows) / float64(s.TotalRows)
}

// Stats sums per segment liveness and stored sizes. It never touches column data.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := Stats{
		SegmentCount: len(s.segments),
		PendingRows:  int(s.pendingRows.Load()),
	}

	for _, seg := range s.segments {
		deleted := seg.DeletedRows()

		result.TotalRows += seg.Rows()
		result.DeletedRows += deleted
		result.ActiveRows += seg.Rows() - deleted
		result.EstimatedSizeBytes += seg.SizeBytes()
	}

	return result
}

// CacheStats reports decoded column cache usage.
func (s *Store) CacheStats() cache.Totals {
	return s.Segments.CacheStats()
}
