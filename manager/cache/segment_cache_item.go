package cache

import (
	"time"

	"github.com/dot5enko/colstore/schema"
	"github.com/google/uuid"
)

type ColumnKey struct {
	Segment uint64
	Column  int
}

// SegmentCacheItem is one decoded column. Column is shared by every reader
// and must not be modified.
type SegmentCacheItem struct {
	Key    ColumnKey
	Column *schema.ColumnVector

	RtStats *CacheStats
}

func newCacheItem(key ColumnKey, column *schema.ColumnVector) *SegmentCacheItem {
	uid, _ := uuid.NewV7()

	return &SegmentCacheItem{
		Key:    key,
		Column: column,
		RtStats: &CacheStats{
			CacheEntryId: uid,
			Created:      time.Now(),
		},
	}
}
