package cache

import (
	"time"

	"github.com/google/uuid"
)

type CacheStats struct {
	CacheEntryId uuid.UUID

	Reads   int
	Created time.Time
}

// Totals are cache wide counters.
type Totals struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64

	Segments int
	Columns  int
}
