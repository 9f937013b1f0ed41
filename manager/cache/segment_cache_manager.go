package cache

import (
	"sync"

	"github.com/dot5enko/colstore/schema"
)

type segmentEntry struct {
	columns map[int]*SegmentCacheItem
	lastUse uint64
}

// SegmentCache keeps decoded columns of at most maxSegments segments.
// The least recently used segment is evicted as a whole.
type SegmentCache struct {
	maxSegments int

	storage       map[uint64]*segmentEntry
	storageLocker sync.Mutex

	tick   uint64
	totals Totals
}

func NewSegmentCache(maxSegments int) *SegmentCache {
	if maxSegments < 1 {
		maxSegments = 1
	}
	return &SegmentCache{
		maxSegments: maxSegments,
		storage:     make(map[uint64]*segmentEntry, maxSegments),
	}
}

func (m *SegmentCache) Get(key ColumnKey) (*schema.ColumnVector, bool) {
	m.storageLocker.Lock()
	defer m.storageLocker.Unlock()

	entry, ok := m.storage[key.Segment]
	if ok {
		if item, found := entry.columns[key.Column]; found {
			m.tick++
			entry.lastUse = m.tick
			item.RtStats.Reads++
			m.totals.Hits++
			return item.Column, true
		}
	}

	m.totals.Misses++
	return nil, false
}

func (m *SegmentCache) Put(key ColumnKey, column *schema.ColumnVector) {
	m.storageLocker.Lock()
	defer m.storageLocker.Unlock()

	m.tick++

	entry, ok := m.storage[key.Segment]
	if !ok {
		for len(m.storage) >= m.maxSegments {
			m.evictOldest()
		}
		entry = &segmentEntry{columns: make(map[int]*SegmentCacheItem)}
		m.storage[key.Segment] = entry
	}

	entry.lastUse = m.tick
	entry.columns[key.Column] = newCacheItem(key, column)
}

func (m *SegmentCache) evictOldest() {
	var (
		oldest uint64
		found  bool
		minUse uint64
	)

	for id, entry := range m.storage {
		if !found || entry.lastUse < minUse {
			oldest, minUse, found = id, entry.lastUse, true
		}
	}

	if found {
		delete(m.storage, oldest)
		m.totals.Evictions++
	}
}

// Invalidate drops every cached column of a segment.
func (m *SegmentCache) Invalidate(segment uint64) {
	m.storageLocker.Lock()
	defer m.storageLocker.Unlock()

	delete(m.storage, segment)
}

func (m *SegmentCache) Item(key ColumnKey) (SegmentCacheItem, bool) {
	m.storageLocker.Lock()
	defer m.storageLocker.Unlock()

	entry, ok := m.storage[key.Segment]
	if !ok {
		return SegmentCacheItem{}, false
	}
	item, ok := entry.columns[key.Column]
	if !ok {
		return SegmentCacheItem{}, false
	}
	return *item, true
}

func (m *SegmentCache) Stats() Totals {
	m.storageLocker.Lock()
	defer m.storageLocker.Unlock()

	result := m.totals
	result.Segments = len(m.storage)
	for _, entry := range m.storage {
		result.Columns += len(entry.columns)
	}
	return result
}
