package meta

import (
	"fmt"
	"log/slog"

	"github.com/dot5enko/colstore/compression"
	"github.com/dot5enko/colstore/io"
	"github.com/dot5enko/colstore/manager/cache"
	"github.com/dot5enko/colstore/schema"
	"golang.org/x/sync/singleflight"
)

const headerPrefixBuffers = 32

type SegmentManager struct {
	storagePath string

	compression compression.Type

	cache *cache.SegmentCache

	// buffers
	headerReaderBufferRing *cache.FixedSizeBufferPool

	loadGroup singleflight.Group

	logger *slog.Logger
}

func NewSegmentManager(storagePath string, compressionType compression.Type, cacheMaxSegments int, logger *slog.Logger) (*SegmentManager, error) {
	sm := &SegmentManager{
		storagePath: storagePath,
		compression: compressionType,
		cache:       cache.NewSegmentCache(cacheMaxSegments),
		logger:      logger,
	}

	sm.headerReaderBufferRing = cache.NewFixedSizeBufferPool(headerPrefixBuffers, schema.SegmentPrefixSize)

	if _, err := sm.createStoragePathIfNotExists(SegmentsDirName); err != nil {
		return nil, err
	}

	return sm, nil
}

func (m *SegmentManager) CacheStats() cache.Totals {
	return m.cache.Stats()
}

// Forget drops cached columns of a segment that is no longer live.
func (m *SegmentManager) Forget(id uint64) {
	m.cache.Invalidate(id)
}

// RemoveFiles deletes the segment file and its deletions sidecar.
func (m *SegmentManager) RemoveFiles(id uint64) error {
	m.cache.Invalidate(id)

	for _, path := range []string{m.GetSegmentPath(id), m.GetDeletionsPath(id)} {
		if err := io.RemoveIfExists(path); err != nil {
			return fmt.Errorf("%w: unable to remove %s: %w", ErrIOFailure, path, err)
		}
	}
	return nil
}

// Retire drops the owner reference; files go away with the last reader.
func (m *SegmentManager) Retire(seg *Segment) {
	id := seg.Id()

	seg.SetOnClose(func() {
		if err := m.RemoveFiles(id); err != nil {
			m.logger.Error("unable to remove retired segment", "segment", id, "error", err)
			return
		}
		m.logger.Debug("removed retired segment", "segment", id)
	})

	seg.DecRef()
}
