package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/dot5enko/colstore/io"
	"github.com/dot5enko/colstore/schema"
	"github.com/google/uuid"
)

const (
	IndexFileName  = "INDEX"
	SchemaFileName = "schema.json"
	LockFileName   = "LOCK"
)

// Index names the live segments of a store in scan order.
type Index struct {
	StoreUid      uuid.UUID `json:"store_uid"`
	NextSegmentId uint64    `json:"next_segment_id"`
	Segments      []uint64  `json:"segments"`
}

func (idx Index) Clone() Index {
	idx.Segments = slices.Clone(idx.Segments)
	return idx
}

// MetaManager owns INDEX and schema.json. Both are replaced atomically.
type MetaManager struct {
	schema *schema.Schema
	index  Index
	lock   sync.RWMutex

	storagePath string
	logger      *slog.Logger
}

func (sm *MetaManager) getAbsStoragePath(segments ...string) string {

	pathSegments := []string{sm.storagePath}
	pathSegments = append(pathSegments, segments...)

	return filepath.Join(pathSegments...)
}

func NewMetaManager(storagePath string, logger *slog.Logger) *MetaManager {
	return &MetaManager{
		storagePath: storagePath,
		logger:      logger,
	}
}

// Load reads INDEX and schema.json. A directory without INDEX is a new store:
// it gets a fresh uid and found is false.
func (m *MetaManager) Load() (found bool, topErr error) {

	m.lock.Lock()
	defer m.lock.Unlock()

	indexBytes, topErr := os.ReadFile(m.getAbsStoragePath(IndexFileName))
	if topErr != nil {
		if !errors.Is(topErr, os.ErrNotExist) {
			return false, fmt.Errorf("%w: unable to read index: %w", ErrIOFailure, topErr)
		}

		uid, uidErr := uuid.NewV7()
		if uidErr != nil {
			return false, uidErr
		}
		m.index = Index{StoreUid: uid, NextSegmentId: 1}
	} else {
		var index Index
		if topErr = json.Unmarshal(indexBytes, &index); topErr != nil {
			return false, fmt.Errorf("%w: unable to decode index: %w", ErrCorruptSegment, topErr)
		}
		if index.NextSegmentId == 0 {
			index.NextSegmentId = 1
		}
		m.index = index
		found = true
	}

	schemaBytes, topErr := os.ReadFile(m.getAbsStoragePath(SchemaFileName))
	if topErr != nil {
		if errors.Is(topErr, os.ErrNotExist) {
			return found, nil
		}
		return found, fmt.Errorf("%w: unable to read schema: %w", ErrIOFailure, topErr)
	}

	var loaded schema.Schema
	if topErr = json.Unmarshal(schemaBytes, &loaded); topErr != nil {
		return found, fmt.Errorf("%w: unable to decode schema: %w", ErrCorruptSegment, topErr)
	}
	if topErr = loaded.Validate(); topErr != nil {
		return found, topErr
	}

	m.schema = &loaded
	m.logger.Info("loaded schema from disk", "schema_name", loaded.Name, "version", loaded.Version, "segments", len(m.index.Segments))

	return found, nil
}

func (m *MetaManager) GetSchema() *schema.Schema {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.schema
}

func (m *MetaManager) StoreSchemeToDisk(schemeObject schema.Schema) error {

	jschemeBytes, err := json.MarshalIndent(schemeObject, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode schema: %w", err)
	}

	if err = io.WriteFileAtomic(m.getAbsStoragePath(SchemaFileName), jschemeBytes); err != nil {
		return fmt.Errorf("%w: unable to store schema: %w", ErrIOFailure, err)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	m.schema = &schemeObject
	return nil
}

func (m *MetaManager) GetIndex() Index {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.index.Clone()
}

// AllocateSegmentId reserves the next id. It is persisted with the next StoreIndex.
func (m *MetaManager) AllocateSegmentId() uint64 {
	m.lock.Lock()
	defer m.lock.Unlock()

	id := m.index.NextSegmentId
	m.index.NextSegmentId++
	return id
}

// StoreIndex atomically replaces the list of live segments.
func (m *MetaManager) StoreIndex(segments []uint64) error {

	m.lock.Lock()
	defer m.lock.Unlock()

	next := m.index.Clone()
	next.Segments = slices.Clone(segments)

	indexBytes, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("unable to encode index: %w", err)
	}

	if err = io.WriteFileAtomic(m.getAbsStoragePath(IndexFileName), indexBytes); err != nil {
		return fmt.Errorf("%w: unable to store index: %w", ErrIOFailure, err)
	}

	m.index = next
	return nil
}
