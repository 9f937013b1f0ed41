package manager

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/dot5enko/colstore/compression"
	"github.com/dot5enko/colstore/io"
	"github.com/dot5enko/colstore/manager/executor"
	"github.com/dot5enko/colstore/manager/meta"
	"github.com/dot5enko/colstore/schema"
	"golang.org/x/time/rate"
)

type RowID = schema.RowID

const (
	DefaultBatchSize        = 10_000
	MaxBatchSize            = 1_000_000
	DefaultInferSampleRows  = 1_000
	DefaultCacheMaxSegments = 64
)

type StoreConfig struct {
	PathToStorage string

	// Name is used for an inferred schema, defaults to the directory name.
	Name string

	// Schema declares the columns up front. When nil the first ingested batch is sampled.
	Schema           *schema.Schema
	InferColumnOrder []string
	InferSampleRows  int

	BatchSize int

	// Compression is one of "lz4" (default), "zstd" or "none".
	Compression string

	CacheMaxSegments int
	QueryWorkers     int

	// CompactionBytesPerSec throttles compaction writes, 0 disables the limit.
	CompactionBytesPerSec int

	// OnError receives recovered ingestion problems on the ingesting goroutine.
	OnError func(err *IngestError)

	Logger  *slog.Logger
	Verbose bool
}

func (c StoreConfig) withDefaults() (StoreConfig, error) {
	if c.PathToStorage == "" {
		return c, fmt.Errorf("%w: empty storage path", ErrInvalidConfig)
	}
	if c.Name == "" {
		c.Name = filepath.Base(filepath.Clean(c.PathToStorage))
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BatchSize < 1 || c.BatchSize > MaxBatchSize {
		return c, fmt.Errorf("%w: batch size %d out of 1..%d", ErrInvalidConfig, c.BatchSize, MaxBatchSize)
	}
	if c.InferSampleRows <= 0 {
		c.InferSampleRows = DefaultInferSampleRows
	}
	if c.Compression == "" {
		c.Compression = compression.Lz4.String()
	}
	if c.CacheMaxSegments <= 0 {
		c.CacheMaxSegments = DefaultCacheMaxSegments
	}
	if c.QueryWorkers <= 0 {
		c.QueryWorkers = runtime.GOMAXPROCS(0)
	}
	if c.CompactionBytesPerSec < 0 {
		return c, fmt.Errorf("%w: negative compaction rate", ErrInvalidConfig)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c, nil
}

// Store is a single writer, many reader column store living in one directory.
type Store struct {
	config StoreConfig
	logger *slog.Logger

	dirLock  *io.DirLock
	Meta     *meta.MetaManager
	Segments *meta.SegmentManager
	executor *executor.Executor

	compactionLimiter *rate.Limiter

	// writeMu serializes ingestion, flushes, deletions, compaction and migrations.
	writeMu     sync.Mutex
	buffer      *IngestBuffer
	pendingRows atomic.Int64

	// mu guards the live segment list and the schema.
	mu       sync.RWMutex
	segments []*meta.Segment
	byId     map[uint64]*meta.Segment
	schema   *schema.Schema
	closed   bool
}

// Open loads or creates a store. Segments named by the index are verified,
// files the index does not name are removed.
func Open(config StoreConfig) (*Store, error) {

	config, err := config.withDefaults()
	if err != nil {
		return nil, err
	}

	compressionType, err := compression.ParseType(config.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err = os.MkdirAll(config.PathToStorage, 0o755); err != nil {
		return nil, fmt.Errorf("%w: unable to create storage directory: %w", ErrIOFailure, err)
	}

	dirLock, err := io.AcquireLock(filepath.Join(config.PathToStorage, meta.LockFileName))
	if err != nil {
		if errors.Is(err, io.ErrLocked) {
			return nil, fmt.Errorf("%w: %s", ErrStoreLocked, config.PathToStorage)
		}
		return nil, fmt.Errorf("%w: unable to lock store: %w", ErrIOFailure, err)
	}

	s := &Store{
		config:   config,
		logger:   config.Logger.With("store", config.Name),
		dirLock:  dirLock,
		byId:     map[uint64]*meta.Segment{},
		executor: executor.New(config.QueryWorkers, config.Logger),
	}

	if config.CompactionBytesPerSec > 0 {
		s.compactionLimiter = rate.NewLimiter(rate.Limit(config.CompactionBytesPerSec), config.CompactionBytesPerSec)
	}

	if err = s.load(compressionType); err != nil {
		s.releaseSegments()
		dirLock.Release()
		return nil, err
	}

	s.logger.Info("store opened",
		"path", config.PathToStorage,
		"segments", len(s.segments),
		"compression", compressionType.String(),
		"batch_size", config.BatchSize,
	)

	return s, nil
}

func (s *Store) load(compressionType compression.Type) error {

	s.Meta = meta.NewMetaManager(s.config.PathToStorage, s.logger)

	found, err := s.Meta.Load()
	if err != nil {
		return err
	}

	if err = s.ensureSchema(s.config.Schema); err != nil {
		return err
	}

	s.Segments, err = meta.NewSegmentManager(s.config.PathToStorage, compressionType, s.config.CacheMaxSegments, s.logger)
	if err != nil {
		return err
	}

	index := s.Meta.GetIndex()
	live := make(map[uint64]bool, len(index.Segments))

	for _, id := range index.Segments {
		seg, openErr := s.Segments.OpenSegment(id)
		if openErr != nil {
			return fmt.Errorf("unable to open segment %d: %w", id, openErr)
		}
		if seg.Header.StoreUid != index.StoreUid {
			seg.DecRef()
			return fmt.Errorf("%w: segment %d belongs to another store", ErrCorruptSegment, id)
		}

		s.segments = append(s.segments, seg)
		s.byId[id] = seg
		live[id] = true
	}

	removed, err := s.Segments.RemoveOrphans(live)
	if err != nil {
		return err
	}
	if len(removed) > 0 {
		s.logger.Warn("removed orphan files", "files", removed)
	}

	if !found {
		return s.Meta.StoreIndex(nil)
	}
	return nil
}

// Schema returns the current schema, false until one is declared or inferred.
func (s *Store) Schema() (schema.Schema, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.schema == nil {
		return schema.Schema{}, false
	}
	return *s.schema, true
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.closed
}

func (s *Store) releaseSegments() {
	for _, seg := range s.segments {
		seg.DecRef()
	}
	s.segments = nil
	s.byId = map[uint64]*meta.Segment{}
}

// Close flushes pending rows and deletions and releases the directory lock.
// Cursors still open keep their segments readable until closed.
func (s *Store) Close() error {

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.isClosed() {
		return nil
	}

	flushErr := s.flushLocked()

	s.mu.Lock()
	s.closed = true
	s.releaseSegments()
	s.mu.Unlock()

	lockErr := s.dirLock.Release()

	s.logger.Info("store closed")

	return errors.Join(flushErr, lockErr)
}
