package executor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dot5enko/colstore/manager/cache"
	"github.com/dot5enko/colstore/manager/query"
	"golang.org/x/sync/errgroup"
)

type Executor struct {
	// one scratch slot per worker
	scratch *cache.TypedRingBuffer[SegmentScratch]

	logger *slog.Logger
}

// New creates an executor running at most workers segment filters at a time,
// across all concurrent queries.
func New(workers int, logger *slog.Logger) *Executor {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		scratch: cache.NewTypedRingBuffer[SegmentScratch](workers),
		logger:  logger,
	}
}

func (e *Executor) Workers() int {
	return e.scratch.Size()
}

// Select evaluates the plan filters on every segment in parallel.
// Selections come back in segment order, empty segments omitted.
func (e *Executor) Select(ctx context.Context, plan *query.Compiled, segments []Segment) ([]SegmentSelection, SegmentFilterProcessResult, error) {

	perSegment := make([][]uint32, len(segments))

	var (
		total  SegmentFilterProcessResult
		locker sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Workers())

	for idx, seg := range segments {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			scratch, scratchIdx := e.scratch.Get()
			defer e.scratch.Return(scratchIdx)

			offsets, res, err := filterSegment(scratch, seg, plan)
			if err != nil {
				return err
			}

			perSegment[idx] = offsets

			locker.Lock()
			total.add(res)
			locker.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, total, err
	}

	selections := make([]SegmentSelection, 0, len(segments))
	for idx, offsets := range perSegment {
		if len(offsets) > 0 {
			selections = append(selections, SegmentSelection{Segment: idx, Offsets: offsets})
		}
	}

	e.logger.Debug("segments filtered",
		"segments", len(segments),
		"skipped", total.SkippedSegments,
		"pruned_by_bounds", total.PrunedByBounds,
		"vectorized", total.VectorizedFilters,
		"scalar", total.ScalarFilters,
	)

	return selections, total, nil
}
