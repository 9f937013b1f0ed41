package executor

import (
	"fmt"
	"slices"

	"github.com/dot5enko/colstore/lists"
	"github.com/dot5enko/colstore/manager/executor/filters"
	"github.com/dot5enko/colstore/manager/query"
	"github.com/dot5enko/colstore/schema"
)

type SegmentFilterProcessResult struct {
	SkippedSegments   int
	PrunedByBounds    int
	VectorizedFilters int
	ScalarFilters     int

	WastedMerges int
}

func (r *SegmentFilterProcessResult) add(other SegmentFilterProcessResult) {
	r.SkippedSegments += other.SkippedSegments
	r.PrunedByBounds += other.PrunedByBounds
	r.VectorizedFilters += other.VectorizedFilters
	r.ScalarFilters += other.ScalarFilters
	r.WastedMerges += other.WastedMerges
}

// filterSegment ANDs every filter of the plan with the segment liveness.
// Filters decided by column bounds never decode the column.
func filterSegment(scratch *SegmentScratch, seg Segment, plan *query.Compiled) ([]uint32, SegmentFilterProcessResult, error) {

	result := SegmentFilterProcessResult{}
	rows := seg.Rows()

	merger := lists.NewSelectionMerger(seg.Liveness())

	for _, filter := range plan.Filters {

		if merger.FullSkip() {
			result.WastedMerges += len(plan.Filters) - merger.Merges()
			break
		}

		header, present := seg.ColumnHeader(filter.Column)

		switch filters.ProcessFilterOnBounds(filter, header, present, rows) {
		case schema.NoIntersection:
			result.PrunedByBounds++
			merger.With(nil, true, false)
			continue
		case schema.FullIntersection:
			result.PrunedByBounds++
			merger.With(nil, false, true)
			continue
		}

		vec, err := seg.Column(filter.Column, filter.Type)
		if err != nil {
			return nil, result, fmt.Errorf("unable to load column `%s` of segment %d: %w", plan.Schema.Columns[filter.Column].Name, seg.Id(), err)
		}

		out := scratch.bitsFor(rows)
		if filters.ProcessFilterOnColumn(filter, vec, out) {
			result.VectorizedFilters++
		} else {
			result.ScalarFilters++
		}

		merger.With(out, false, false)
	}

	if merger.FullSkip() {
		result.SkippedSegments++
		return nil, result, nil
	}

	offsets := scratch.offsetsFor(rows)
	n := merger.Selected(offsets)

	return slices.Clone(offsets[:n]), result, nil
}
