package executor

import (
	"context"

	"github.com/dot5enko/colstore/manager/query"
	"github.com/dot5enko/colstore/schema"
)

func applyLimit[T any](items []T, limit int) []T {
	if limit >= 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// orderedRefs selects, sorts and limits row references without materializing other columns.
func (e *Executor) orderedRefs(ctx context.Context, plan *query.Compiled, segments []Segment) (*columnLoader, []RowRef, error) {

	selections, _, err := e.Select(ctx, plan, segments)
	if err != nil {
		return nil, nil, err
	}

	loader := newColumnLoader(plan.Schema, segments)

	refs, err := sortRefs(loader, flatten(selections), plan.PreSort)
	if err != nil {
		return nil, nil, err
	}

	return loader, applyLimit(refs, plan.Limit), nil
}

// groupedRows runs grouping, post sort, projection and limit.
func (e *Executor) groupedRows(ctx context.Context, plan *query.Compiled, segments []Segment) ([][]schema.Value, error) {

	selections, _, err := e.Select(ctx, plan, segments)
	if err != nil {
		return nil, err
	}

	loader := newColumnLoader(plan.Schema, segments)

	var rows [][]schema.Value

	if plan.GroupColumn < 0 {
		rows, err = aggregateGlobal(loader, selections, plan)
	} else {
		var refs []RowRef
		if refs, err = sortRefs(loader, flatten(selections), plan.PreSort); err != nil {
			return nil, err
		}
		rows, err = groupRefs(loader, refs, plan)
	}
	if err != nil {
		return nil, err
	}

	sortRows(rows, plan.PostSort)

	projected := make([][]schema.Value, len(rows))
	for i, row := range rows {
		out := make([]schema.Value, len(plan.Projection))
		for j, idx := range plan.Projection {
			out[j] = row[idx]
		}
		projected[i] = out
	}

	return applyLimit(projected, plan.Limit), nil
}

// Execute runs the plan to completion and materializes the projected rows.
func (e *Executor) Execute(ctx context.Context, plan *query.Compiled, segments []Segment) (*Result, error) {

	if plan.Grouped {
		rows, err := e.groupedRows(ctx, plan, segments)
		if err != nil {
			return nil, err
		}
		return newResult(plan.Columns(), rows, nil), nil
	}

	loader, refs, err := e.orderedRefs(ctx, plan, segments)
	if err != nil {
		return nil, err
	}

	rows := make([][]schema.Value, len(refs))
	ids := make([]schema.RowID, len(refs))

	for i, ref := range refs {
		row := make([]schema.Value, len(plan.Projection))
		for j, col := range plan.Projection {
			if row[j], err = loader.value(ref, col); err != nil {
				return nil, err
			}
		}
		rows[i] = row
		ids[i] = loader.rowId(ref)
	}

	return newResult(plan.Columns(), rows, ids), nil
}

// Count returns the number of rows Execute would produce.
// Ungrouped plans are answered from the selection alone.
func (e *Executor) Count(ctx context.Context, plan *query.Compiled, segments []Segment) (int, error) {

	if plan.Grouped {
		rows, err := e.groupedRows(ctx, plan, segments)
		if err != nil {
			return 0, err
		}
		return len(rows), nil
	}

	selections, _, err := e.Select(ctx, plan, segments)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, s := range selections {
		total += len(s.Offsets)
	}
	if plan.Limit >= 0 && total > plan.Limit {
		total = plan.Limit
	}
	return total, nil
}

// RowIDs returns the addresses of matching rows in plan order.
func (e *Executor) RowIDs(ctx context.Context, plan *query.Compiled, segments []Segment) ([]schema.RowID, error) {

	loader, refs, err := e.orderedRefs(ctx, plan, segments)
	if err != nil {
		return nil, err
	}

	ids := make([]schema.RowID, len(refs))
	for i, ref := range refs {
		ids[i] = loader.rowId(ref)
	}
	return ids, nil
}

// Cursor selects and orders rows eagerly, then materializes them one at a time.
// Grouped plans are fully computed first. release runs when the cursor is exhausted or closed.
func (e *Executor) Cursor(ctx context.Context, plan *query.Compiled, segments []Segment, release func()) (*Cursor, error) {

	if plan.Grouped {
		rows, err := e.groupedRows(ctx, plan, segments)
		if err != nil {
			return nil, err
		}
		return newCursor(plan.Columns(), &resultSource{result: newResult(plan.Columns(), rows, nil)}, release), nil
	}

	loader, refs, err := e.orderedRefs(ctx, plan, segments)
	if err != nil {
		return nil, err
	}

	src := &refSource{
		loader:     loader,
		refs:       refs,
		projection: plan.Projection,
	}
	return newCursor(plan.Columns(), src, release), nil
}

// Scan walks every live row of the segments in storage order.
func Scan(s schema.Schema, segments []Segment, release func()) *Cursor {
	return newCursor(s.Columns, &scanSource{schema: s, segments: segments}, release)
}
