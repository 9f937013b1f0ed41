package executor

import (
	"slices"

	"github.com/dot5enko/colstore/manager/query"
	"github.com/dot5enko/colstore/schema"
)

// compareKey orders nulls last in both directions.
func compareKey(a, b schema.Value, direction query.Direction) int {
	switch {
	case a.Null && b.Null:
		return 0
	case a.Null:
		return 1
	case b.Null:
		return -1
	}

	c := a.Compare(b)
	if direction == query.Descending {
		c = -c
	}
	return c
}

func compareKeys(a, b []schema.Value, keys []query.CompiledSortKey) int {
	for i, key := range keys {
		if c := compareKey(a[i], b[i], key.Direction); c != 0 {
			return c
		}
	}
	return 0
}

// sortRefs stably orders rows by the key columns. Only key values are materialized.
func sortRefs(loader *columnLoader, refs []RowRef, keys []query.CompiledSortKey) ([]RowRef, error) {
	if len(keys) == 0 || len(refs) < 2 {
		return refs, nil
	}

	width := len(keys)
	values := make([]schema.Value, len(refs)*width)

	for i, ref := range refs {
		for k, key := range keys {
			v, err := loader.value(ref, key.Column)
			if err != nil {
				return nil, err
			}
			values[i*width+k] = v
		}
	}

	order := make([]int, len(refs))
	for i := range order {
		order[i] = i
	}

	slices.SortStableFunc(order, func(a, b int) int {
		return compareKeys(values[a*width:(a+1)*width], values[b*width:(b+1)*width], keys)
	})

	sorted := make([]RowRef, len(refs))
	for i, idx := range order {
		sorted[i] = refs[idx]
	}
	return sorted, nil
}

// sortRows stably orders materialized rows by output column keys.
func sortRows(rows [][]schema.Value, keys []query.CompiledSortKey) {
	if len(keys) == 0 {
		return
	}

	slices.SortStableFunc(rows, func(a, b []schema.Value) int {
		for _, key := range keys {
			if c := compareKey(a[key.Column], b[key.Column], key.Direction); c != 0 {
				return c
			}
		}
		return 0
	})
}
