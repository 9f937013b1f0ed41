package executor

import (
	"github.com/dot5enko/colstore/schema"
)

// Result is a fully materialized query answer.
type Result struct {
	columns []schema.SchemaColumn
	rows    [][]schema.Value

	// ids is nil for grouped results
	ids []schema.RowID
}

func newResult(columns []schema.SchemaColumn, rows [][]schema.Value, ids []schema.RowID) *Result {
	return &Result{columns: columns, rows: rows, ids: ids}
}

func (r *Result) Columns() []schema.SchemaColumn {
	return r.columns
}

func (r *Result) ColumnNames() []string {
	names := make([]string, len(r.columns))
	for i, c := range r.columns {
		names[i] = c.Name
	}
	return names
}

func (r *Result) Len() int {
	return len(r.rows)
}

func (r *Result) Row(i int) []schema.Value {
	return r.rows[i]
}

func (r *Result) Rows() [][]schema.Value {
	return r.rows
}

// RowID is false for rows produced by grouping.
func (r *Result) RowID(i int) (schema.RowID, bool) {
	if r.ids == nil {
		return schema.RowID{}, false
	}
	return r.ids[i], true
}

func (r *Result) RowIDs() []schema.RowID {
	return r.ids
}

func (r *Result) columnIndex(name string) (int, error) {
	for i, c := range r.columns {
		if c.Name == name {
			return i, nil
		}
	}
	return -1, unknownResultColumn(name)
}

func (r *Result) Value(i int, column string) (schema.Value, error) {
	idx, err := r.columnIndex(column)
	if err != nil {
		return schema.Value{}, err
	}
	return r.rows[i][idx], nil
}

// Column returns one output column across all rows.
func (r *Result) Column(name string) ([]schema.Value, error) {
	idx, err := r.columnIndex(name)
	if err != nil {
		return nil, err
	}

	out := make([]schema.Value, len(r.rows))
	for i, row := range r.rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Cursor iterates the result. It holds no store resources.
func (r *Result) Cursor() *Cursor {
	return newCursor(r.columns, &resultSource{result: r}, nil)
}

type resultSource struct {
	result *Result
	pos    int
}

func (s *resultSource) next() ([]schema.Value, schema.RowID, bool, error) {
	if s.pos >= len(s.result.rows) {
		return nil, schema.RowID{}, false, nil
	}

	i := s.pos
	s.pos++

	id, _ := s.result.RowID(i)
	return s.result.rows[i], id, true, nil
}
