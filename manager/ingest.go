package manager

import (
	"github.com/dot5enko/colstore/schema"
)

func isEmptyRow(row schema.Row) bool {
	for _, v := range row {
		if !schema.IsEmptyInput(v) {
			return false
		}
	}
	return true
}

func allNull(values []schema.Value) bool {
	for _, v := range values {
		if !v.Null {
			return false
		}
	}
	return true
}

func (s *Store) report(row int, column string, value any, err error) {
	if s.config.OnError == nil {
		return
	}
	s.config.OnError(&IngestError{Row: row, Column: column, Value: value, Err: err})
}

// Ingest appends rows to the open segment, flushing every BatchSize rows.
// Rows whose fields are all empty are dropped. Malformed fields are stored as null
// and reported to OnError, unknown fields are reported and ignored.
func (s *Store) Ingest(rows []schema.Row) error {

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.isClosed() {
		return ErrStoreClosed
	}

	current, ok := s.Schema()
	if !ok {
		if err := s.createSchema(rows); err != nil {
			return err
		}
		if current, ok = s.Schema(); !ok {
			// nothing but empty rows so far
			return nil
		}
	}

	if s.buffer == nil {
		s.buffer = NewIngestBuffer(current, s.config.BatchSize)
	}

	values := make([]schema.Value, len(current.Columns))
	dropped := 0

	for rowIdx, row := range rows {

		if isEmptyRow(row) {
			dropped++
			continue
		}

		for key, v := range row {
			if _, err := current.Resolve(key); err != nil {
				s.report(rowIdx, key, v, schema.ErrUnknownColumn)
			}
		}

		for i, col := range current.Columns {
			raw := row[col.Name]

			v, err := schema.Coerce(col.Type, raw)
			if err != nil {
				s.report(rowIdx, col.Name, raw, err)
				v = schema.NullValue(col.Type)
			}
			values[i] = v
		}

		if allNull(values) {
			dropped++
			continue
		}

		s.buffer.AddRow(values)
		s.pendingRows.Store(int64(s.buffer.Len()))

		if s.buffer.Full() {
			if err := s.flushLocked(); err != nil {
				return err
			}
		}
	}

	if dropped > 0 {
		s.logger.Debug("dropped empty rows", "rows", dropped)
	}

	return nil
}
