package manager

import (
	"fmt"
	"slices"

	"github.com/dot5enko/colstore/schema"
)

func (s *Store) setSchema(next schema.Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schema = &next
}

// ensureSchema reconciles a declared schema with the one stored on disk.
func (s *Store) ensureSchema(declared *schema.Schema) error {

	stored := s.Meta.GetSchema()

	if declared == nil {
		if stored != nil {
			s.setSchema(*stored)
		}
		return nil
	}

	if err := declared.Validate(); err != nil {
		return err
	}

	if stored == nil {
		next := *declared
		next.Columns = slices.Clone(declared.Columns)
		if next.Version == 0 {
			next.Version = 1
		}

		if err := s.Meta.StoreSchemeToDisk(next); err != nil {
			return err
		}
		s.setSchema(next)
		return nil
	}

	if !slices.Equal(stored.Columns, declared.Columns) {
		return fmt.Errorf("%w: declared columns conflict with stored schema `%s` version %d", schema.ErrSchema, stored.Name, stored.Version)
	}

	s.setSchema(*stored)
	return nil
}

// createSchema infers the schema from the first non-empty rows of a batch.
func (s *Store) createSchema(rows []schema.Row) error {

	sample := make([]schema.Row, 0, min(len(rows), s.config.InferSampleRows))
	for _, row := range rows {
		if len(sample) == s.config.InferSampleRows {
			break
		}
		if !isEmptyRow(row) {
			sample = append(sample, row)
		}
	}

	if len(sample) == 0 {
		return nil
	}

	inferred, err := schema.Infer(s.config.Name, sample, s.config.InferColumnOrder)
	if err != nil {
		return fmt.Errorf("unable to infer schema: %w", err)
	}

	if err = s.Meta.StoreSchemeToDisk(inferred); err != nil {
		return err
	}
	s.setSchema(inferred)

	s.logger.Info("inferred schema", "columns", inferred.ColumnNames(), "sampled_rows", len(sample))
	return nil
}

// AddColumns appends columns to the schema. Pending rows are flushed first;
// existing segments read the new columns as null.
func (s *Store) AddColumns(columns ...schema.SchemaColumn) error {

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.isClosed() {
		return ErrStoreClosed
	}

	if err := s.flushLocked(); err != nil {
		return err
	}

	current, ok := s.Schema()

	var (
		next schema.Schema
		err  error
	)
	if ok {
		next, err = current.WithColumns(columns...)
	} else {
		next, err = schema.Declare(s.config.Name, columns)
	}
	if err != nil {
		return err
	}

	if err = s.Meta.StoreSchemeToDisk(next); err != nil {
		return err
	}
	s.setSchema(next)
	s.buffer = nil

	s.logger.Info("schema migrated", "version", next.Version, "columns", len(next.Columns))
	return nil
}
