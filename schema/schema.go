package schema

import (
	"fmt"
)

type Schema struct {
	Name    string         `json:"name"`
	Version uint32         `json:"version"`
	Columns []SchemaColumn `json:"columns"`
}

// Declare validates an explicit column list and returns version 1 of the schema.
func Declare(name string, columns []SchemaColumn) (Schema, error) {
	s := Schema{
		Name:    name,
		Version: 1,
		Columns: append([]SchemaColumn(nil), columns...),
	}

	if err := s.Validate(); err != nil {
		return Schema{}, err
	}

	return s, nil
}

func (s Schema) Validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: schema `%s` has no columns", ErrSchema, s.Name)
	}

	seen := make(map[string]struct{}, len(s.Columns))
	for _, col := range s.Columns {
		if col.Name == "" {
			return fmt.Errorf("%w: empty column name", ErrSchema)
		}
		if !col.Type.Valid() {
			return fmt.Errorf("%w: column `%s` has invalid type", ErrSchema, col.Name)
		}
		if _, dup := seen[col.Name]; dup {
			return fmt.Errorf("%w: duplicate column `%s`", ErrSchema, col.Name)
		}
		seen[col.Name] = struct{}{}
	}

	return nil
}

// Resolve returns the position of a column in the default projection order.
func (s Schema) Resolve(name string) (int, error) {
	for idx, it := range s.Columns {
		if it.Name == name {
			return idx, nil
		}
	}
	return -1, fmt.Errorf("%w: `%s` on schema `%s`", ErrUnknownColumn, name, s.Name)
}

func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// WithColumns is the additive migration path: it appends columns and bumps the version.
func (s Schema) WithColumns(columns ...SchemaColumn) (Schema, error) {
	if len(columns) == 0 {
		return Schema{}, fmt.Errorf("%w: migration adds no columns", ErrSchema)
	}

	next := Schema{
		Name:    s.Name,
		Version: s.Version + 1,
		Columns: make([]SchemaColumn, 0, len(s.Columns)+len(columns)),
	}
	next.Columns = append(next.Columns, s.Columns...)
	next.Columns = append(next.Columns, columns...)

	if err := next.Validate(); err != nil {
		return Schema{}, err
	}
	return next, nil
}

// Subset returns a schema holding only the named columns, in the given order.
func (s Schema) Subset(names []string) (Schema, []int, error) {
	out := Schema{Name: s.Name, Version: s.Version, Columns: make([]SchemaColumn, 0, len(names))}
	positions := make([]int, 0, len(names))

	for _, name := range names {
		idx, err := s.Resolve(name)
		if err != nil {
			return Schema{}, nil, err
		}
		out.Columns = append(out.Columns, s.Columns[idx])
		positions = append(positions, idx)
	}
	return out, positions, nil
}
