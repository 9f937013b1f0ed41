package query

import (
	"fmt"
	"slices"

	"github.com/dot5enko/colstore/schema"
)

// Compile binds the plan to a schema. Nodes are applied in the fixed order
// filter, sort, group, project, limit regardless of the order they were added.
func Compile(p *Plan, s schema.Schema) (*Compiled, error) {

	result := &Compiled{
		Schema:      s,
		GroupColumn: -1,
		Limit:       -1,
	}

	var (
		sorts      []SortKey
		selectors  []AggregateSelector
		projection []string
		projected  bool
	)

	for _, node := range p.Nodes() {
		switch node.Kind {
		case FilterNode:
			compiled, err := compileFilter(node.Filter, s)
			if err != nil {
				return nil, err
			}
			result.Filters = append(result.Filters, compiled)
		case SortNode:
			sorts = append(sorts, node.Sort...)
		case GroupNode:
			selectors = append(selectors, node.Aggregate)
		case ProjectNode:
			projection = node.Project
			projected = true
		case LimitNode:
			if node.Limit < 0 {
				return nil, fmt.Errorf("%w: negative limit %d", ErrInvalidArgument, node.Limit)
			}
			if result.Limit < 0 || node.Limit < result.Limit {
				result.Limit = node.Limit
			}
		default:
			return nil, fmt.Errorf("%w: unknown plan node %d", ErrInvalidArgument, node.Kind)
		}
	}

	if len(selectors) > 0 {
		if err := result.compileGroup(selectors); err != nil {
			return nil, err
		}
	} else {
		result.Output = slices.Clone(s.Columns)
	}

	if err := result.compileSort(sorts); err != nil {
		return nil, err
	}

	if err := result.compileProjection(projection, projected); err != nil {
		return nil, err
	}

	return result, nil
}

func compileFilter(fc FilterCondition, s schema.Schema) (CompiledFilter, error) {
	if !fc.Comparator.Valid() {
		return CompiledFilter{}, fmt.Errorf("%w: comparator %s", ErrInvalidArgument, fc.Comparator)
	}

	idx, err := s.Resolve(fc.Column)
	if err != nil {
		return CompiledFilter{}, err
	}

	typ := s.Columns[idx].Type
	result := CompiledFilter{Column: idx, Type: typ, Comparator: fc.Comparator}

	if fc.Value == nil {
		result.Operand = schema.NullValue(typ)
		result.MatchNothing = fc.Comparator != Equals && fc.Comparator != NotEquals
		return result, nil
	}

	operand, err := schema.Coerce(typ, fc.Value)
	if err != nil {
		return CompiledFilter{}, fmt.Errorf("%w: filter on `%s`: %w", ErrInvalidArgument, fc.Column, err)
	}
	if operand.Null {
		result.MatchNothing = fc.Comparator != Equals && fc.Comparator != NotEquals
	}
	result.Operand = operand

	return result, nil
}

func (c *Compiled) compileGroup(selectors []AggregateSelector) error {

	s := c.Schema
	group := selectors[0].GroupColumn

	c.Grouped = true

	if group != "" {
		idx, err := s.Resolve(group)
		if err != nil {
			return err
		}
		c.GroupColumn = idx
		c.Output = append(c.Output, s.Columns[idx])
	}

	for _, sel := range selectors {
		if sel.GroupColumn != group {
			return fmt.Errorf("%w: group columns differ: `%s` and `%s`", ErrInvalidArgument, group, sel.GroupColumn)
		}

		agg, err := compileAggregate(sel, s)
		if err != nil {
			return err
		}

		for _, it := range c.Output {
			if it.Name == agg.Output.Name {
				return fmt.Errorf("%w: duplicate output column `%s`", ErrInvalidArgument, it.Name)
			}
		}

		c.Aggregates = append(c.Aggregates, agg)
		c.Output = append(c.Output, agg.Output)
	}

	return nil
}

func compileAggregate(sel AggregateSelector, s schema.Schema) (CompiledAggregate, error) {

	result := CompiledAggregate{ValueColumn: -1, Aggregation: sel.Aggregation}

	if sel.ValueColumn == "" {
		if sel.Aggregation != Count {
			return result, fmt.Errorf("%w: %s needs a value column", ErrInvalidArgument, sel.Aggregation)
		}
	} else {
		idx, err := s.Resolve(sel.ValueColumn)
		if err != nil {
			return result, err
		}
		result.ValueColumn = idx
		result.ValueType = s.Columns[idx].Type
	}

	var outType schema.FieldType

	switch sel.Aggregation {
	case Count:
		outType = schema.Int64FieldType
	case Min, Max:
		outType = result.ValueType
	case Sum:
		if !result.ValueType.Numeric() {
			return result, fmt.Errorf("%w: SUM over %s column `%s`", ErrInvalidArgument, result.ValueType, sel.ValueColumn)
		}
		outType = result.ValueType
	case Mean:
		switch result.ValueType {
		case schema.Int64FieldType, schema.Float64FieldType:
			outType = schema.Float64FieldType
		case schema.DecimalFieldType:
			outType = schema.DecimalFieldType
		default:
			return result, fmt.Errorf("%w: MEAN over %s column `%s`", ErrInvalidArgument, result.ValueType, sel.ValueColumn)
		}
	default:
		return result, fmt.Errorf("%w: aggregation %s", ErrInvalidArgument, sel.Aggregation)
	}

	result.Output = schema.SchemaColumn{Name: sel.OutputName(), Type: outType}
	return result, nil
}

func (c *Compiled) outputIndex(name string) int {
	return slices.IndexFunc(c.Output, func(col schema.SchemaColumn) bool {
		return col.Name == name
	})
}

// keys naming grouped output run after grouping, the rest before it
func (c *Compiled) compileSort(keys []SortKey) error {
	for _, key := range keys {

		if c.Grouped {
			if idx := c.outputIndex(key.Column); idx >= 0 {
				c.PostSort = append(c.PostSort, CompiledSortKey{Column: idx, Direction: key.Direction})
				continue
			}
		}

		idx, err := c.Schema.Resolve(key.Column)
		if err != nil {
			return err
		}
		c.PreSort = append(c.PreSort, CompiledSortKey{Column: idx, Direction: key.Direction})
	}
	return nil
}

func (c *Compiled) compileProjection(columns []string, projected bool) error {
	if !projected {
		c.Projection = make([]int, len(c.Output))
		for i := range c.Projection {
			c.Projection[i] = i
		}
		return nil
	}

	if len(columns) == 0 {
		return fmt.Errorf("%w: empty projection", ErrInvalidArgument)
	}

	c.Projection = make([]int, 0, len(columns))
	for _, name := range columns {
		idx := c.outputIndex(name)
		if idx < 0 {
			return fmt.Errorf("%w: `%s`", schema.ErrUnknownColumn, name)
		}
		c.Projection = append(c.Projection, idx)
	}
	return nil
}
