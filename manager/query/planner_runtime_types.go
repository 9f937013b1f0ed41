package query

import (
	"math"

	"github.com/dot5enko/colstore/schema"
)

// CompiledFilter is a filter resolved against a schema.
// Operand is already coerced to the column type.
type CompiledFilter struct {
	Column     int
	Type       schema.FieldType
	Comparator Comparator

	Operand schema.Value

	// MatchNothing is set for ordering comparisons against the null literal.
	MatchNothing bool
}

// MatchesNulls reports whether null cells satisfy the filter.
func (f CompiledFilter) MatchesNulls() bool {
	return f.Operand.Null && f.Comparator == Equals && !f.MatchNothing
}

// Matches evaluates the filter on one cell.
func (f CompiledFilter) Matches(v schema.Value) bool {
	if f.MatchNothing {
		return false
	}
	if f.Operand.Null {
		if f.Comparator == Equals {
			return v.Null
		}
		return !v.Null
	}
	if v.Null {
		return false
	}
	if v.Type == schema.Float64FieldType && (math.IsNaN(v.Float) || math.IsNaN(f.Operand.Float)) {
		return f.Comparator == NotEquals
	}
	return f.Comparator.Holds(v.Compare(f.Operand))
}

type CompiledSortKey struct {
	Column    int
	Direction Direction
}

type CompiledAggregate struct {
	// ValueColumn is -1 when Count counts rows.
	ValueColumn int
	ValueType   schema.FieldType

	Aggregation Aggregation
	Output      schema.SchemaColumn
}

// Compiled is a plan bound to a schema, in execution order.
type Compiled struct {
	Schema schema.Schema

	Filters []CompiledFilter

	// PreSort indexes schema columns, PostSort indexes Output columns.
	PreSort  []CompiledSortKey
	PostSort []CompiledSortKey

	Grouped     bool
	GroupColumn int // -1 for a single global group
	Aggregates  []CompiledAggregate

	// Output lists the columns available to projection: the schema columns,
	// or the group column followed by the aggregates.
	Output     []schema.SchemaColumn
	Projection []int

	Limit int // -1 when unlimited
}

// Columns is the final result layout.
func (c *Compiled) Columns() []schema.SchemaColumn {
	out := make([]schema.SchemaColumn, len(c.Projection))
	for i, idx := range c.Projection {
		out[i] = c.Output[idx]
	}
	return out
}

// HasNoFilters reports a plan that selects every live row.
func (c *Compiled) HasNoFilters() bool {
	return len(c.Filters) == 0
}
