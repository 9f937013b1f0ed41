package executor

import (
	"fmt"

	"github.com/dot5enko/colstore/bits"
	"github.com/dot5enko/colstore/manager/query"
	"github.com/dot5enko/colstore/ops"
	"github.com/dot5enko/colstore/schema"
	"github.com/shopspring/decimal"
)

type accumulator struct {
	def query.CompiledAggregate

	count int64

	sumInt   ops.WideSum
	sumFloat float64
	sumDec   decimal.Decimal

	best    schema.Value
	hasBest bool
}

func newAccumulators(defs []query.CompiledAggregate) []accumulator {
	out := make([]accumulator, len(defs))
	for i, def := range defs {
		out[i] = accumulator{def: def, sumDec: decimal.Zero}
	}
	return out
}

// add folds one row. v is ignored when Count counts rows.
func (a *accumulator) add(v schema.Value) {
	if a.def.ValueColumn < 0 {
		a.count++
		return
	}
	if v.Null {
		return
	}

	a.count++

	switch a.def.Aggregation {
	case query.Sum, query.Mean:
		switch v.Type {
		case schema.Int64FieldType:
			a.sumInt.Add(v.Int)
		case schema.Float64FieldType:
			a.sumFloat += v.Float
		case schema.DecimalFieldType:
			a.sumDec = a.sumDec.Add(v.Dec)
		}
	case query.Min:
		if !a.hasBest || v.Compare(a.best) < 0 {
			a.best, a.hasBest = v, true
		}
	case query.Max:
		if !a.hasBest || v.Compare(a.best) > 0 {
			a.best, a.hasBest = v, true
		}
	}
}

func addSelected[T ops.NumericTypes](a *accumulator, agg ops.SelectedAggregate[T], toValue func(T) schema.Value) {
	if agg.Count == 0 {
		return
	}

	a.count += int64(agg.Count)

	switch a.def.Aggregation {
	case query.Sum, query.Mean:
		a.sumFloat += float64(agg.Sum)
	case query.Min:
		a.add(toValue(agg.Bounds.Min))
		a.count--
	case query.Max:
		a.add(toValue(agg.Bounds.Max))
		a.count--
	}
}

// addVector folds the selected non-null rows of a whole segment with the numeric kernels.
func (a *accumulator) addVector(vec *schema.ColumnVector, sel *bits.Bitfield) bool {
	if a.def.Aggregation == query.Count {
		return false
	}

	if vec.Nulls != nil {
		vec.Nulls.ForEach(func(bit int) bool {
			sel.Clear(bit)
			return true
		})
	}

	switch vec.Type {
	case schema.Int64FieldType:
		if a.def.Aggregation == query.Sum || a.def.Aggregation == query.Mean {
			sum, count := ops.SumSelectedWide(vec.Ints, sel)
			a.sumInt.Merge(sum)
			a.count += int64(count)
			return true
		}
		addSelected(a, ops.AggregateSelected(vec.Ints, sel), schema.Int64Value)
	case schema.Float64FieldType:
		// NaN orders below every number, which the kernel bounds do not follow
		if (a.def.Aggregation == query.Min || a.def.Aggregation == query.Max) && vec.NaNCount() > 0 {
			return false
		}
		addSelected(a, ops.AggregateSelected(vec.Floats, sel), schema.Float64Value)
	default:
		return false
	}
	return true
}

func (a *accumulator) result() (schema.Value, error) {
	out := a.def.Output

	switch a.def.Aggregation {
	case query.Count:
		return schema.Int64Value(a.count), nil

	case query.Sum:
		switch out.Type {
		case schema.Int64FieldType:
			sum, fits := a.sumInt.Int64()
			if !fits {
				return schema.NullValue(out.Type), fmt.Errorf("%w: sum of `%s` exceeds int64", query.ErrAggregateOverflow, out.Name)
			}
			return schema.Int64Value(sum), nil
		case schema.DecimalFieldType:
			return schema.DecimalValue(a.sumDec), nil
		default:
			return schema.Float64Value(a.sumFloat), nil
		}
	}

	if a.count == 0 {
		return schema.NullValue(out.Type), fmt.Errorf("%w: %s for `%s`", query.ErrEmptyAggregation, a.def.Aggregation, out.Name)
	}

	switch a.def.Aggregation {
	case query.Mean:
		if out.Type == schema.DecimalFieldType {
			return schema.DecimalValue(a.sumDec.Div(decimal.NewFromInt(a.count))), nil
		}
		if a.def.ValueType == schema.Int64FieldType {
			return schema.Float64Value(a.sumInt.Float64() / float64(a.count)), nil
		}
		return schema.Float64Value(a.sumFloat / float64(a.count)), nil
	case query.Min, query.Max:
		return a.best, nil
	}

	return schema.NullValue(out.Type), fmt.Errorf("%w: aggregation %s", query.ErrInvalidArgument, a.def.Aggregation)
}

type groupState struct {
	key  schema.Value
	accs []accumulator
}

func (g *groupState) row(plan *query.Compiled) ([]schema.Value, error) {
	row := make([]schema.Value, 0, len(plan.Output))
	if plan.GroupColumn >= 0 {
		row = append(row, g.key)
	}
	for i := range g.accs {
		v, err := g.accs[i].result()
		if err != nil {
			return nil, err
		}
		row = append(row, v)
	}
	return row, nil
}

// groupRefs folds ordered rows into groups kept in first-seen order.
func groupRefs(loader *columnLoader, refs []RowRef, plan *query.Compiled) ([][]schema.Value, error) {

	index := map[schema.GroupKey]int{}
	groups := []*groupState{}

	for _, ref := range refs {
		key, err := loader.value(ref, plan.GroupColumn)
		if err != nil {
			return nil, err
		}

		idx, ok := index[key.Key()]
		if !ok {
			idx = len(groups)
			index[key.Key()] = idx
			groups = append(groups, &groupState{key: key, accs: newAccumulators(plan.Aggregates)})
		}

		state := groups[idx]
		for i := range state.accs {
			var v schema.Value
			if col := state.accs[i].def.ValueColumn; col >= 0 {
				if v, err = loader.value(ref, col); err != nil {
					return nil, err
				}
			}
			state.accs[i].add(v)
		}
	}

	rows := make([][]schema.Value, 0, len(groups))
	for _, g := range groups {
		row, err := g.row(plan)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// aggregateGlobal folds every selected row into a single group, one segment at a time.
func aggregateGlobal(loader *columnLoader, selections []SegmentSelection, plan *query.Compiled) ([][]schema.Value, error) {

	state := &groupState{accs: newAccumulators(plan.Aggregates)}

	for _, sel := range selections {
		rows := loader.segments[sel.Segment].Rows()

		for i := range state.accs {
			acc := &state.accs[i]
			col := acc.def.ValueColumn

			if col < 0 {
				acc.count += int64(len(sel.Offsets))
				continue
			}

			vec, err := loader.column(sel.Segment, col)
			if err != nil {
				return nil, err
			}

			selected := bits.NewBitfield(rows, false)
			selected.FromSorted(sel.Offsets)

			if acc.addVector(vec, selected) {
				continue
			}

			for _, off := range sel.Offsets {
				acc.add(vec.Value(int(off)))
			}
		}
	}

	row, err := state.row(plan)
	if err != nil {
		return nil, err
	}
	return [][]schema.Value{row}, nil
}
