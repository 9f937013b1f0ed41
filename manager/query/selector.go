package query

import (
	"fmt"
	"strings"
)

type Aggregation byte

const (
	Sum Aggregation = iota + 1
	Mean
	Min
	Max
	Count
)

func (a Aggregation) String() string {
	switch a {
	case Sum:
		return "SUM"
	case Mean:
		return "MEAN"
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Count:
		return "COUNT"
	default:
		return fmt.Sprintf("aggregation(%d)", byte(a))
	}
}

// AggregateSelector is one output column of a grouped query.
// An empty GroupColumn folds every row into a single group,
// an empty ValueColumn is only valid for Count and counts rows.
type AggregateSelector struct {
	GroupColumn string
	ValueColumn string

	Aggregation Aggregation

	Alias string
}

func (s AggregateSelector) OutputName() string {
	if s.Alias != "" {
		return s.Alias
	}
	if s.ValueColumn == "" {
		return strings.ToLower(s.Aggregation.String())
	}
	return strings.ToLower(s.Aggregation.String()) + "_" + s.ValueColumn
}
