package query

import "errors"

var (
	ErrEmptyAggregation  = errors.New("aggregation over zero values")
	ErrInvalidArgument   = errors.New("invalid query argument")
	ErrAggregateOverflow = errors.New("aggregate overflows its result type")
)
