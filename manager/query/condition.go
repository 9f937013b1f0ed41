package query

import "fmt"

// FilterCondition keeps rows whose Column compares to Value.
// A nil Value is the null literal.
type FilterCondition struct {
	Column     string
	Comparator Comparator
	Value      any
}

func (fc FilterCondition) String() string {
	return fmt.Sprintf("%s %s %v", fc.Column, fc.Comparator, fc.Value)
}

type SortKey struct {
	Column    string
	Direction Direction
}
