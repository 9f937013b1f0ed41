package query

import "fmt"

type Comparator byte

const (
	Equals Comparator = iota + 1
	NotEquals
	GreaterThan
	GreaterOrEqual
	LessThan
	LessOrEqual
)

func (c Comparator) String() string {
	switch c {
	case Equals:
		return "EQ"
	case NotEquals:
		return "NEQ"
	case GreaterThan:
		return "GT"
	case GreaterOrEqual:
		return "GTE"
	case LessThan:
		return "LT"
	case LessOrEqual:
		return "LTE"
	default:
		return fmt.Sprintf("comparator(%d)", byte(c))
	}
}

func (c Comparator) Valid() bool {
	return c >= Equals && c <= LessOrEqual
}

// Holds applies the comparator to the result of a.Compare(b).
func (c Comparator) Holds(cmp int) bool {
	switch c {
	case Equals:
		return cmp == 0
	case NotEquals:
		return cmp != 0
	case GreaterThan:
		return cmp > 0
	case GreaterOrEqual:
		return cmp >= 0
	case LessThan:
		return cmp < 0
	case LessOrEqual:
		return cmp <= 0
	}
	return false
}

type Direction byte

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}
