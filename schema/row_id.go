package schema

import "fmt"

// RowID addresses one row for the life of its segment.
type RowID struct {
	Segment uint64
	Offset  uint32
}

func (id RowID) Less(other RowID) bool {
	if id.Segment != other.Segment {
		return id.Segment < other.Segment
	}
	return id.Offset < other.Offset
}

func (id RowID) String() string {
	return fmt.Sprintf("%d:%d", id.Segment, id.Offset)
}
