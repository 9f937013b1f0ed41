package manager

import (
	"github.com/dot5enko/colstore/schema"
)

// IngestBuffer accumulates coerced rows of the open segment column by column.
type IngestBuffer struct {
	schema  schema.Schema
	columns []*schema.ColumnVector

	rows     int
	capacity int
}

func NewIngestBuffer(s schema.Schema, capacity int) *IngestBuffer {
	b := &IngestBuffer{
		schema:   s,
		capacity: capacity,
	}
	b.Reset()
	return b
}

func (b *IngestBuffer) Reset() {
	b.columns = make([]*schema.ColumnVector, len(b.schema.Columns))
	for i, col := range b.schema.Columns {
		b.columns[i] = schema.NewColumnVector(col.Type, b.capacity)
	}
	b.rows = 0
}

// AddRow appends one value per schema column.
func (b *IngestBuffer) AddRow(values []schema.Value) {
	for i, v := range values {
		b.columns[i].Append(v)
	}
	b.rows++
}

func (b *IngestBuffer) Len() int {
	return b.rows
}

func (b *IngestBuffer) Full() bool {
	return b.rows >= b.capacity
}

func (b *IngestBuffer) Columns() []*schema.ColumnVector {
	return b.columns
}

func (b *IngestBuffer) SchemaVersion() uint32 {
	return b.schema.Version
}
