package cache

import (
	"testing"

	"github.com/dot5enko/colstore/schema"
)

func touch(buf []byte) {
	for i := 0; i < len(buf); i += 64 {
		buf[i]++
	}
}

func BenchmarkHeaderPrefixPool(b *testing.B) {
	p := NewFixedSizeBufferPool(128, schema.SegmentPrefixSize)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf, idx := p.Get()
			touch(buf)
			p.Return(idx)
		}
	})
}

func BenchmarkTypedRingBuffer(b *testing.B) {
	type scratch struct {
		offsets []uint32
	}

	p := NewTypedRingBuffer[scratch](16)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			item, idx := p.Get()
			if item.offsets == nil {
				item.offsets = make([]uint32, 4096)
			}
			item.offsets[0]++
			p.Return(idx)
		}
	})
}

func BenchmarkSegmentCacheHit(b *testing.B) {
	c := NewSegmentCache(8)
	c.Put(ColumnKey{Segment: 1, Column: 0}, schema.NullColumnVector(schema.Int64FieldType, 16))

	for b.Loop() {
		c.Get(ColumnKey{Segment: 1, Column: 0})
	}
}

func TestFixedSizeBufferPool(t *testing.T) {
	p := NewFixedSizeBufferPool(2, 16)

	a, ida := p.Get()
	b, idb := p.Get()

	if len(a) != 16 || cap(b) != 16 {
		t.Errorf("Expected 16 byte buffers but got %d/%d", len(a), cap(b))
	}
	if ida == idb {
		t.Errorf("Expected distinct buffers but got %d twice", ida)
	}

	p.Return(ida)
	_, again := p.Get()
	if again != ida {
		t.Errorf("Expected returned buffer %d but got %d", ida, again)
	}
}

func TestTypedRingBufferReusesSlots(t *testing.T) {
	p := NewTypedRingBuffer[[]uint32](3)

	if p.Size() != 3 {
		t.Errorf("Expected %d but got %d", 3, p.Size())
	}

	item, idx := p.Get()
	*item = append(*item, 7)
	p.Return(idx)

	for i := 0; i < p.Size(); i++ {
		again, againIdx := p.Get()
		if againIdx == idx && (len(*again) != 1 || (*again)[0] != 7) {
			t.Errorf("Expected slot %d to keep its contents", idx)
		}
	}
}

func TestSegmentCacheEvictsLeastRecentSegment(t *testing.T) {
	c := NewSegmentCache(2)
	vec := schema.NullColumnVector(schema.Int64FieldType, 4)

	c.Put(ColumnKey{Segment: 1, Column: 0}, vec)
	c.Put(ColumnKey{Segment: 1, Column: 1}, vec)
	c.Put(ColumnKey{Segment: 2, Column: 0}, vec)

	// segment 1 becomes the most recent one
	if _, ok := c.Get(ColumnKey{Segment: 1, Column: 1}); !ok {
		t.Fatalf("Expected cached column")
	}

	c.Put(ColumnKey{Segment: 3, Column: 0}, vec)

	if _, ok := c.Get(ColumnKey{Segment: 2, Column: 0}); ok {
		t.Errorf("Expected segment 2 to be evicted")
	}
	if _, ok := c.Get(ColumnKey{Segment: 1, Column: 0}); !ok {
		t.Errorf("Expected segment 1 to stay cached")
	}

	stats := c.Stats()
	if stats.Segments != 2 || stats.Columns != 3 {
		t.Errorf("Expected 2 segments and 3 columns but got %d and %d", stats.Segments, stats.Columns)
	}
	if stats.Evictions != 1 {
		t.Errorf("Expected %d but got %d", 1, stats.Evictions)
	}
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("Expected 2 hits and 1 miss but got %d and %d", stats.Hits, stats.Misses)
	}

	item, ok := c.Item(ColumnKey{Segment: 1, Column: 1})
	if !ok || item.RtStats.Reads != 1 {
		t.Errorf("Expected one read of the entry")
	}

	c.Invalidate(1)
	if _, ok := c.Get(ColumnKey{Segment: 1, Column: 0}); ok {
		t.Errorf("Expected invalidated segment to be gone")
	}
}
