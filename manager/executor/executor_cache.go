package executor

import "github.com/dot5enko/colstore/bits"

// SegmentScratch holds per worker buffers reused across segments.
type SegmentScratch struct {
	offsets []uint32
	words   []uint64
}

func (c *SegmentScratch) offsetsFor(rows int) []uint32 {
	if cap(c.offsets) < rows {
		c.offsets = make([]uint32, rows)
	}
	return c.offsets[:rows]
}

// bitsFor returns a cleared bitmap of rows bits backed by the scratch words.
func (c *SegmentScratch) bitsFor(rows int) *bits.Bitfield {
	words := (rows + 63) / 64
	if cap(c.words) < words {
		c.words = make([]uint64, words)
	}
	buf := c.words[:words]
	clear(buf)

	return bits.BitfieldFromWords(buf, rows)
}
