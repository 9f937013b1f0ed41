package lists

import (
	"github.com/dot5enko/colstore/bits"
)

// SelectionMerger ANDs per-filter selections of one segment into a single bitmap.
// It starts from the segment liveness so deleted rows never survive a merge.
type SelectionMerger struct {
	size int

	merges int

	ResultBitset *bits.Bitfield

	fullSkip bool
}

func NewSelectionMerger(liveness *bits.Bitfield) *SelectionMerger {
	return &SelectionMerger{
		size:         liveness.Len(),
		ResultBitset: liveness.Clone(),
	}
}

func (i *SelectionMerger) Size() int {
	return i.size
}

// FullSkip reports that the segment can not contain a matching row.
func (i *SelectionMerger) FullSkip() bool {
	return i.fullSkip || !i.ResultBitset.Any()
}

func (i *SelectionMerger) Merges() int {
	return i.merges
}

// With intersects the current result with a filter outcome.
// isFull means every row matched, isEmpty means none did; input is ignored in both cases.
func (i *SelectionMerger) With(input *bits.Bitfield, isEmpty, isFull bool) {

	i.merges += 1

	if isFull {
		return
	}

	if isEmpty {
		i.fullSkip = true
		i.ResultBitset.Reset()
		return
	}

	i.ResultBitset.And(input)
}

// WithOffsets intersects with an ascending list of matching row offsets.
func (i *SelectionMerger) WithOffsets(offsets []uint32) {
	bitset := bits.NewBitfield(i.size, false)
	bitset.FromSorted(offsets)

	i.With(bitset, len(offsets) == 0, false)
}

// Selected writes matching offsets into out and returns their number.
func (i *SelectionMerger) Selected(out []uint32) int {
	return i.ResultBitset.ToIndices(out)
}

func (i *SelectionMerger) Count() int {
	return i.ResultBitset.Count()
}
