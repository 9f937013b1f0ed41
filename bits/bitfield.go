package bits

import "math/bits"

// Bitfield is a growable bitmap, one bit per row.
// Words past Len() are always zero.
type Bitfield struct {
	words []uint64
	size  int
}

func wordsFor(n int) int {
	return (n + 63) >> 6
}

func NewBitfield(size int, full bool) *Bitfield {
	b := &Bitfield{
		words: make([]uint64, wordsFor(size)),
		size:  size,
	}
	if full {
		b.SetAll()
	}
	return b
}

// BitfieldFromWords wraps already encoded words, trimming bits above size.
func BitfieldFromWords(words []uint64, size int) *Bitfield {
	need := wordsFor(size)
	if len(words) < need {
		grown := make([]uint64, need)
		copy(grown, words)
		words = grown
	}
	b := &Bitfield{words: words[:need], size: size}
	b.trimTail()
	return b
}

func (b *Bitfield) trimTail() {
	if rem := b.size & 63; rem != 0 && len(b.words) > 0 {
		b.words[len(b.words)-1] &= (uint64(1) << rem) - 1
	}
}

func (b *Bitfield) Len() int {
	return b.size
}

func (b *Bitfield) Words() []uint64 {
	return b.words
}

func (b *Bitfield) Set(bit int) {
	word := bit >> 6 // bit / 64
	mask := uint64(1) << (bit & 63)
	b.words[word] |= mask
}

func (b *Bitfield) Clear(bit int) {
	word := bit >> 6
	mask := uint64(1) << (bit & 63)
	b.words[word] &^= mask
}

func (b *Bitfield) SetTo(bit int, v bool) {
	if v {
		b.Set(bit)
	} else {
		b.Clear(bit)
	}
}

func (b *Bitfield) Get(bit int) bool {
	word := bit >> 6
	return (b.words[word]>>(bit&63))&1 == 1
}

// Append grows the bitfield by one bit.
func (b *Bitfield) Append(v bool) {
	if b.size&63 == 0 {
		b.words = append(b.words, 0)
	}
	b.size++
	if v {
		b.Set(b.size - 1)
	}
}

func (b *Bitfield) SetAll() {
	arr := b.words // removes bounds checks in indexing
	for i := range arr {
		arr[i] = ^uint64(0)
	}
	b.trimTail()
}

func (b *Bitfield) Reset() {
	clear(b.words)
}

// FromSorted sets all bits listed in the ascending offsets list.
func (b *Bitfield) FromSorted(offsets []uint32) {
	if len(offsets) == 0 {
		return
	}

	arr := b.words
	currWord := offsets[0] >> 6
	mask := uint64(0)

	for _, bit := range offsets {
		w := bit >> 6
		if w != currWord {
			arr[currWord] |= mask
			currWord = w
			mask = 0
		}
		mask |= 1 << (bit & 63)
	}

	arr[currWord] |= mask
}

func (b *Bitfield) ToIndices(out []uint32) int {
	filled := 0
	for wi, w := range b.words {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			out[filled] = uint32(wi*64 + tz)
			filled += 1
			w &= w - 1 // clear lowest set bit
		}
	}
	return filled
}

// ForEach calls fn for every set bit in ascending order, stopping when fn returns false.
func (b *Bitfield) ForEach(fn func(bit int) bool) {
	for wi, w := range b.words {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			if !fn(wi*64 + tz) {
				return
			}
			w &= w - 1
		}
	}
}

func (b *Bitfield) Any() bool {
	for _, w := range b.words {
		if w != 0 {
			return true
		}
	}
	return false
}

func (b *Bitfield) Count() int {
	c := 0
	arr := b.words
	i := 0
	for ; i+3 < len(arr); i += 4 {
		c += bits.OnesCount64(arr[i+0])
		c += bits.OnesCount64(arr[i+1])
		c += bits.OnesCount64(arr[i+2])
		c += bits.OnesCount64(arr[i+3])
	}
	for ; i < len(arr); i++ {
		c += bits.OnesCount64(arr[i])
	}
	return c
}

func (b *Bitfield) Clone() *Bitfield {
	words := make([]uint64, len(b.words))
	copy(words, b.words)
	return &Bitfield{words: words, size: b.size}
}

// And intersects b with other in place. Both must have the same length.
func (b *Bitfield) And(other *Bitfield) {
	for i := range b.words {
		b.words[i] &= other.words[i]
	}
}

func (b *Bitfield) Or(other *Bitfield) {
	for i := range b.words {
		b.words[i] |= other.words[i]
	}
}

// Not flips every bit within Len().
func (b *Bitfield) Not() {
	for i := range b.words {
		b.words[i] = ^b.words[i]
	}
	b.trimTail()
}

func (b *Bitfield) Equal(other *Bitfield) bool {
	if b.size != other.size {
		return false
	}
	for i := range b.words {
		if b.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

func MergeAND(a, b *Bitfield) *Bitfield {
	out := a.Clone()
	out.And(b)
	return out
}
