// Package oidmask implements OID subset masks.
//
// A mask is a bit array over OIDs plus a total count. On disk it is
// total:u32 followed by ceil(total/32) big-endian u32 words; within each word
// bit 31 is the lowest OID (MSB-first).
package oidmask

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"math/bits"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/blastdb/internal/binio"
)

// ErrCorrupt is returned when a mask file is malformed.
var ErrCorrupt = errors.New("oidmask: corrupt mask")

// ErrRange is returned when an OID range cannot be represented.
var ErrRange = errors.New("oidmask: range out of bounds")

// Mask is an immutable OID membership set.
type Mask struct {
	total  uint32
	words  []uint32
	source string
}

// Parse decodes a mask file. source identifies the file for duplicate
// detection and diagnostics.
func Parse(data []byte, source string) (*Mask, error) {
	r := binio.NewSliceReader(data)
	total, err := r.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, source, err)
	}
	n := wordCount(total)
	if r.Len() < n*4 {
		return nil, fmt.Errorf("%w: %s: want %d words, have %d bytes", ErrCorrupt, source, n, r.Len())
	}
	words := make([]uint32, n)
	for i := range words {
		words[i], _ = r.ReadUint32()
	}
	// Bits past total are ignored so membership never exceeds the declared range.
	if rem := total % 32; rem != 0 && n > 0 {
		words[n-1] &= ^uint32(0) << (32 - rem)
	}
	return &Mask{total: total, words: words, source: source}, nil
}

// FromRange builds a mask selecting exactly the inclusive range [first, last].
// The mask's total is last+1, so last must be below math.MaxUint32.
func FromRange(first, last uint32) (*Mask, error) {
	if first > last {
		first, last = last, first
	}
	total := uint64(last) + 1
	if total > math.MaxUint32 {
		return nil, fmt.Errorf("%w: last oid %d", ErrRange, last)
	}
	m := &Mask{
		total:  uint32(total),
		words:  make([]uint32, wordCount(uint32(total))),
		source: fmt.Sprintf("range:%d-%d", first, last),
	}
	for oid := uint64(first); oid <= uint64(last); oid++ {
		m.words[oid/32] |= 1 << (31 - oid%32)
	}
	return m, nil
}

// MustFromRange is like FromRange but panics on error.
func MustFromRange(first, last uint32) *Mask {
	m, err := FromRange(first, last)
	if err != nil {
		panic(err)
	}
	return m
}

// FromOIDs builds a mask with total entries containing the given OIDs.
// OIDs >= total are ignored.
func FromOIDs(total uint32, oids []uint32, source string) *Mask {
	m := &Mask{total: total, words: make([]uint32, wordCount(total)), source: source}
	for _, oid := range oids {
		if oid < total {
			m.words[oid/32] |= 1 << (31 - oid%32)
		}
	}
	return m
}

func wordCount(total uint32) int {
	return int((uint64(total) + 31) / 32)
}

// Total returns the number of OIDs the mask covers.
func (m *Mask) Total() uint32 { return m.total }

// Source identifies where the mask came from: a file name, or
// "range:first-last" for synthesized masks.
func (m *Mask) Source() string { return m.source }

// Contains reports whether oid is a member.
func (m *Mask) Contains(oid uint32) bool {
	if oid >= m.total {
		return false
	}
	return m.words[oid/32]&(1<<(31-oid%32)) != 0
}

// Count returns the number of members.
func (m *Mask) Count() uint64 {
	var n uint64
	for _, w := range m.words {
		n += uint64(bits.OnesCount32(w))
	}
	return n
}

// CountRange returns the number of members in [lo, hi).
func (m *Mask) CountRange(lo, hi uint32) uint64 {
	hi = min(hi, m.total)
	var n uint64
	for oid := lo; oid < hi; {
		w := m.words[oid/32]
		if oid%32 == 0 && oid+32 <= hi {
			n += uint64(bits.OnesCount32(w))
			oid += 32
			continue
		}
		if w&(1<<(31-oid%32)) != 0 {
			n++
		}
		oid++
	}
	return n
}

// All yields members in ascending order.
func (m *Mask) All() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for i, w := range m.words {
			for w != 0 {
				lz := bits.LeadingZeros32(w)
				if !yield(uint32(i*32 + lz)) {
					return
				}
				w &^= 1 << (31 - lz)
			}
		}
	}
}

// Bitmap returns the members as a roaring bitmap.
func (m *Mask) Bitmap() *roaring.Bitmap {
	rb := roaring.New()
	for oid := range m.All() {
		rb.Add(oid)
	}
	return rb
}

// RangeBitmap returns the members in [lo, hi), shifted down by lo.
func (m *Mask) RangeBitmap(lo, hi uint64) *roaring.Bitmap {
	rb := roaring.New()
	hi = min(hi, uint64(m.total))
	for oid := lo; oid < hi; {
		w := m.words[oid/32] << (oid % 32)
		if w == 0 {
			oid = (oid/32 + 1) * 32
			continue
		}
		oid += uint64(bits.LeadingZeros32(w))
		if oid >= hi {
			break
		}
		rb.Add(uint32(oid - lo))
		oid++
	}
	return rb
}

// Encode returns the on-disk representation.
func (m *Mask) Encode() []byte {
	out := binio.AppendUint32(make([]byte, 0, 4+len(m.words)*4), m.total)
	for _, w := range m.words {
		out = binio.AppendUint32(out, w)
	}
	return out
}
