package volume

import "github.com/hupe1980/blastdb/internal/binio"

// OffsetTable is a big-endian u32 array of n+1 file offsets. Entry i is the
// start of record i; entry i+1 is its end.
type OffsetTable []byte

// At returns entry i.
func (t OffsetTable) At(i uint32) uint32 {
	return binio.Uint32(t[int(i)*4:])
}

// Len returns the number of entries.
func (t OffsetTable) Len() int { return len(t) / 4 }

// Range returns the [start, end) offsets of record i.
func (t OffsetTable) Range(i uint32) (uint32, uint32) {
	return t.At(i), t.At(i + 1)
}
