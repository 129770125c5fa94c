package binio

import "fmt"

// SliceReader provides bounds-checked big-endian reads from a byte slice.
// It is used by index loaders to avoid intermediate allocations when the
// source is a mapped region.
type SliceReader struct {
	b   []byte
	off int
}

// NewSliceReader returns a reader positioned at the start of b.
func NewSliceReader(b []byte) *SliceReader {
	return &SliceReader{b: b}
}

// Offset returns the current read position.
func (r *SliceReader) Offset() int {
	if r == nil {
		return 0
	}
	return r.off
}

// Len returns the number of unread bytes.
func (r *SliceReader) Len() int {
	if r.off >= len(r.b) {
		return 0
	}
	return len(r.b) - r.off
}

// ReadBytes returns a view of the next n bytes.
func (r *SliceReader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.b) {
		return nil, fmt.Errorf("%w: %d bytes at %d, len=%d", ErrTruncatedRead, n, r.off, len(r.b))
	}
	out := r.b[r.off : r.off+n]
	r.off += n
	return out, nil
}

// ReadUint32 reads a big-endian uint32.
func (r *SliceReader) ReadUint32() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return Uint32(b), nil
}

// ReadUint64 reads a big-endian uint64.
func (r *SliceReader) ReadUint64() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return Uint64(b), nil
}

// Skip advances the read position by n bytes.
func (r *SliceReader) Skip(n int) error {
	_, err := r.ReadBytes(n)
	return err
}
