package binio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrTruncatedRead is returned when fewer bytes are available than requested.
var ErrTruncatedRead = errors.New("binio: truncated read")

// ReadUint32 reads one big-endian uint32 from r.
func ReadUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, truncated(err, 4)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// ReadUint64 reads one big-endian uint64 from r.
func ReadUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, truncated(err, 8)
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// WriteUint32 writes v to w in big-endian order.
func WriteUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// WriteUint64 writes v to w in big-endian order.
func WriteUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// Uint32 decodes a big-endian uint32 from the first four bytes of b.
func Uint32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// Uint64 decodes a big-endian uint64 from the first eight bytes of b.
func Uint64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

// PutUint32 encodes v into the first four bytes of b.
func PutUint32(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }

// AppendUint32 appends the big-endian encoding of v to b.
func AppendUint32(b []byte, v uint32) []byte { return binary.BigEndian.AppendUint32(b, v) }

// AppendUint64 appends the big-endian encoding of v to b.
func AppendUint64(b []byte, v uint64) []byte { return binary.BigEndian.AppendUint64(b, v) }

func truncated(err error, want int) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: want %d bytes", ErrTruncatedRead, want)
	}
	return err
}
