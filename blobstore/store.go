package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore opens immutable blobs by name.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
}

// Blob is a read-only handle to an immutable blob.
type Blob interface {
	io.Closer
	// ReadAt reads len(p) bytes at off. It follows io.ReaderAt semantics.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// Region is a read-only view of a whole blob.
// The bytes are valid until Close is called.
type Region interface {
	Bytes() []byte
	Close() error
}

// Mapper is implemented by blobs that can be mapped into memory.
type Mapper interface {
	// Map returns a read-only view of the blob. The region outlives the blob
	// handle and must be closed separately.
	Map() (Region, error)
}

// ReadAll reads the whole blob into memory.
func ReadAll(ctx context.Context, b Blob) ([]byte, error) {
	size := b.Size()
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !(err == io.EOF && int64(n) == size) {
		return nil, err
	}
	return buf[:n], nil
}

// ReadFile opens name in store and reads it fully.
func ReadFile(ctx context.Context, store BlobStore, name string) ([]byte, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	return ReadAll(ctx, b)
}

// Exists reports whether name can be opened in store.
func Exists(ctx context.Context, store BlobStore, name string) bool {
	b, err := store.Open(ctx, name)
	if err != nil {
		return false
	}
	_ = b.Close()
	return true
}
