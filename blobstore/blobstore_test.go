package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db.pin"), []byte("index-bytes"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	ctx := context.Background()
	s := NewLocalStore(dir)

	b, err := s.Open(ctx, "db.pin")
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, int64(11), b.Size())

	buf := make([]byte, 5)
	n, err := b.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(buf[:n]))

	m, ok := b.(Mapper)
	require.True(t, ok)
	region, err := m.Map()
	require.NoError(t, err)
	assert.Equal(t, []byte("index-bytes"), region.Bytes())
	require.NoError(t, region.Close())

	_, err = s.Open(ctx, "missing.pin")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Open(ctx, "sub")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.True(t, Exists(ctx, s, "db.pin"))
	assert.False(t, Exists(ctx, s, "db.nin"))

	// Absolute names bypass the root.
	data, err := ReadFile(ctx, NewLocalStore("/nonexistent"), filepath.Join(dir, "db.pin"))
	require.NoError(t, err)
	assert.Equal(t, "index-bytes", string(data))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Put("a", []byte("hello"))

	data, err := ReadFile(ctx, s, "a")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	b, err := s.Open(ctx, "a")
	require.NoError(t, err)
	region, err := b.(Mapper).Map()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(region.Bytes()))

	n, err := b.ReadAt(ctx, make([]byte, 10), 3)
	assert.Equal(t, 2, n)
	assert.Equal(t, io.EOF, err)

	s.Delete("a")
	_, err = s.Open(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

// remoteStore hides the Mapper capability and counts backend reads.
type remoteStore struct {
	inner *MemoryStore
	reads atomic.Int64
}

func (r *remoteStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := r.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &remoteBlob{Blob: b, reads: &r.reads}, nil
}

type remoteBlob struct {
	Blob
	reads *atomic.Int64
}

func (b *remoteBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	b.reads.Add(1)
	return b.Blob.ReadAt(ctx, p, off)
}

func TestCachingStore(t *testing.T) {
	ctx := context.Background()
	payload := bytes.Repeat([]byte("ACGT"), 100) // 400 bytes
	mem := NewMemoryStore()
	mem.Put("db.nsq", payload)
	remote := &remoteStore{inner: mem}

	s := NewCachingStore(remote, 1<<20, 64)
	b, err := s.Open(ctx, "db.nsq")
	require.NoError(t, err)
	defer b.Close()

	_, isMapper := b.(Mapper)
	assert.False(t, isMapper)

	buf := make([]byte, 100)
	n, err := b.ReadAt(ctx, buf, 50)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, payload[50:150], buf)

	first := remote.reads.Load()
	assert.Equal(t, int64(3), first) // blocks 0, 1, 2

	n, err = b.ReadAt(ctx, buf, 60)
	require.NoError(t, err)
	assert.Equal(t, payload[60:160], buf[:n])
	assert.Equal(t, first, remote.reads.Load(), "second read should be served from cache")

	// Tail read crossing the end of the blob.
	n, err = b.ReadAt(ctx, buf, 380)
	assert.Equal(t, 20, n)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, payload[380:], buf[:n])

	hits, misses := s.Stats()
	assert.Positive(t, hits)
	assert.Positive(t, misses)
}

func TestCachingStore_MappableBypass(t *testing.T) {
	mem := NewMemoryStore()
	mem.Put("x", []byte("abc"))
	b, err := NewCachingStore(mem, 1024, 0).Open(context.Background(), "x")
	require.NoError(t, err)
	_, ok := b.(Mapper)
	assert.True(t, ok)
}
