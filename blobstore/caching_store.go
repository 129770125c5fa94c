package blobstore

import (
	"context"
	"errors"
	"io"

	"github.com/hupe1980/blastdb/internal/cache"
	"golang.org/x/sync/errgroup"
)

// CachingStore wraps a BlobStore and adds block-level caching.
// Blobs that can be mapped are returned unwrapped.
type CachingStore struct {
	inner     BlobStore
	cache     *cache.LRU
	blockSize int64
}

// NewCachingStore creates a new CachingStore holding at most capacity bytes.
// blockSize defaults to 64KB if <= 0.
func NewCachingStore(inner BlobStore, capacity, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = 64 << 10
	}
	return &CachingStore{
		inner:     inner,
		cache:     cache.NewLRU(capacity, nil),
		blockSize: blockSize,
	}
}

// Open opens name through the cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	if _, ok := b.(Mapper); ok {
		return b, nil
	}
	return &cachingBlob{
		inner:     b,
		cache:     s.cache,
		name:      name,
		blockSize: s.blockSize,
	}, nil
}

// Stats returns the cache hit and miss counters.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.cache.Stats()
}

type cachingBlob struct {
	inner     Blob
	cache     *cache.LRU
	name      string
	blockSize int64
}

func (b *cachingBlob) Close() error { return b.inner.Close() }

func (b *cachingBlob) Size() int64 { return b.inner.Size() }

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	size := b.inner.Size()
	if off < 0 || off >= size {
		return 0, io.EOF
	}

	want := int64(len(p))
	if off+want > size {
		want = size - off
	}
	startBlock := off / b.blockSize
	endBlock := (off + want - 1) / b.blockSize

	if err := b.fill(ctx, startBlock, endBlock); err != nil {
		return 0, err
	}

	n := 0
	for blk := startBlock; blk <= endBlock; blk++ {
		data, err := b.block(ctx, blk)
		if err != nil {
			return n, err
		}
		blkStart := blk * b.blockSize
		lo := max(blkStart, off)
		hi := min(blkStart+int64(len(data)), off+want)
		if hi <= lo {
			break
		}
		n += copy(p[lo-off:hi-off], data[lo-blkStart:hi-blkStart])
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// fill fetches missing blocks of [start, end] concurrently.
func (b *cachingBlob) fill(ctx context.Context, start, end int64) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for blk := start; blk <= end; blk++ {
		if _, ok := b.cache.Get(cache.Key{Path: b.name, Block: blk}); ok {
			continue
		}
		g.Go(func() error {
			_, err := b.fetch(ctx, blk)
			return err
		})
	}
	return g.Wait()
}

func (b *cachingBlob) block(ctx context.Context, blk int64) ([]byte, error) {
	if data, ok := b.cache.Get(cache.Key{Path: b.name, Block: blk}); ok {
		return data, nil
	}
	// The block may have been evicted between fill and copy.
	return b.fetch(ctx, blk)
}

func (b *cachingBlob) fetch(ctx context.Context, blk int64) ([]byte, error) {
	off := blk * b.blockSize
	length := min(b.blockSize, b.inner.Size()-off)
	buf := make([]byte, length)
	n, err := b.inner.ReadAt(ctx, buf, off)
	if err != nil && !(errors.Is(err, io.EOF) && int64(n) == length) {
		return nil, err
	}
	b.cache.Set(cache.Key{Path: b.name, Block: blk}, buf[:n])
	return buf[:n], nil
}
