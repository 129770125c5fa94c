package mapped

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/hupe1980/blastdb/blobstore"
	"github.com/hupe1980/blastdb/internal/binio"
	"github.com/hupe1980/blastdb/internal/resource"
)

// ErrClosed is returned when reading from a closed file.
var ErrClosed = errors.New("mapped: file is closed")

// Options controls how a File is opened.
type Options struct {
	// DisableMmap forces buffered reads.
	DisableMmap bool
	// ScratchSize is the initial size of each cursor's buffer in buffered
	// mode. It grows on demand.
	ScratchSize int
	// Resources charges mappings against a memory budget and throttles
	// buffered reads. May be nil.
	Resources *resource.Controller
	// Logger receives fallback notices. May be nil.
	Logger *slog.Logger
}

// File is one opened volume file.
type File struct {
	name     string
	blob     blobstore.Blob
	region   blobstore.Region
	data     []byte
	size     int64
	reserved int64
	opts     Options
	closed   atomic.Bool
}

// Open opens name in store and maps it when possible.
func Open(ctx context.Context, store blobstore.BlobStore, name string, opts Options) (*File, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	f := &File{name: name, blob: blob, size: blob.Size(), opts: opts}
	if opts.DisableMmap {
		return f, nil
	}

	m, ok := blob.(blobstore.Mapper)
	if !ok {
		return f, nil
	}
	if !opts.Resources.TryAcquireMemory(f.size) {
		f.logFallback(ctx, resource.ErrMemoryLimitExceeded)
		return f, nil
	}
	region, err := m.Map()
	if err != nil {
		opts.Resources.ReleaseMemory(f.size)
		f.logFallback(ctx, err)
		return f, nil
	}

	f.region = region
	f.data = region.Bytes()
	f.reserved = f.size
	return f, nil
}

func (f *File) logFallback(ctx context.Context, cause error) {
	if f.opts.Logger == nil {
		return
	}
	f.opts.Logger.WarnContext(ctx, "mapping unavailable, using buffered reads",
		"file", f.name,
		"size", f.size,
		"error", cause,
	)
}

// Name returns the blob name the file was opened from.
func (f *File) Name() string { return f.name }

// Size returns the file size in bytes.
func (f *File) Size() int64 { return f.size }

// Mapped reports whether reads are served from a memory mapping.
func (f *File) Mapped() bool { return f.region != nil }

// Bytes returns the whole mapped file, or nil in buffered mode.
func (f *File) Bytes() []byte {
	if f.closed.Load() {
		return nil
	}
	return f.data
}

// Close unmaps and closes the file. It is idempotent.
func (f *File) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	var errs []error
	if f.region != nil {
		errs = append(errs, f.region.Close())
		f.opts.Resources.ReleaseMemory(f.reserved)
	}
	errs = append(errs, f.blob.Close())
	return errors.Join(errs...)
}

// Attach returns a new independent cursor over f.
func (f *File) Attach() *Cursor {
	return &Cursor{f: f}
}

// ReadAll returns the full contents: the mapping itself, or a fresh copy.
func (f *File) ReadAll(ctx context.Context) ([]byte, error) {
	if f.closed.Load() {
		return nil, ErrClosed
	}
	if f.Mapped() {
		return f.data, nil
	}
	if err := f.opts.Resources.AcquireIO(ctx, int(f.size)); err != nil {
		return nil, err
	}
	return blobstore.ReadAll(ctx, f.blob)
}

// Cursor is a per-reader view of a File with its own position and buffer.
// A Cursor must not be used by more than one goroutine at a time.
type Cursor struct {
	f       *File
	off     int64
	scratch []byte
}

// File returns the file the cursor reads from.
func (c *Cursor) File() *File { return c.f }

// Seek sets the position of the next Read.
func (c *Cursor) Seek(off int64) { c.off = off }

// Offset returns the current position.
func (c *Cursor) Offset() int64 { return c.off }

// Read returns the next n bytes and advances the cursor.
func (c *Cursor) Read(ctx context.Context, n int) ([]byte, error) {
	b, err := c.ReadAt(ctx, c.off, n)
	if err != nil {
		return nil, err
	}
	c.off += int64(n)
	return b, nil
}

// ReadAt returns n bytes at off without moving the cursor.
//
// In mapped mode the result aliases the mapping. In buffered mode it aliases
// the cursor's scratch buffer and is only valid until the next read.
func (c *Cursor) ReadAt(ctx context.Context, off int64, n int) ([]byte, error) {
	f := c.f
	if f.closed.Load() {
		return nil, ErrClosed
	}
	if n < 0 || off < 0 || off+int64(n) > f.size {
		return nil, fmt.Errorf("%w: %d bytes at %d in %s (size %d)", binio.ErrTruncatedRead, n, off, f.name, f.size)
	}
	if f.Mapped() {
		return f.data[off : off+int64(n)], nil
	}

	if cap(c.scratch) < n {
		c.scratch = make([]byte, max(n, f.opts.ScratchSize))
	}
	buf := c.scratch[:n]
	if err := f.opts.Resources.AcquireIO(ctx, n); err != nil {
		return nil, err
	}
	read, err := f.blob.ReadAt(ctx, buf, off)
	if err != nil && !(errors.Is(err, io.EOF) && read == n) {
		return nil, err
	}
	return buf, nil
}

// ReadUint32 reads a big-endian uint32 at off.
func (c *Cursor) ReadUint32(ctx context.Context, off int64) (uint32, error) {
	b, err := c.ReadAt(ctx, off, 4)
	if err != nil {
		return 0, err
	}
	return binio.Uint32(b), nil
}
