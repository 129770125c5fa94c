package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/hupe1980/blastdb/internal/mmap"
)

// LocalStore implements BlobStore using the local file system.
//
// Names are joined onto the root directory. An empty root uses names as
// given, so absolute and working-directory-relative paths both work.
type LocalStore struct {
	root string
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) path(name string) string {
	if s.root == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.root, name)
}

// Open opens a blob for reading.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if fi.IsDir() {
		_ = f.Close()
		return nil, &os.PathError{Op: "open", Path: s.path(name), Err: ErrNotFound}
	}
	return &localBlob{f: f, size: fi.Size()}, nil
}

type localBlob struct {
	f    *os.File
	size int64
}

func (b *localBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if off < 0 || off >= b.size {
		return 0, io.EOF
	}
	return b.f.ReadAt(p, off)
}

func (b *localBlob) Close() error {
	return b.f.Close()
}

func (b *localBlob) Size() int64 {
	return b.size
}

// willNeedLimit is the size below which a mapped file is prefetched.
const willNeedLimit = 1 << 20

// Map memory-maps the file read-only. Small files are prefetched; larger
// ones get a random access hint.
func (b *localBlob) Map() (Region, error) {
	m, err := mmap.Map(b.f)
	if err != nil {
		return nil, err
	}
	advice := mmap.AccessRandom
	if b.size < willNeedLimit {
		advice = mmap.AccessWillNeed
	}
	_ = m.Advise(advice)
	return m, nil
}
