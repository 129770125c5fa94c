// Package gilist loads GI filter lists.
//
// A GI list restricts which GIs of a volume are visible to numeric lookups.
// Two file layouts are accepted:
//
//   - binary: 0xFFFFFFFF, count:u32, then count big-endian u32 GIs
//   - text: one GI per line; blank lines and '#' comments are ignored
//
// Names ending in .gz, .zst or .lz4 are decompressed transparently.
package gilist

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/blastdb/blobstore"
	"github.com/hupe1980/blastdb/internal/binio"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrCorrupt is returned when a GI list cannot be parsed.
var ErrCorrupt = errors.New("gilist: corrupt list")

const binaryMarker = 0xFFFFFFFF

// List is an immutable set of GIs.
type List struct {
	rb      *roaring.Bitmap
	sources []string
}

// New builds a list from GIs.
func New(source string, gis ...uint32) *List {
	rb := roaring.New()
	rb.AddMany(gis)
	return &List{rb: rb, sources: []string{source}}
}

// Load opens name in store and parses it.
func Load(ctx context.Context, store blobstore.BlobStore, name string) (*List, error) {
	data, err := blobstore.ReadFile(ctx, store, name)
	if err != nil {
		return nil, err
	}
	return Read(bytes.NewReader(data), name)
}

// Read parses a GI list. name selects decompression by suffix.
func Read(r io.Reader, name string) (*List, error) {
	r, closeFn, err := decompress(r, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, name, err)
	}
	defer closeFn()

	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err == nil && binio.Uint32(head) == binaryMarker {
		return readBinary(br, name)
	}
	return readText(br, name)
}

func decompress(r io.Reader, name string) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case ".lz4":
		return lz4.NewReader(r), func() {}, nil
	default:
		return r, func() {}, nil
	}
}

func readBinary(r io.Reader, name string) (*List, error) {
	if _, err := binio.ReadUint32(r); err != nil {
		return nil, err
	}
	count, err := binio.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, name, err)
	}
	rb := roaring.New()
	for i := uint32(0); i < count; i++ {
		gi, err := binio.ReadUint32(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: entry %d of %d: %w", ErrCorrupt, name, i, count, err)
		}
		rb.Add(gi)
	}
	return &List{rb: rb, sources: []string{name}}, nil
}

func readText(r io.Reader, name string) (*List, error) {
	rb := roaring.New()
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		gi, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %w", ErrCorrupt, name, line, err)
		}
		rb.Add(uint32(gi))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, name, err)
	}
	return &List{rb: rb, sources: []string{name}}, nil
}

// Contains reports whether gi is in the list.
func (l *List) Contains(gi uint32) bool { return l.rb.Contains(gi) }

// Len returns the number of GIs.
func (l *List) Len() uint64 { return l.rb.GetCardinality() }

// Sources returns the files the list was built from.
func (l *List) Sources() []string { return l.sources }

// Union returns a new list holding the GIs of both lists.
func (l *List) Union(o *List) *List {
	return &List{
		rb:      roaring.Or(l.rb, o.rb),
		sources: append(append([]string(nil), l.sources...), o.sources...),
	}
}

// Intersect returns a new list holding the GIs present in both lists.
func (l *List) Intersect(o *List) *List {
	return &List{
		rb:      roaring.And(l.rb, o.rb),
		sources: append(append([]string(nil), l.sources...), o.sources...),
	}
}

// EncodeBinary returns the binary file representation.
func (l *List) EncodeBinary() []byte {
	out := binio.AppendUint32(nil, binaryMarker)
	out = binio.AppendUint32(out, uint32(l.rb.GetCardinality()))
	it := l.rb.Iterator()
	for it.HasNext() {
		out = binio.AppendUint32(out, it.Next())
	}
	return out
}
