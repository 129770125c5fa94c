package volume

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/blastdb/blobstore"
	"github.com/hupe1980/blastdb/internal/binio"
	"github.com/hupe1980/blastdb/internal/mapped"
)

// Supported index format versions. Version 3 stores the total residue length
// as u32, version 4 as u64.
const (
	FormatV3 uint32 = 3
	FormatV4 uint32 = 4
)

// Header is the fixed part of an index file.
type Header struct {
	Version     uint32
	Molecule    MoleculeType
	Title       string
	Date        string
	NumSeqs     uint32
	TotalLength uint64
	MaxSeqLen   uint32
}

// Index is a parsed index file. It is immutable after parsing and shared
// between every attachment of the volume via Retain/Release.
type Index struct {
	Header

	// Base is the volume path without extension.
	Base string

	Headers    OffsetTable
	Sequences  OffsetTable
	Ambiguity  OffsetTable // nucleotide only
	zeroCopy   bool
	file       *mapped.File
	refs       atomic.Int32
	onReleased func()
}

// Load opens and parses the index file of the volume at base.
func Load(ctx context.Context, store blobstore.BlobStore, base string, want MoleculeType, opts mapped.Options) (*Index, error) {
	name := FileName(base, want, KindIndex)
	f, err := mapped.Open(ctx, store, name, opts)
	if err != nil {
		return nil, err
	}
	data, err := f.ReadAll(ctx)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	ix, err := parse(name, data, want, f.Mapped())
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	ix.Base = base
	if ix.zeroCopy {
		ix.file = f
	} else if err := f.Close(); err != nil {
		return nil, err
	}
	ix.refs.Store(1)
	return ix, nil
}

// Parse decodes an index file held in data. The result owns copies of the
// offset tables.
func Parse(name string, data []byte, want MoleculeType) (*Index, error) {
	ix, err := parse(name, data, want, false)
	if err != nil {
		return nil, err
	}
	ix.Base = TrimExt(name)
	ix.refs.Store(1)
	return ix, nil
}

func parse(name string, data []byte, want MoleculeType, mappedData bool) (*Index, error) {
	r := binio.NewSliceReader(data)
	corrupt := func(err error) error {
		return fmt.Errorf("%s: %w: %w", name, ErrCorruptIndex, err)
	}

	version, err := r.ReadUint32()
	if err != nil {
		return nil, corrupt(err)
	}
	if version != FormatV3 && version != FormatV4 {
		return nil, &ErrFormatVersion{Path: name, Version: version}
	}
	mol, err := r.ReadUint32()
	if err != nil {
		return nil, corrupt(err)
	}
	if mol > uint32(Protein) {
		return nil, corrupt(fmt.Errorf("invalid molecule code %d", mol))
	}
	got := MoleculeType(mol)
	if want != Unknown && got != want {
		return nil, &ErrMoleculeMismatch{Path: name, Want: want, Got: got}
	}

	h := Header{Version: version, Molecule: got}
	title, err := readString(r)
	if err != nil {
		return nil, corrupt(err)
	}
	date, err := readString(r)
	if err != nil {
		return nil, corrupt(err)
	}
	h.Title = title
	h.Date = string(bytes.TrimRight([]byte(date), "\x00 "))

	if h.NumSeqs, err = r.ReadUint32(); err != nil {
		return nil, corrupt(err)
	}
	if version == FormatV3 {
		total, err := r.ReadUint32()
		if err != nil {
			return nil, corrupt(err)
		}
		h.TotalLength = uint64(total)
	} else if h.TotalLength, err = r.ReadUint64(); err != nil {
		return nil, corrupt(err)
	}
	if h.MaxSeqLen, err = r.ReadUint32(); err != nil {
		return nil, corrupt(err)
	}

	ix := &Index{Header: h}
	ix.zeroCopy = mappedData && r.Offset()%4 == 0

	tables := 2
	if got == Nucleotide {
		tables = 3
	}
	tableBytes := (int(h.NumSeqs) + 1) * 4
	if r.Len() < tables*tableBytes {
		return nil, corrupt(fmt.Errorf("%d sequences need %d table bytes, have %d", h.NumSeqs, tables*tableBytes, r.Len()))
	}

	take := func() OffsetTable {
		b, _ := r.ReadBytes(tableBytes)
		if ix.zeroCopy {
			return OffsetTable(b)
		}
		return OffsetTable(bytes.Clone(b))
	}
	ix.Headers = take()
	ix.Sequences = take()
	if got == Nucleotide {
		ix.Ambiguity = take()
	}

	if err := ix.validate(); err != nil {
		return nil, corrupt(err)
	}
	return ix, nil
}

func readString(r *binio.SliceReader) (string, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (ix *Index) validate() error {
	check := func(name string, t OffsetTable) error {
		for i := uint32(0); i < ix.NumSeqs; i++ {
			if t.At(i) > t.At(i+1) {
				return fmt.Errorf("%s offsets decrease at %d", name, i)
			}
		}
		return nil
	}
	if err := check("header", ix.Headers); err != nil {
		return err
	}
	if err := check("sequence", ix.Sequences); err != nil {
		return err
	}
	for i := uint32(0); i < ix.NumSeqs; i++ {
		start, end := ix.Sequences.Range(i)
		if ix.Ambiguity == nil {
			if end-start < 2 {
				return fmt.Errorf("zero-length sequence %d", i)
			}
			continue
		}
		amb := ix.Ambiguity.At(i)
		if amb < start || amb > end {
			return fmt.Errorf("ambiguity offset %d outside sequence %d", amb, i)
		}
		if amb == start {
			return fmt.Errorf("zero-length sequence %d", i)
		}
	}
	return nil
}

// ZeroCopy reports whether the offset tables reference the mapped file
// directly.
func (ix *Index) ZeroCopy() bool { return ix.zeroCopy }

// Retain adds a reference.
func (ix *Index) Retain() { ix.refs.Add(1) }

// Release drops a reference. The last release unmaps the index file.
func (ix *Index) Release() error {
	n := ix.refs.Add(-1)
	if n > 0 {
		return nil
	}
	if n < 0 {
		panic("volume: index released more often than retained")
	}
	if ix.onReleased != nil {
		ix.onReleased()
	}
	if ix.file != nil {
		return ix.file.Close()
	}
	return nil
}

// Refs returns the current reference count.
func (ix *Index) Refs() int32 { return ix.refs.Load() }

// OnRelease registers fn to run when the last reference is dropped.
func (ix *Index) OnRelease(fn func()) { ix.onReleased = fn }
