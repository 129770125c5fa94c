package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hupe1980/blastdb/blobstore"
	"github.com/hupe1980/blastdb/internal/binio"
	"github.com/hupe1980/blastdb/residue"
	"github.com/stretchr/testify/require"
)

// VolumeSpec describes a volume fixture.
type VolumeSpec struct {
	// Name is the volume base name, relative to the target directory.
	Name    string
	Protein bool
	// Version defaults to 4.
	Version uint32
	Title   string
	Date    string
	// Sequences are NCBIstdaa codes (protein) or NCBI4na codes (nucleotide).
	Sequences [][]byte
	// Headers default to "seq<i>".
	Headers [][]byte
	// Unaligned places the offset tables at an odd 4-byte boundary.
	Unaligned bool
}

// VolumeFiles is an encoded volume.
type VolumeFiles struct {
	Index, Sequence, Header []byte
}

func (s VolumeSpec) letter() string {
	if s.Protein {
		return "p"
	}
	return "n"
}

// Encode builds the three files of the volume.
func (s VolumeSpec) Encode() VolumeFiles {
	version := s.Version
	if version == 0 {
		version = 4
	}
	date := s.Date
	if date == "" {
		date = "Jan 1, 2024  12:00 AM"
	}
	title := s.Title
	if title == "" {
		title = s.Name
	}
	n := len(s.Sequences)

	var seq, hdr []byte
	hdrOff := make([]uint32, n+1)
	seqOff := make([]uint32, n+1)
	ambOff := make([]uint32, n+1)
	var total uint64
	var maxLen uint32

	if s.Protein {
		seq = append(seq, 0)
	}
	for i, codes := range s.Sequences {
		hdrOff[i] = uint32(len(hdr))
		if i < len(s.Headers) {
			hdr = append(hdr, s.Headers[i]...)
		} else {
			hdr = fmt.Appendf(hdr, "seq%d", i)
		}

		seqOff[i] = uint32(len(seq))
		if s.Protein {
			seq = append(seq, codes...)
			seq = append(seq, 0)
		} else {
			packed, amb := residue.EncodeNucleotide(codes)
			seq = append(seq, packed...)
			ambOff[i] = uint32(len(seq))
			seq = append(seq, amb...)
		}
		total += uint64(len(codes))
		maxLen = max(maxLen, uint32(len(codes)))
	}
	hdrOff[n] = uint32(len(hdr))
	seqOff[n] = uint32(len(seq))
	ambOff[n] = uint32(len(seq))

	mol := uint32(0)
	if s.Protein {
		mol = 1
	}
	fields := 12
	if version >= 4 {
		fields = 16
	}
	prefix := 16 + len(title) + len(date) + fields
	want := (8 - prefix%8) % 8
	if s.Unaligned {
		want += 2
	}
	padded := date + strings.Repeat("\x00", want)

	ix := binio.AppendUint32(nil, version)
	ix = binio.AppendUint32(ix, mol)
	ix = binio.AppendUint32(ix, uint32(len(title)))
	ix = append(ix, title...)
	ix = binio.AppendUint32(ix, uint32(len(padded)))
	ix = append(ix, padded...)
	ix = binio.AppendUint32(ix, uint32(n))
	if version >= 4 {
		ix = binio.AppendUint64(ix, total)
	} else {
		ix = binio.AppendUint32(ix, uint32(total))
	}
	ix = binio.AppendUint32(ix, maxLen)
	for _, t := range [][]uint32{hdrOff, seqOff} {
		for _, v := range t {
			ix = binio.AppendUint32(ix, v)
		}
	}
	if !s.Protein {
		for _, v := range ambOff {
			ix = binio.AppendUint32(ix, v)
		}
	}
	return VolumeFiles{Index: ix, Sequence: seq, Header: hdr}
}

// FileNames returns the index, sequence and header file names for base.
func (s VolumeSpec) FileNames(base string) (index, sequence, header string) {
	l := s.letter()
	return base + "." + l + "in", base + "." + l + "sq", base + "." + l + "hr"
}

// WriteVolume writes the volume into dir and returns its base path.
func WriteVolume(t testing.TB, dir string, spec VolumeSpec) string {
	t.Helper()
	base := filepath.Join(dir, spec.Name)
	files := spec.Encode()
	ix, sq, hr := spec.FileNames(base)
	WriteFile(t, ix, files.Index)
	WriteFile(t, sq, files.Sequence)
	WriteFile(t, hr, files.Header)
	return base
}

// PutVolume stores the volume in a memory store under spec.Name.
func PutVolume(store *blobstore.MemoryStore, spec VolumeSpec) {
	files := spec.Encode()
	ix, sq, hr := spec.FileNames(spec.Name)
	store.Put(ix, files.Index)
	store.Put(sq, files.Sequence)
	store.Put(hr, files.Header)
}

// WriteAlias writes an alias file named name.pal or name.nal into dir.
func WriteAlias(t testing.TB, dir, name string, protein bool, lines ...string) string {
	t.Helper()
	ext := ".nal"
	if protein {
		ext = ".pal"
	}
	path := filepath.Join(dir, name+ext)
	WriteFile(t, path, []byte(strings.Join(lines, "\n")+"\n"))
	return path
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}
