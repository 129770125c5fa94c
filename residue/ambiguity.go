package residue

import (
	"errors"
	"fmt"

	"github.com/hupe1980/blastdb/internal/binio"
)

// ErrCorruptSequence is returned when sequence or ambiguity data is
// inconsistent.
var ErrCorruptSequence = errors.New("corrupt sequence data")

const (
	longFormatFlag = 1 << 31

	shortMaxRun = 16
	shortMaxPos = 1 << 24
	longMaxRun  = 4096
)

// Run overwrites Len bases starting at Pos with Code.
type Run struct {
	Pos  uint32
	Len  uint32
	Code byte
}

// FindRuns returns the runs of codes in an NCBI4na buffer that NCBI2na
// cannot represent. Runs longer than maxRun are split.
func FindRuns(codes []byte, maxRun uint32) []Run {
	var runs []Run
	for i := 0; i < len(codes); {
		c := codes[i]
		if c < 16 && to2na[c] >= 0 {
			i++
			continue
		}
		j := i + 1
		for j < len(codes) && codes[j] == c && uint32(j-i) < maxRun {
			j++
		}
		runs = append(runs, Run{Pos: uint32(i), Len: uint32(j - i), Code: c & 0x0f})
		i = j
	}
	return runs
}

// EncodeAmbiguity encodes runs for codes. The short one-word format is used
// when every run fits it, the long two-word format otherwise.
func EncodeAmbiguity(codes []byte) []byte {
	runs := FindRuns(codes, longMaxRun)
	if len(runs) == 0 {
		return nil
	}
	long := false
	for _, r := range runs {
		if r.Len > shortMaxRun || r.Pos+r.Len > shortMaxPos {
			long = true
			break
		}
	}
	if !long {
		out := binio.AppendUint32(nil, uint32(len(runs)))
		for _, r := range runs {
			out = binio.AppendUint32(out, uint32(r.Code)<<28|(r.Len-1)<<24|r.Pos)
		}
		return out
	}
	out := binio.AppendUint32(nil, uint32(len(runs))|longFormatFlag)
	for _, r := range runs {
		out = binio.AppendUint32(out, uint32(r.Code)<<28|(r.Len-1)<<16)
		out = binio.AppendUint32(out, r.Pos)
	}
	return out
}

// DecodeAmbiguity parses an ambiguity table. Empty data yields no runs.
func DecodeAmbiguity(data []byte) ([]Run, error) {
	if len(data) == 0 {
		return nil, nil
	}
	r := binio.NewSliceReader(data)
	head, err := r.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: ambiguity header: %w", ErrCorruptSequence, err)
	}
	long := head&longFormatFlag != 0
	n := head &^ longFormatFlag

	width := 4
	if long {
		width = 8
	}
	if uint64(r.Len()) < uint64(n)*uint64(width) {
		return nil, fmt.Errorf("%w: %d ambiguity entries need %d bytes, have %d", ErrCorruptSequence, n, uint64(n)*uint64(width), r.Len())
	}

	runs := make([]Run, n)
	for i := range runs {
		w, _ := r.ReadUint32()
		if long {
			pos, _ := r.ReadUint32()
			runs[i] = Run{Code: byte(w >> 28), Len: (w>>16)&0x0fff + 1, Pos: pos}
		} else {
			runs[i] = Run{Code: byte(w >> 28), Len: (w>>24)&0x0f + 1, Pos: w & 0x00ffffff}
		}
	}
	return runs, nil
}

// ApplyAmbiguity overlays runs onto an NCBI4na buffer.
func ApplyAmbiguity(codes []byte, runs []Run) error {
	for _, r := range runs {
		end := uint64(r.Pos) + uint64(r.Len)
		if end > uint64(len(codes)) {
			return fmt.Errorf("%w: run [%d,%d) outside sequence of length %d", ErrCorruptSequence, r.Pos, end, len(codes))
		}
		for i := r.Pos; i < uint32(end); i++ {
			codes[i] = r.Code
		}
	}
	return nil
}
