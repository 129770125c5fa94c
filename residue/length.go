package residue

import "fmt"

// ProteinLength returns the residue count of a protein sequence stored in
// [start, end), which includes one trailing sentinel byte.
func ProteinLength(start, end uint32) (uint32, error) {
	if end <= start+1 {
		return 0, fmt.Errorf("%w: protein sequence span [%d,%d)", ErrCorruptSequence, start, end)
	}
	return end - start - 1, nil
}

// ApproxNucleotideLength estimates the base count of a nucleotide sequence
// whose packed bytes occupy [start, amb). The estimate is exact to within 4
// bases and needs no read of the sequence file.
func ApproxNucleotideLength(start, amb uint32) (uint32, error) {
	if amb <= start {
		return 0, fmt.Errorf("%w: nucleotide sequence span [%d,%d)", ErrCorruptSequence, start, amb)
	}
	return (amb - start) * 4, nil
}

// ExactNucleotideLength refines the estimate using the final packed byte.
func ExactNucleotideLength(start, amb uint32, last byte) (uint32, error) {
	if amb <= start {
		return 0, fmt.Errorf("%w: nucleotide sequence span [%d,%d)", ErrCorruptSequence, start, amb)
	}
	return (amb-start-1)*4 + uint32(last&0x03), nil
}
