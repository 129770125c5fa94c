package residue

import "fmt"

// Pack2na packs NCBI4na codes into NCBI2na. Ambiguous codes are packed as A
// and must be restored from the ambiguity table.
func Pack2na(codes []byte) []byte {
	full := len(codes) / 4
	rem := len(codes) % 4
	out := make([]byte, full+1)
	for i := 0; i < full; i++ {
		out[i] = pack4(codes[i*4 : i*4+4])
	}
	var last byte
	for j := 0; j < rem; j++ {
		last |= bits2na(codes[full*4+j]) << (6 - 2*j)
	}
	out[full] = last | byte(rem)
	return out
}

func pack4(c []byte) byte {
	return bits2na(c[0])<<6 | bits2na(c[1])<<4 | bits2na(c[2])<<2 | bits2na(c[3])
}

func bits2na(c byte) byte {
	if b := to2na[c&0x0f]; b >= 0 {
		return byte(b)
	}
	return 0
}

// PackedLength returns the exact number of bases in a packed sequence.
func PackedLength(packed []byte) (uint32, error) {
	if len(packed) == 0 {
		return 0, fmt.Errorf("%w: empty packed sequence", ErrCorruptSequence)
	}
	return uint32(len(packed)-1)*4 + uint32(packed[len(packed)-1]&0x03), nil
}

// Unpack2na expands a packed sequence into NCBI4na codes.
func Unpack2na(packed []byte) ([]byte, error) {
	n, err := PackedLength(packed)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	for i := range out {
		b := packed[i/4]
		shift := 6 - 2*(i%4)
		out[i] = from2na[(b>>shift)&0x03]
	}
	return out, nil
}

// DecodeNucleotide expands packed and applies the ambiguity table amb.
func DecodeNucleotide(packed, amb []byte) ([]byte, error) {
	codes, err := Unpack2na(packed)
	if err != nil {
		return nil, err
	}
	runs, err := DecodeAmbiguity(amb)
	if err != nil {
		return nil, err
	}
	if err := ApplyAmbiguity(codes, runs); err != nil {
		return nil, err
	}
	return codes, nil
}

// EncodeNucleotide returns the packed bytes and ambiguity table for codes.
func EncodeNucleotide(codes []byte) (packed, amb []byte) {
	return Pack2na(codes), EncodeAmbiguity(codes)
}
