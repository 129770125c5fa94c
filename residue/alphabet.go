package residue

// NCBI4na codes for the unambiguous bases.
const (
	BaseA byte = 1
	BaseC byte = 2
	BaseG byte = 4
	BaseT byte = 8
	BaseN byte = 15
)

const (
	ncbi4naLetters   = "-ACMGRSVTWYHKDBN"
	ncbistdaaLetters = "-ABCDEFGHIKLMNPQRSTVWXYZU*OJ"
)

var (
	from2na = [4]byte{BaseA, BaseC, BaseG, BaseT}
	to2na   = [16]int8{-1, 0, 1, -1, 2, -1, -1, -1, 3, -1, -1, -1, -1, -1, -1, -1}
)

// NucleotideLetters converts NCBI4na codes to IUPAC letters.
func NucleotideLetters(codes []byte) string {
	out := make([]byte, len(codes))
	for i, c := range codes {
		out[i] = ncbi4naLetters[c&0x0f]
	}
	return string(out)
}

// NucleotideCodes converts IUPAC letters to NCBI4na codes. Unknown letters
// map to N.
func NucleotideCodes(s string) []byte {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = BaseN
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		for code := 0; code < len(ncbi4naLetters); code++ {
			if ncbi4naLetters[code] == c {
				out[i] = byte(code)
				break
			}
		}
	}
	return out
}

// ProteinLetters converts NCBIstdaa codes to letters. Codes outside the
// table become 'X'.
func ProteinLetters(codes []byte) string {
	out := make([]byte, len(codes))
	for i, c := range codes {
		if int(c) < len(ncbistdaaLetters) {
			out[i] = ncbistdaaLetters[c]
		} else {
			out[i] = 'X'
		}
	}
	return string(out)
}

// ProteinCodes converts letters to NCBIstdaa codes. Unknown letters map to X.
func ProteinCodes(s string) []byte {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = 21 // X
		for code := 1; code < len(ncbistdaaLetters); code++ {
			if ncbistdaaLetters[code] == c {
				out[i] = byte(code)
				break
			}
		}
	}
	return out
}
