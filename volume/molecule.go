package volume

import "fmt"

// MoleculeType is the residue kind of a database.
type MoleculeType uint8

const (
	// Nucleotide databases store NCBI2na packed bases plus ambiguity data.
	Nucleotide MoleculeType = 0
	// Protein databases store one NCBIstdaa residue per byte.
	Protein MoleculeType = 1
	// Unknown asks the resolver to probe for a protein database first and
	// fall back to nucleotide.
	Unknown MoleculeType = 2
)

func (m MoleculeType) String() string {
	switch m {
	case Nucleotide:
		return "nucleotide"
	case Protein:
		return "protein"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("MoleculeType(%d)", uint8(m))
	}
}

// Letter returns the file extension letter: 'p' or 'n'.
func (m MoleculeType) Letter() byte {
	if m == Protein {
		return 'p'
	}
	return 'n'
}

// Complement returns the other concrete molecule type.
func (m MoleculeType) Complement() MoleculeType {
	if m == Protein {
		return Nucleotide
	}
	return Protein
}

// Probe returns the concrete types to try, in order.
func (m MoleculeType) Probe() []MoleculeType {
	if m == Unknown {
		return []MoleculeType{Protein, Nucleotide}
	}
	return []MoleculeType{m}
}

// ParseMoleculeType accepts "p", "n", "prot", "nucl", "protein",
// "nucleotide" and "" (Unknown).
func ParseMoleculeType(s string) (MoleculeType, error) {
	switch s {
	case "p", "prot", "protein":
		return Protein, nil
	case "n", "nucl", "nucleotide":
		return Nucleotide, nil
	case "", "guess", "unknown":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("volume: unknown molecule type %q", s)
}

// File kinds within a volume.
const (
	KindIndex    = 'i'
	KindSequence = 's'
	KindHeader   = 'h'
	KindAlias    = 'a'
)

// Ext returns the extension (with dot) for a file kind, e.g. ".pin".
func (m MoleculeType) Ext(kind byte) string {
	l := m.Letter()
	switch kind {
	case KindIndex:
		return string([]byte{'.', l, 'i', 'n'})
	case KindSequence:
		return string([]byte{'.', l, 's', 'q'})
	case KindHeader:
		return string([]byte{'.', l, 'h', 'r'})
	case KindAlias:
		return string([]byte{'.', l, 'a', 'l'})
	}
	return ""
}

// FileName returns base plus the extension for kind.
func FileName(base string, m MoleculeType, kind byte) string {
	return base + m.Ext(kind)
}

// TrimExt strips a known volume or alias extension from name.
func TrimExt(name string) string {
	if len(name) < 4 || name[len(name)-4] != '.' {
		return name
	}
	switch name[len(name)-4:] {
	case ".pin", ".nin", ".psq", ".nsq", ".phr", ".nhr", ".pal", ".nal":
		return name[:len(name)-4]
	}
	return name
}
