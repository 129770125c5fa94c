// Package residue decodes the residue encodings stored in sequence files.
//
// Protein residues are stored one NCBIstdaa code per byte. Nucleotide
// residues are stored as NCBI2na (two bits per base, four bases per byte,
// most significant bits first). The last byte of a packed nucleotide
// sequence carries the number of bases it holds (0-3) in its low two bits.
// Bases that NCBI2na cannot express are recorded in an ambiguity table and
// overlaid on the NCBI4na expansion.
package residue
