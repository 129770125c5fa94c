// Package testutil writes BLAST database fixtures for tests.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Sequences
//
//	rng := testutil.NewRNG(seed)
//	prot := rng.Protein(120)               // NCBIstdaa codes
//	nucl := rng.Nucleotide(1000, 0.01)     // NCBI4na codes with ambiguity
//
// # Volumes
//
//	base := testutil.WriteVolume(t, dir, testutil.VolumeSpec{
//		Name:      "swissprot",
//		Protein:   true,
//		Sequences: rng.ProteinSet(100, 50, 300),
//	})
//
// # Alias Files
//
//	testutil.WriteAlias(t, dir, "subset", true, "DBLIST swissprot", "FIRST_OID 10", "LAST_OID 19")
package testutil
