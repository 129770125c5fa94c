// Package index defines the key-to-OID lookup contract consumed by the
// database reader.
//
// Each physical volume may come with ISAM-style indexes mapping numeric keys
// (GIs) and string keys (accessions) to local OIDs. Their file formats are
// outside this module: callers plug an Opener into the database and the
// reader consults the resulting Index per volume, translating local OIDs to
// global ones.
//
// MemoryIndex is an in-memory implementation for tests and for callers that
// build their own lookup tables.
package index
