// Package volume reads the index file of a single BLAST database volume and
// describes how a volume participates in a larger virtual database.
//
// A volume is a triple of files sharing a base path: an index file
// (.pin/.nin), a sequence file (.psq/.nsq) and a header file (.phr/.nhr).
// The index holds the volume metadata followed by the offset tables that
// locate each sequence and header in the other two files.
//
// All multi-byte integers are big-endian.
package volume
