// Package binio is the big-endian boundary for every on-disk integer.
//
// All BLAST database integers are stored big-endian regardless of the host.
// Higher layers work with native integers only and never byte-swap on their
// own; they go through the helpers in this package.
package binio
