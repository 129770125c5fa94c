package blastdb

import (
	"errors"
	"fmt"

	"github.com/hupe1980/blastdb/alias"
	"github.com/hupe1980/blastdb/internal/binio"
	"github.com/hupe1980/blastdb/internal/chain"
	"github.com/hupe1980/blastdb/residue"
	"github.com/hupe1980/blastdb/volume"
)

var (
	// ErrClosed is returned when using a closed DB.
	ErrClosed = errors.New("database is closed")

	// ErrTruncatedRead is returned when a file ends before the expected data.
	ErrTruncatedRead = binio.ErrTruncatedRead

	// ErrCorruptIndex is returned for structurally invalid index files.
	ErrCorruptIndex = volume.ErrCorruptIndex

	// ErrCorruptSequence is returned when sequence or ambiguity data is
	// inconsistent with the index.
	ErrCorruptSequence = residue.ErrCorruptSequence

	// ErrNoVolumes is returned when a database resolves to no usable volume.
	ErrNoVolumes = alias.ErrNoVolumes

	// ErrTooManyOIDs is returned when a database spans more than 2^32 OIDs.
	ErrTooManyOIDs = chain.ErrTooManyOIDs
)

// ErrFormatVersion indicates an index file with an unsupported version.
type ErrFormatVersion = volume.ErrFormatVersion

// ErrMoleculeMismatch indicates an index holding a different molecule type
// than requested.
type ErrMoleculeMismatch = volume.ErrMoleculeMismatch

// ErrMissingFile indicates that a database or companion file was not found.
type ErrMissingFile = volume.ErrMissingFile

// ErrRecursion reports an alias entry dropped because it recursed.
type ErrRecursion = alias.ErrRecursion

// ErrOutOfRange indicates an OID outside the database.
type ErrOutOfRange struct {
	OID     OID
	NumOIDs uint64
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("oid %d out of range [0, %d)", e.OID, e.NumOIDs)
}
