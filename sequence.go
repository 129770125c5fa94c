package blastdb

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/blastdb/internal/mapped"
	"github.com/hupe1980/blastdb/residue"
)

// Run is one ambiguity run of a nucleotide sequence in NCBI4na codes.
type Run = residue.Run

func (a *attachment) sequenceCursor(ctx context.Context) (*mapped.Cursor, error) {
	if a.seq == nil {
		f, err := a.handle.Sequence(ctx)
		if err != nil {
			return nil, err
		}
		a.seq = f.Attach()
	}
	return a.seq, nil
}

func (a *attachment) headerCursor(ctx context.Context) (*mapped.Cursor, error) {
	if a.hdr == nil {
		f, err := a.handle.Header(ctx)
		if err != nil {
			return nil, err
		}
		a.hdr = f.Attach()
	}
	return a.hdr, nil
}

func (db *DB) fetch(ctx context.Context, what string, oid OID, fn func() ([]byte, error)) ([]byte, error) {
	start := time.Now()
	b, err := fn()
	db.env.metrics.RecordFetch(len(b), time.Since(start), err)
	db.env.logger.LogFetch(ctx, what, oid, err)
	return b, err
}

// SequenceLengthApprox returns the sequence length without touching the
// sequence file. It is exact for proteins; for nucleotides it may exceed
// the true length by up to 4.
func (db *DB) SequenceLengthApprox(_ context.Context, oid OID) (uint32, error) {
	a, l, err := db.locate(oid)
	if err != nil {
		return 0, err
	}
	ix := a.vol.Index
	start, end := ix.Sequences.Range(l)
	if ix.Molecule == Protein {
		return residue.ProteinLength(start, end)
	}
	return residue.ApproxNucleotideLength(start, ix.Ambiguity.At(l))
}

// SequenceLength returns the exact sequence length. For nucleotides it
// reads the final packed byte.
func (db *DB) SequenceLength(ctx context.Context, oid OID) (uint32, error) {
	a, l, err := db.locate(oid)
	if err != nil {
		return 0, err
	}
	ix := a.vol.Index
	start, end := ix.Sequences.Range(l)
	if ix.Molecule == Protein {
		return residue.ProteinLength(start, end)
	}

	amb := ix.Ambiguity.At(l)
	cur, err := a.sequenceCursor(ctx)
	if err != nil {
		return 0, err
	}
	last, err := cur.ReadAt(ctx, int64(amb)-1, 1)
	if err != nil {
		return 0, err
	}
	n, err := residue.ExactNucleotideLength(start, amb, last[0])
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: oid %d has zero length", ErrCorruptSequence, oid)
	}
	return n, nil
}

// SequenceBytes returns the stored sequence: NCBIstdaa residues for
// proteins (without the sentinel), NCBI2na packed bytes for nucleotides.
//
// The result aliases the mapping or the DB's read buffer. It is read-only
// and valid until the next read through db.
func (db *DB) SequenceBytes(ctx context.Context, oid OID) ([]byte, error) {
	return db.fetch(ctx, "sequence", oid, func() ([]byte, error) {
		a, l, err := db.locate(oid)
		if err != nil {
			return nil, err
		}
		ix := a.vol.Index
		start, end := ix.Sequences.Range(l)
		if ix.Molecule == Protein {
			end--
		} else {
			end = ix.Ambiguity.At(l)
		}
		if end <= start {
			return nil, fmt.Errorf("%w: oid %d has zero length", ErrCorruptSequence, oid)
		}
		cur, err := a.sequenceCursor(ctx)
		if err != nil {
			return nil, err
		}
		return cur.ReadAt(ctx, int64(start), int(end-start))
	})
}

// Sequence returns the decoded residues as a new slice: NCBIstdaa codes
// for proteins, NCBI4na codes with ambiguities applied for nucleotides.
func (db *DB) Sequence(ctx context.Context, oid OID) ([]byte, error) {
	return db.fetch(ctx, "sequence", oid, func() ([]byte, error) {
		a, l, err := db.locate(oid)
		if err != nil {
			return nil, err
		}
		ix := a.vol.Index
		start, end := ix.Sequences.Range(l)
		cur, err := a.sequenceCursor(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := cur.ReadAt(ctx, int64(start), int(end-start))
		if err != nil {
			return nil, err
		}
		if ix.Molecule == Protein {
			return bytes.Clone(raw[:len(raw)-1]), nil
		}

		split := ix.Ambiguity.At(l) - start
		codes, err := residue.DecodeNucleotide(raw[:split], raw[split:])
		if err != nil {
			return nil, fmt.Errorf("oid %d: %w", oid, err)
		}
		if len(codes) == 0 {
			return nil, fmt.Errorf("%w: oid %d has zero length", ErrCorruptSequence, oid)
		}
		return codes, nil
	})
}

// SequenceString returns the sequence as IUPAC letters.
func (db *DB) SequenceString(ctx context.Context, oid OID) (string, error) {
	codes, err := db.Sequence(ctx, oid)
	if err != nil {
		return "", err
	}
	if db.Molecule() == Protein {
		return residue.ProteinLetters(codes), nil
	}
	return residue.NucleotideLetters(codes), nil
}

// Ambiguities returns the ambiguity runs of a nucleotide sequence. Protein
// sequences have none.
func (db *DB) Ambiguities(ctx context.Context, oid OID) ([]Run, error) {
	a, l, err := db.locate(oid)
	if err != nil {
		return nil, err
	}
	ix := a.vol.Index
	if ix.Molecule == Protein {
		return nil, nil
	}
	amb := ix.Ambiguity.At(l)
	_, end := ix.Sequences.Range(l)
	if end == amb {
		return nil, nil
	}
	cur, err := a.sequenceCursor(ctx)
	if err != nil {
		return nil, err
	}
	data, err := cur.ReadAt(ctx, int64(amb), int(end-amb))
	if err != nil {
		return nil, err
	}
	return residue.DecodeAmbiguity(data)
}

// Header returns the raw header (defline) bytes. The result aliases the
// mapping or the DB's read buffer and is valid until the next read.
func (db *DB) Header(ctx context.Context, oid OID) ([]byte, error) {
	return db.fetch(ctx, "header", oid, func() ([]byte, error) {
		a, l, err := db.locate(oid)
		if err != nil {
			return nil, err
		}
		start, end := a.vol.Index.Headers.Range(l)
		cur, err := a.headerCursor(ctx)
		if err != nil {
			return nil, err
		}
		return cur.ReadAt(ctx, int64(start), int(end-start))
	})
}
