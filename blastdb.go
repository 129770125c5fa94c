package blastdb

import (
	"context"
	"errors"
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/blastdb/alias"
	"github.com/hupe1980/blastdb/index"
	"github.com/hupe1980/blastdb/internal/chain"
	"github.com/hupe1980/blastdb/internal/handle"
	"github.com/hupe1980/blastdb/internal/mapped"
	"github.com/hupe1980/blastdb/volume"
)

// OID is an ordinal sequence id within a database.
type OID = volume.OID

// MoleculeType is the residue kind of a database.
type MoleculeType = volume.MoleculeType

const (
	Nucleotide = volume.Nucleotide
	Protein    = volume.Protein
	// Unknown probes for a protein database first, then nucleotide.
	Unknown = volume.Unknown
)

// DB is an open virtual database.
//
// A DB is not safe for concurrent use; call Attach for each additional
// goroutine.
type DB struct {
	env      *Environment
	names    []string
	chain    *chain.Chain
	vols     []*attachment
	warnings []error
	closed   bool
}

// attachment is the per-DB state of one chain volume.
type attachment struct {
	vol    *volume.Volume
	handle *handle.Handle
	idx    *index.Ref
	seq    *mapped.Cursor
	hdr    *mapped.Cursor
}

// Open resolves names into a virtual database. mol may be Unknown.
//
// Problems with individual names, alias entries or volumes do not fail Open;
// they are logged and reported by Warnings. Open fails with ErrNoVolumes,
// joined with those problems, only if nothing usable remains.
func Open(ctx context.Context, names []string, mol MoleculeType, optFns ...Option) (*DB, error) {
	start := time.Now()
	o := applyOptions(optFns)
	env := o.env
	if env == nil {
		var err error
		if env, err = newEnvironment(o); err != nil {
			return nil, err
		}
	}

	db, err := open(ctx, env, names, mol)
	env.metrics.RecordOpen(len(db.volumes()), time.Since(start), err)
	if err != nil {
		env.logger.LogOpen(ctx, names, 0, 0, 0, err)
		return nil, err
	}
	env.logger.LogOpen(ctx, names, len(db.vols), db.NumOIDs(), len(db.warnings), nil)
	return db, nil
}

func open(ctx context.Context, env *Environment, names []string, mol MoleculeType) (*DB, error) {
	res, err := alias.Resolve(ctx, names, mol, alias.Options{
		Store:       env.store,
		SearchPath:  env.searchPath,
		Mapped:      env.mapped,
		Logger:      env.logger.Logger,
		Parallelism: env.parallelism,
	})
	if err != nil {
		return nil, err
	}

	c, err := chain.Build(ctx, res.Volumes, env.logger.Logger)
	if err != nil {
		_ = c.Release()
		return nil, err
	}
	if len(c.Volumes) == 0 {
		return nil, errors.Join(append([]error{ErrNoVolumes}, res.Warnings...)...)
	}

	db := &DB{
		env:      env,
		names:    append([]string(nil), names...),
		chain:    c,
		warnings: res.Warnings,
	}

	opened := make(map[string]*index.Ref)
	for _, v := range c.Volumes {
		a := &attachment{vol: v, handle: env.pool.Acquire(v.Identity(), v.Index.MaxSeqLen)}
		base := v.Index.Base
		ref, ok := opened[base]
		if !ok {
			ref, err = db.openIndex(ctx, v)
			if err != nil {
				a.release()
				_ = db.Close()
				return nil, err
			}
			opened[base] = ref
		} else if ref != nil {
			ref.Retain()
		}
		a.idx = ref
		db.vols = append(db.vols, a)
	}
	return db, nil
}

func (db *DB) openIndex(ctx context.Context, v *volume.Volume) (*index.Ref, error) {
	ix, err := db.env.indexes.Open(ctx, v.Index.Base, v.Molecule())
	switch {
	case errors.Is(err, index.ErrNoIndex):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return index.NewRef(ix), nil
}

func (db *DB) volumes() []*attachment {
	if db == nil {
		return nil
	}
	return db.vols
}

// Attach returns an independent handle on the same database for use by
// another goroutine. Parsed indexes and mapped files are shared, not
// reloaded. Each attachment must be closed.
func (db *DB) Attach() (*DB, error) {
	if db.closed {
		return nil, ErrClosed
	}
	c := db.chain.Clone()
	out := &DB{
		env:      db.env,
		names:    db.names,
		chain:    c,
		warnings: db.warnings,
		vols:     make([]*attachment, len(c.Volumes)),
	}
	for i, v := range c.Volumes {
		a := &attachment{vol: v, handle: db.env.pool.Acquire(v.Identity(), v.Index.MaxSeqLen)}
		if src := db.vols[i].idx; src != nil {
			src.Retain()
			a.idx = src
		}
		out.vols[i] = a
	}
	return out, nil
}

func (a *attachment) release() error {
	var errs []error
	if a.idx != nil {
		errs = append(errs, a.idx.Release())
		a.idx = nil
	}
	if a.handle != nil {
		errs = append(errs, a.handle.Release())
		a.handle = nil
	}
	a.seq, a.hdr = nil, nil
	return errors.Join(errs...)
}

// Close releases the database's references. Files shared with other open
// databases or attachments stay open until their last user closes. Close
// is idempotent.
func (db *DB) Close() error {
	if db == nil || db.closed {
		return nil
	}
	db.closed = true

	var errs []error
	for _, a := range db.vols {
		errs = append(errs, a.release())
	}
	errs = append(errs, db.chain.Release())
	err := errors.Join(errs...)
	db.env.logger.LogClose(context.Background(), len(db.vols), err)
	db.vols = nil
	return err
}

// Environment returns the environment the database was opened in.
func (db *DB) Environment() *Environment { return db.env }

// Warnings returns the problems skipped while opening: dropped alias
// entries (*ErrRecursion, *ErrMissingFile) and unusable volumes.
func (db *DB) Warnings() []error {
	return append([]error(nil), db.warnings...)
}

// Molecule returns the database's molecule type.
func (db *DB) Molecule() MoleculeType { return db.chain.Molecule() }

// NumOIDs returns the size of the OID space, including OIDs hidden by
// masks.
func (db *DB) NumOIDs() uint64 { return db.chain.NumOIDs() }

// NumSeqs returns the number of visible sequences, honoring alias NSEQ
// overrides.
func (db *DB) NumSeqs() uint64 { return db.sum(volume.FieldNumSeqs) }

// TotalLength returns the residue count, honoring alias LENGTH overrides.
func (db *DB) TotalLength() uint64 { return db.sum(volume.FieldLength) }

// MaxLength returns the longest sequence length, honoring alias MAXLEN
// overrides.
func (db *DB) MaxLength() uint32 {
	var m uint64
	for _, a := range db.vols {
		m = max(m, a.vol.Contribution(volume.FieldMaxLen))
	}
	return uint32(m)
}

func (db *DB) sum(f volume.Field) uint64 {
	var n uint64
	for _, a := range db.vols {
		n += a.vol.Contribution(f)
	}
	return n
}

// Title returns the non-empty volume titles joined with "; ".
func (db *DB) Title() string {
	var titles []string
	for _, a := range db.vols {
		if a.vol.Title != "" {
			titles = append(titles, a.vol.Title)
		}
	}
	return strings.Join(titles, "; ")
}

// Date returns the creation date of the first volume.
func (db *DB) Date() string {
	if len(db.vols) == 0 {
		return ""
	}
	return db.vols[0].vol.Index.Date
}

// VolumeInfo describes one volume of the chain.
type VolumeInfo struct {
	Path          string
	Title         string
	Version       uint32
	Start, Stop   OID
	NumSeqs       uint32
	Visible       uint64
	Masked        bool
	Filtered      bool
	MembershipBit uint32
}

// Volumes describes the chain in OID order.
func (db *DB) Volumes() []VolumeInfo {
	out := make([]VolumeInfo, len(db.vols))
	for i, a := range db.vols {
		v := a.vol
		out[i] = VolumeInfo{
			Path:          v.Index.Base,
			Title:         v.Title,
			Version:       v.Index.Version,
			Start:         v.Start,
			Stop:          v.Stop,
			NumSeqs:       v.Count(),
			Visible:       v.VisibleCount(),
			Masked:        v.Masked(),
			Filtered:      v.GIs != nil,
			MembershipBit: v.MembershipBit,
		}
	}
	return out
}

// OIDs yields the visible OIDs in ascending order.
func (db *DB) OIDs() iter.Seq[OID] {
	return func(yield func(OID) bool) {
		for _, a := range db.vols {
			v := a.vol
			for l := OID(0); l < v.Count(); l++ {
				if v.Masked() && !v.Visible(l) {
					continue
				}
				if !yield(v.Start + l) {
					return
				}
			}
		}
	}
}

// Visible reports whether oid exists and is not hidden by a mask.
func (db *DB) Visible(oid OID) bool {
	v, l, ok := db.chain.Locate(oid)
	return ok && v.Visible(l)
}

func (db *DB) locate(oid OID) (*attachment, OID, error) {
	if db.closed {
		return nil, 0, ErrClosed
	}
	if uint64(oid) >= db.chain.NumOIDs() {
		return nil, 0, &ErrOutOfRange{OID: oid, NumOIDs: db.chain.NumOIDs()}
	}
	i := sort.Search(len(db.vols), func(i int) bool {
		return db.vols[i].vol.Stop >= oid
	})
	a := db.vols[i]
	return a, oid - a.vol.Start, nil
}
