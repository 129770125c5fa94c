package alias

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"runtime"

	"github.com/hupe1980/blastdb/blobstore"
	"github.com/hupe1980/blastdb/gilist"
	"github.com/hupe1980/blastdb/internal/mapped"
	"github.com/hupe1980/blastdb/oidmask"
	"github.com/hupe1980/blastdb/volume"
	"golang.org/x/sync/errgroup"
)

// ErrNoVolumes is returned when resolution leaves no usable volume.
var ErrNoVolumes = errors.New("no usable volumes")

// Options configures a resolution.
type Options struct {
	Store      blobstore.BlobStore
	SearchPath SearchPath
	// Mapped is passed to every index file open.
	Mapped mapped.Options
	Logger *slog.Logger
	// Parallelism bounds concurrent index parsing. Defaults to GOMAXPROCS.
	Parallelism int
}

// Result is the outcome of a resolution.
type Result struct {
	Molecule volume.MoleculeType
	// Volumes in discovery order with alias overrides applied. Each holds
	// one index reference owned by the caller.
	Volumes []*volume.Volume
	// Warnings lists dropped entries and skipped volumes.
	Warnings []error
}

// Release drops the index references held by the result's volumes.
func (r *Result) Release() error {
	var errs []error
	for _, v := range r.Volumes {
		errs = append(errs, v.Release())
	}
	r.Volumes = nil
	return errors.Join(errs...)
}

type leafKey struct {
	base string
	mol  volume.MoleculeType
}

type leaf struct {
	key   leafKey
	retry bool
	ix    *volume.Index
	err   error
}

type node struct {
	desc     *Descriptor
	leaf     *leaf
	children []*node
}

type resolver struct {
	opts     Options
	leaves   map[leafKey]*leaf
	order    []*leaf
	gilists  map[string]*gilist.List
	masks    map[string]*oidmask.Mask
	warnings []error
}

// Resolve expands names into volumes. mol may be volume.Unknown, in which
// case each name is probed as protein first.
//
// A name that cannot be found or resolved is dropped like any other broken
// entry (missing entries, recursion, unreadable volumes): it is reported in
// Result.Warnings and the remaining names are still resolved. Resolution
// fails with ErrNoVolumes only when nothing usable remains.
func Resolve(ctx context.Context, names []string, mol volume.MoleculeType, opts Options) (*Result, error) {
	if opts.Store == nil {
		opts.Store = blobstore.NewLocalStore("")
	}
	if len(opts.SearchPath) == 0 {
		opts.SearchPath = SearchPath{"."}
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	r := &resolver{
		opts:    opts,
		leaves:  make(map[leafKey]*leaf),
		gilists: make(map[string]*gilist.List),
		masks:   make(map[string]*oidmask.Mask),
	}

	var roots []*node
	for _, name := range names {
		n, err := r.build(ctx, name, "", mol, map[string]bool{}, "")
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			r.warn(ctx, err)
			continue
		}
		roots = append(roots, n)
	}
	if len(roots) == 0 {
		return nil, errors.Join(append([]error{ErrNoVolumes}, r.warnings...)...)
	}

	if err := r.load(ctx); err != nil {
		r.releaseLeaves()
		return nil, err
	}

	res := &Result{}
	for _, n := range roots {
		res.Volumes = append(res.Volumes, r.materialize(ctx, n)...)
	}
	r.releaseLeaves()

	res.Volumes = r.uniformMolecule(ctx, res.Volumes)
	res.Warnings = r.warnings
	if len(res.Volumes) == 0 {
		return nil, errors.Join(append([]error{ErrNoVolumes}, r.warnings...)...)
	}
	res.Molecule = res.Volumes[0].Molecule()
	return res, nil
}

func (r *resolver) exists(ctx context.Context, name string) bool {
	return blobstore.Exists(ctx, r.opts.Store, name)
}

func (r *resolver) build(ctx context.Context, name, dir string, mol volume.MoleculeType, visited map[string]bool, parent string) (*node, error) {
	name = volume.TrimExt(name)
	candidates := r.opts.SearchPath.Candidates(name, dir)

	var tried []string
	for _, m := range mol.Probe() {
		for _, c := range candidates {
			aliasPath := volume.FileName(c, m, volume.KindAlias)
			indexPath := volume.FileName(c, m, volume.KindIndex)
			tried = append(tried, aliasPath, indexPath)

			if r.exists(ctx, aliasPath) {
				if !visited[aliasPath] {
					return r.buildAlias(ctx, aliasPath, m, visited)
				}
				if r.exists(ctx, indexPath) {
					return r.leafNode(c, m, mol == volume.Unknown), nil
				}
				return nil, &ErrRecursion{Alias: parent, Entry: name}
			}
			if r.exists(ctx, indexPath) {
				return r.leafNode(c, m, mol == volume.Unknown), nil
			}
		}
	}
	return nil, volume.NewMissingFile(name, tried, blobstore.ErrNotFound)
}

func (r *resolver) buildAlias(ctx context.Context, path string, mol volume.MoleculeType, visited map[string]bool) (*node, error) {
	data, err := blobstore.ReadFile(ctx, r.opts.Store, path)
	if err != nil {
		return nil, err
	}
	desc, err := Parse(bytes.NewReader(data), path)
	if err != nil {
		return nil, err
	}

	visited[path] = true
	defer delete(visited, path)

	n := &node{desc: desc}
	dir := filepath.Dir(path)
	for _, entry := range desc.DBList {
		child, err := r.build(ctx, entry, dir, mol, visited, path)
		if err != nil {
			r.warn(ctx, err)
			continue
		}
		n.children = append(n.children, child)
	}
	return n, nil
}

func (r *resolver) leafNode(base string, mol volume.MoleculeType, retry bool) *node {
	key := leafKey{base: base, mol: mol}
	lf, ok := r.leaves[key]
	if !ok {
		lf = &leaf{key: key, retry: retry}
		r.leaves[key] = lf
		r.order = append(r.order, lf)
	}
	return &node{leaf: lf}
}

// load parses every distinct index file once.
func (r *resolver) load(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Parallelism)
	for _, lf := range r.order {
		g.Go(func() error {
			lf.ix, lf.err = volume.Load(gctx, r.opts.Store, lf.key.base, lf.key.mol, r.opts.Mapped)
			var mm *volume.ErrMoleculeMismatch
			if lf.retry && errors.As(lf.err, &mm) {
				if ix, err := volume.Load(gctx, r.opts.Store, lf.key.base, lf.key.mol.Complement(), r.opts.Mapped); err == nil {
					lf.ix, lf.err = ix, nil
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, lf := range r.order {
		if lf.err != nil {
			r.warn(ctx, lf.err)
		}
	}
	return nil
}

func (r *resolver) releaseLeaves() {
	for _, lf := range r.order {
		if lf.ix != nil {
			_ = lf.ix.Release()
			lf.ix = nil
		}
	}
}

func (r *resolver) materialize(ctx context.Context, n *node) []*volume.Volume {
	if n.leaf != nil {
		if n.leaf.ix == nil {
			return nil
		}
		n.leaf.ix.Retain()
		return []*volume.Volume{volume.New(n.leaf.ix)}
	}

	var vols []*volume.Volume
	for _, c := range n.children {
		vols = append(vols, r.materialize(ctx, c)...)
	}
	if len(vols) == 0 {
		r.warn(ctx, &ErrEmpty{Alias: n.desc.Path})
		return nil
	}
	if err := r.applyOverrides(ctx, n.desc, vols); err != nil {
		r.warn(ctx, err)
		for _, v := range vols {
			_ = v.Release()
		}
		return nil
	}
	return vols
}

func (r *resolver) applyOverrides(ctx context.Context, d *Descriptor, vols []*volume.Volume) error {
	dir := filepath.Dir(d.Path)

	if d.GIList != "" {
		l, err := r.giList(ctx, d.GIList, dir)
		if err != nil {
			return err
		}
		for _, v := range vols {
			if v.GIs == nil {
				v.GIs = l
			} else {
				v.GIs = v.GIs.Intersect(l)
			}
		}
	}

	var total uint64
	for _, v := range vols {
		total += uint64(v.Count())
	}

	var mask *oidmask.Mask
	switch {
	case d.OIDList != "":
		m, err := r.oidMask(ctx, d.OIDList, dir)
		if err != nil {
			return err
		}
		if uint64(m.Total()) != total {
			r.opts.Logger.WarnContext(ctx, "mask size differs from volume range",
				"alias", d.Path, "mask", m.Source(), "mask_total", m.Total(), "oids", total)
		}
		mask = m
	case d.HasRange() && total > 0:
		m, err := r.rangeMask(ctx, d, total)
		if err != nil {
			return err
		}
		mask = m
	}
	if mask != nil {
		var base uint32
		for _, v := range vols {
			v.Masks = append(v.Masks, volume.MaskRef{Mask: mask, Base: base})
			base += v.Count()
		}
	}

	if d.HasTitle {
		vols[0].Title = d.Title
		for _, v := range vols[1:] {
			v.Title = ""
		}
	}

	head := vols[0]
	override := func(f volume.Field, set bool, apply func()) {
		if !set {
			return
		}
		apply()
		head.Covered &^= f
		for _, v := range vols[1:] {
			v.Covered |= f
		}
	}
	override(volume.FieldLength, d.Length != 0, func() { head.Override.Length = d.Length })
	override(volume.FieldNumSeqs, d.NumSeqs != 0, func() { head.Override.NumSeqs = d.NumSeqs })
	override(volume.FieldMaxLen, d.MaxLen != 0, func() { head.Override.MaxLen = d.MaxLen })

	if d.MembBit != 0 {
		for _, v := range vols {
			v.MembershipBit = d.MembBit
		}
	}
	return nil
}

// rangeMask builds the FIRST_OID/LAST_OID mask over a sub-chain of total
// OIDs. LAST_OID is clamped to the sub-chain; a window starting past its end
// selects nothing.
func (r *resolver) rangeMask(ctx context.Context, d *Descriptor, total uint64) (*oidmask.Mask, error) {
	limit := min(total-1, math.MaxUint32-1)
	first, last := uint64(0), limit
	if d.FirstOID != nil {
		first = uint64(*d.FirstOID)
	}
	if d.LastOID != nil {
		last = min(uint64(*d.LastOID), limit)
	}
	if first > last {
		r.opts.Logger.WarnContext(ctx, "oid window outside volume range",
			"alias", d.Path, "first_oid", first, "last_oid", last, "oids", total)
		return oidmask.FromOIDs(uint32(limit+1), nil, fmt.Sprintf("range:%d-%d", first, last)), nil
	}
	return oidmask.FromRange(uint32(first), uint32(last))
}

func (r *resolver) giList(ctx context.Context, name, dir string) (*gilist.List, error) {
	path, ok := resolveFile(ctx, r.opts.Store, name, dir)
	if !ok {
		return nil, volume.NewMissingFile(name, []string{path}, blobstore.ErrNotFound)
	}
	if l, ok := r.gilists[path]; ok {
		return l, nil
	}
	l, err := gilist.Load(ctx, r.opts.Store, path)
	if err != nil {
		return nil, err
	}
	r.gilists[path] = l
	return l, nil
}

func (r *resolver) oidMask(ctx context.Context, name, dir string) (*oidmask.Mask, error) {
	path, ok := resolveFile(ctx, r.opts.Store, name, dir)
	if !ok {
		return nil, volume.NewMissingFile(name, []string{path}, blobstore.ErrNotFound)
	}
	if m, ok := r.masks[path]; ok {
		return m, nil
	}
	data, err := blobstore.ReadFile(ctx, r.opts.Store, path)
	if err != nil {
		return nil, err
	}
	m, err := oidmask.Parse(data, path)
	if err != nil {
		return nil, err
	}
	r.masks[path] = m
	return m, nil
}

// uniformMolecule drops volumes whose molecule type differs from the first.
func (r *resolver) uniformMolecule(ctx context.Context, vols []*volume.Volume) []*volume.Volume {
	if len(vols) == 0 {
		return vols
	}
	want := vols[0].Molecule()
	out := vols[:0]
	for _, v := range vols {
		if v.Molecule() != want {
			r.warn(ctx, &volume.ErrMoleculeMismatch{Path: v.Index.Base, Want: want, Got: v.Molecule()})
			_ = v.Release()
			continue
		}
		out = append(out, v)
	}
	return out
}

func (r *resolver) warn(ctx context.Context, err error) {
	r.warnings = append(r.warnings, err)
	var rec *ErrRecursion
	if errors.As(err, &rec) {
		r.opts.Logger.WarnContext(ctx, "alias recursion dropped", "alias", rec.Alias, "entry", rec.Entry)
		return
	}
	r.opts.Logger.WarnContext(ctx, "volume skipped", "error", fmt.Sprint(err))
}
