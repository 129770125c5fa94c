// Package handle shares the sequence and header files of physical volumes
// between all databases and attachments that read them.
package handle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/blastdb/blobstore"
	"github.com/hupe1980/blastdb/internal/mapped"
	"github.com/hupe1980/blastdb/volume"
)

// Stats reports pool activity.
type Stats struct {
	// Handles is the number of live registry entries.
	Handles int
	// Opens and Closes count sequence/header files opened and closed.
	Opens  int64
	Closes int64
}

// Pool is a registry of refcounted handles keyed by volume identity.
// It is safe for concurrent use.
type Pool struct {
	store  blobstore.BlobStore
	opts   mapped.Options
	logger *slog.Logger

	mu      sync.Mutex
	handles map[volume.Identity]*Handle

	opens  atomic.Int64
	closes atomic.Int64
}

// NewPool creates an empty pool. Files are opened from store with opts.
func NewPool(store blobstore.BlobStore, opts mapped.Options, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pool{
		store:   store,
		opts:    opts,
		logger:  logger,
		handles: make(map[volume.Identity]*Handle),
	}
}

// Acquire returns the handle for id, creating it with one reference or
// adding a reference to the live one. maxSeqLen sizes the buffered-mode
// scratch space.
func (p *Pool) Acquire(id volume.Identity, maxSeqLen uint32) *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.handles[id]
	if !ok {
		h = &Handle{pool: p, id: id, scratch: int(maxSeqLen) + 2}
		p.handles[id] = h
	}
	h.refs++
	return h
}

// Release drops one reference. The caller whose release drops the count to
// zero closes the files and removes the registry entry.
func (p *Pool) Release(h *Handle) error {
	p.mu.Lock()
	h.refs--
	if h.refs > 0 {
		p.mu.Unlock()
		return nil
	}
	if h.refs < 0 {
		p.mu.Unlock()
		panic("handle: released more often than acquired")
	}
	delete(p.handles, h.id)
	p.mu.Unlock()

	return h.close()
}

// Refs returns the reference count for id, 0 if it has no live handle.
func (p *Pool) Refs(id volume.Identity) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok := p.handles[id]; ok {
		return h.refs
	}
	return 0
}

// Stats returns a snapshot of pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	n := len(p.handles)
	p.mu.Unlock()
	return Stats{Handles: n, Opens: p.opens.Load(), Closes: p.closes.Load()}
}

// Handle holds the lazily opened sequence and header files of one physical
// volume.
type Handle struct {
	pool    *Pool
	id      volume.Identity
	refs    int // guarded by pool.mu
	scratch int

	mu  sync.Mutex
	seq *mapped.File
	hdr *mapped.File
}

// Identity returns the volume identity of h.
func (h *Handle) Identity() volume.Identity { return h.id }

// Sequence returns the sequence file, opening it on first use.
func (h *Handle) Sequence(ctx context.Context) (*mapped.File, error) {
	return h.file(ctx, &h.seq, volume.KindSequence)
}

// Header returns the header file, opening it on first use.
func (h *Handle) Header(ctx context.Context) (*mapped.File, error) {
	return h.file(ctx, &h.hdr, volume.KindHeader)
}

func (h *Handle) file(ctx context.Context, slot **mapped.File, kind byte) (*mapped.File, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if *slot != nil {
		return *slot, nil
	}

	name := volume.FileName(h.id.Base, h.id.Molecule, kind)
	opts := h.pool.opts
	opts.ScratchSize = h.scratch
	f, err := mapped.Open(ctx, h.pool.store, name, opts)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, volume.NewMissingFile(name, []string{name}, err)
		}
		return nil, err
	}
	h.pool.opens.Add(1)
	*slot = f
	return f, nil
}

func (h *Handle) close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for _, slot := range []**mapped.File{&h.seq, &h.hdr} {
		if *slot == nil {
			continue
		}
		errs = append(errs, (*slot).Close())
		*slot = nil
		h.pool.closes.Add(1)
	}
	h.pool.logger.Debug("volume files closed", "volume", h.id.String())
	return errors.Join(errs...)
}

// Release drops one reference on h. See Pool.Release.
func (h *Handle) Release() error { return h.pool.Release(h) }
