package index

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/blastdb/volume"
)

// ErrNoIndex is returned when a volume has no index for the requested key
// type. The volume is skipped during lookups.
var ErrNoIndex = errors.New("index: not available")

// Index resolves keys to local OIDs within one volume.
type Index interface {
	// LookupNumeric returns the local OID for a numeric key.
	LookupNumeric(ctx context.Context, key uint32) (volume.OID, bool, error)
	// LookupString returns all local OIDs for a string key.
	LookupString(ctx context.Context, key string) ([]volume.OID, error)
	Close() error
}

// Opener opens the index of the volume at base.
type Opener interface {
	Open(ctx context.Context, base string, mol volume.MoleculeType) (Index, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, base string, mol volume.MoleculeType) (Index, error)

// Open implements Opener.
func (f OpenerFunc) Open(ctx context.Context, base string, mol volume.MoleculeType) (Index, error) {
	return f(ctx, base, mol)
}

// None is an Opener for databases without indexes.
var None Opener = OpenerFunc(func(context.Context, string, volume.MoleculeType) (Index, error) {
	return nil, ErrNoIndex
})

// Synchronized serializes all calls into ix with one mutex. Use it for
// indexes whose backing library is not safe for concurrent use.
func Synchronized(ix Index) Index {
	return &syncIndex{ix: ix}
}

type syncIndex struct {
	mu sync.Mutex
	ix Index
}

func (s *syncIndex) LookupNumeric(ctx context.Context, key uint32) (volume.OID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ix.LookupNumeric(ctx, key)
}

func (s *syncIndex) LookupString(ctx context.Context, key string) ([]volume.OID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ix.LookupString(ctx, key)
}

func (s *syncIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ix.Close()
}

// Ref is a reference-counted Index shared by all attachments of a volume.
type Ref struct {
	Index
	refs atomic.Int32
}

// NewRef wraps ix with one reference.
func NewRef(ix Index) *Ref {
	r := &Ref{Index: ix}
	r.refs.Store(1)
	return r
}

// Retain adds a reference.
func (r *Ref) Retain() { r.refs.Add(1) }

// Release drops a reference and closes the index on the last one.
func (r *Ref) Release() error {
	if r.refs.Add(-1) == 0 {
		return r.Index.Close()
	}
	return nil
}
