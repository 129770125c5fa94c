package index

import (
	"context"
	"slices"
	"sync"

	"github.com/hupe1980/blastdb/volume"
)

// MemoryIndex is a map-backed Index. It is safe for concurrent use.
type MemoryIndex struct {
	mu      sync.RWMutex
	numeric map[uint32]volume.OID
	strings map[string][]volume.OID
	hasNum  bool
	hasStr  bool
	closed  bool
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		numeric: make(map[uint32]volume.OID),
		strings: make(map[string][]volume.OID),
	}
}

// AddNumeric maps key to local oid.
func (m *MemoryIndex) AddNumeric(key uint32, oid volume.OID) *MemoryIndex {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.numeric[key] = oid
	m.hasNum = true
	return m
}

// AddString adds local oid to the OIDs of key.
func (m *MemoryIndex) AddString(key string, oid volume.OID) *MemoryIndex {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strings[key] = append(m.strings[key], oid)
	m.hasStr = true
	return m
}

// LookupNumeric implements Index. It returns ErrNoIndex if no numeric key
// was ever added.
func (m *MemoryIndex) LookupNumeric(_ context.Context, key uint32) (volume.OID, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasNum {
		return 0, false, ErrNoIndex
	}
	oid, ok := m.numeric[key]
	return oid, ok, nil
}

// LookupString implements Index. It returns ErrNoIndex if no string key
// was ever added.
func (m *MemoryIndex) LookupString(_ context.Context, key string) ([]volume.OID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasStr {
		return nil, ErrNoIndex
	}
	return slices.Clone(m.strings[key]), nil
}

// Close implements Index.
func (m *MemoryIndex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MemoryIndex) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// MemoryOpener serves MemoryIndex values keyed by volume base path.
type MemoryOpener struct {
	mu      sync.RWMutex
	indexes map[string]*MemoryIndex
}

// NewMemoryOpener creates an empty opener.
func NewMemoryOpener() *MemoryOpener {
	return &MemoryOpener{indexes: make(map[string]*MemoryIndex)}
}

// Set registers ix for the volume at base.
func (o *MemoryOpener) Set(base string, ix *MemoryIndex) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.indexes[base] = ix
}

// Open implements Opener.
func (o *MemoryOpener) Open(_ context.Context, base string, _ volume.MoleculeType) (Index, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	ix, ok := o.indexes[base]
	if !ok {
		return nil, ErrNoIndex
	}
	return ix, nil
}
