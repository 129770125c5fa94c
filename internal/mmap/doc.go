// Package mmap provides read-only memory-mapped file access.
//
// Volume sequence, header and index files are mapped once and then read
// concurrently by every attached database handle without copying.
//
//	f, _ := os.Open("nr.00.psq")
//	m, err := mmap.Map(f)
//	if err != nil { ... }
//	_ = f.Close()
//	defer m.Close()
//
//	data := m.Bytes()
//	_ = m.Advise(mmap.AccessRandom)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile (madvise is a no-op)
//
// # Thread Safety
//
// A Mapping is safe for concurrent read access. Close is idempotent, but
// callers must ensure no goroutine touches Bytes() after Close returns.
package mmap
