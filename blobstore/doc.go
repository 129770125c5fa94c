// Package blobstore abstracts where volume files live.
//
// A BLAST database volume is a triple of immutable files (index, sequence,
// header) plus optional alias, GI list and OID mask companions. BlobStore
// opens any of them by name; implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem; blobs can be memory-mapped
//   - MemoryStore: in-memory blobs for tests; blobs can be "mapped" zero-copy
//   - CachingStore: block-level LRU in front of a slow store
//   - s3.Store: Amazon S3 with range reads
//   - minio.Store: MinIO and S3-compatible object stores
//
// # Mapping
//
// Blobs that also implement Mapper can expose their contents as a read-only
// Region. The volume reader prefers a Region and falls back to ReadAt when
// mapping is unavailable, fails, or would exceed the memory budget.
package blobstore
