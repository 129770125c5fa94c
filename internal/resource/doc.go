// Package resource governs the two shared budgets of a database environment.
//
//   - Mapping memory: bytes of volume files held in read-only mappings. The
//     budget is fail-fast; when a new mapping would exceed it the caller
//     degrades to buffered I/O instead of blocking.
//   - Fallback I/O: a token bucket limiting bytes read through the buffered
//     path so remote or uncached volumes do not starve other readers.
//
// All methods are safe for concurrent use and treat a nil *Controller as
// "no limits".
package resource
