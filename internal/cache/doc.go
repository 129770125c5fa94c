// Package cache provides a byte-bounded LRU cache for immutable blocks read
// from non-mappable blob stores.
package cache
