package blastdb

import (
	"runtime"

	"github.com/hupe1980/blastdb/alias"
	"github.com/hupe1980/blastdb/blobstore"
	"github.com/hupe1980/blastdb/index"
	"github.com/hupe1980/blastdb/internal/handle"
	"github.com/hupe1980/blastdb/internal/mapped"
	"github.com/hupe1980/blastdb/internal/resource"
)

// Environment is the state shared by every database opened through it: the
// blob store, the search path, the index opener, resource limits and the
// pool of mapped sequence and header files.
//
// An Environment is safe for concurrent use. It holds no open files of its
// own; mappings are released as the databases using them are closed.
type Environment struct {
	store       blobstore.BlobStore
	searchPath  alias.SearchPath
	indexes     index.Opener
	logger      *Logger
	metrics     MetricsCollector
	resources   *resource.Controller
	mapped      mapped.Options
	pool        *handle.Pool
	parallelism int
}

// NewEnvironment creates an Environment.
func NewEnvironment(optFns ...Option) (*Environment, error) {
	return newEnvironment(applyOptions(optFns))
}

func newEnvironment(o options) (*Environment, error) {
	searchPath := alias.SearchPath(o.searchPath)
	if len(searchPath) == 0 {
		var err error
		if searchPath, err = alias.DefaultSearchPath(o.configFile); err != nil {
			return nil, err
		}
	}

	store := o.store
	if store == nil {
		store = blobstore.NewLocalStore("")
	}
	if o.cacheCapacity > 0 {
		store = blobstore.NewCachingStore(store, o.cacheCapacity, o.cacheBlockSize)
	}

	parallelism := o.parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   o.memoryLimit,
		IOLimitBytesPerSec: o.readRateLimit,
	})
	mopts := mapped.Options{
		DisableMmap: o.disableMmap,
		Resources:   rc,
		Logger:      o.logger.Logger,
	}

	return &Environment{
		store:       store,
		searchPath:  searchPath,
		indexes:     o.indexes,
		logger:      o.logger,
		metrics:     o.metricsCollector,
		resources:   rc,
		mapped:      mopts,
		pool:        handle.NewPool(store, mopts, o.logger.Logger),
		parallelism: parallelism,
	}, nil
}

// SearchPath returns the directories probed for bare database names.
func (e *Environment) SearchPath() []string {
	return append([]string(nil), e.searchPath...)
}

// PoolStats reports shared file activity of an Environment.
type PoolStats struct {
	// Handles is the number of physical volumes with live references.
	Handles int
	// Opens and Closes count sequence and header files opened and closed.
	Opens  int64
	Closes int64
	// MappedBytes is the memory currently held by mappings.
	MappedBytes int64
}

// Stats returns a snapshot of shared file activity.
func (e *Environment) Stats() PoolStats {
	s := e.pool.Stats()
	return PoolStats{
		Handles:     s.Handles,
		Opens:       s.Opens,
		Closes:      s.Closes,
		MappedBytes: e.resources.MemoryUsage(),
	}
}
