package blastdb

import (
	"log/slog"

	"github.com/hupe1980/blastdb/blobstore"
	"github.com/hupe1980/blastdb/index"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	searchPath       []string
	configFile       string
	store            blobstore.BlobStore
	cacheCapacity    int64
	cacheBlockSize   int64
	indexes          index.Opener
	memoryLimit      int64
	readRateLimit    int64
	disableMmap      bool
	parallelism      int
	env              *Environment
}

// Option configures Open and NewEnvironment.
//
// Options that describe shared state (store, search path, limits) are
// ignored by Open when WithEnvironment is given; the environment's settings
// apply instead.
type Option func(*options)

// WithLogger configures structured logging.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithSearchPath replaces the directories probed for bare database names.
func WithSearchPath(dirs ...string) Option {
	return func(o *options) {
		o.searchPath = dirs
	}
}

// WithConfigFile selects the INI file consulted for the BLASTDB directory
// list instead of the first .ncbirc found.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configFile = path
	}
}

// WithBlobStore reads volume files from store instead of the local file
// system.
func WithBlobStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithBlockCache fronts the blob store with an LRU block cache of the given
// capacity in bytes. It only affects blobs that cannot be memory-mapped.
func WithBlockCache(capacity, blockSize int64) Option {
	return func(o *options) {
		o.cacheCapacity = capacity
		o.cacheBlockSize = blockSize
	}
}

// WithIndexOpener supplies the per-volume key indexes used by Lookup and
// LookupAccession.
func WithIndexOpener(opener index.Opener) Option {
	return func(o *options) {
		o.indexes = opener
	}
}

// WithMemoryLimit caps the bytes held in memory mappings. Files that would
// exceed the cap are read through buffered I/O instead.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithReadRateLimit throttles buffered reads to bytesPerSec.
func WithReadRateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.readRateLimit = bytesPerSec
	}
}

// WithMmap enables or disables memory mapping. Mapping is enabled by default.
func WithMmap(enabled bool) Option {
	return func(o *options) {
		o.disableMmap = !enabled
	}
}

// WithParallelism bounds the number of index files parsed concurrently
// during Open.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithEnvironment opens the database in env, sharing its mappings with
// every other database opened there.
func WithEnvironment(env *Environment) Option {
	return func(o *options) {
		o.env = env
	}
}

func applyOptions(optFns []Option) options {
	o := options{}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.indexes == nil {
		o.indexes = index.None
	}
	return o
}
