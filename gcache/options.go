package gcache

// StoreOptions carries the page store configuration. The naming counter and
// base path are instance state, never process wide.
type StoreOptions struct {
	dir             string
	baseName        string
	keepSize        int64
	pageSize        int
	debug           int
	detachedDeletes bool
	key             EncKey
}

type StoreOption func(*StoreOptions)

// WithDir sets the directory the page files are created in. It is created if
// it does not exist. Defaults to the process working directory.
func WithDir(dir string) StoreOption {
	return func(o *StoreOptions) {
		o.dir = dir
	}
}

// WithBaseName overrides the page file name stem.
func WithBaseName(base string) StoreOption {
	return func(o *StoreOptions) {
		o.baseName = base
	}
}

// WithKeepSize sets the retention budget: the aggregate size of drained
// pages the store keeps on disk before deleting them oldest first.
func WithKeepSize(keepSize int64) StoreOption {
	return func(o *StoreOptions) {
		o.keepSize = keepSize
	}
}

// WithPageSize sets the target size of a newly created page. Individual
// pages may be larger when a single allocation requires it.
func WithPageSize(pageSize int) StoreOption {
	return func(o *StoreOptions) {
		o.pageSize = pageSize
	}
}

// WithDebug sets the initial diagnostic verbosity level.
func WithDebug(dbg int) StoreOption {
	return func(o *StoreOptions) {
		o.debug = dbg
	}
}

// WithDetachedDeletes makes background page file removal fire and forget:
// the mutator thread never waits for a prior removal to finish and removal
// failures are only ever logged.
func WithDetachedDeletes() StoreOption {
	return func(o *StoreOptions) {
		o.detachedDeletes = true
	}
}

// WithEncKey sets the initial encryption key reference.
func WithEncKey(k EncKey) StoreOption {
	return func(o *StoreOptions) {
		o.key = k
	}
}
