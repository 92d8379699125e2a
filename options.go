package framegraph

import (
	"log/slog"

	"github.com/gogpu/framegraph/taskgraph"
)

// Option configures a FrameGraph during creation.
//
// Example:
//
//	fg := framegraph.New(dev,
//	    framegraph.WithWorkers(4),
//	    framegraph.WithLogger(slog.Default()),
//	)
type Option func(*options)

// options holds optional configuration for FrameGraph creation.
type options struct {
	executor      taskgraph.Executor
	workers       int
	logger        *slog.Logger
	reqCacheSize  int
	heapAlignment uint64
}

// WithExecutor runs the per-frame task graph on e. The FrameGraph does
// not close a caller-provided executor.
func WithExecutor(e taskgraph.Executor) Option {
	return func(o *options) {
		o.executor = e
	}
}

// WithWorkers sets the worker count of the default pool executor.
// Ignored when WithExecutor is given. Zero means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLogger sets the logger of this FrameGraph. By default the package
// logger returned by Logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRequirementCacheSize sets how many distinct descriptions keep their
// memory requirements cached.
func WithRequirementCacheSize(n int) Option {
	return func(o *options) {
		o.reqCacheSize = n
	}
}

// WithHeapAlignment rounds the size of new heaps up to a multiple of
// align, so that a recycled heap fits more requests.
func WithHeapAlignment(align uint64) Option {
	return func(o *options) {
		o.heapAlignment = align
	}
}
