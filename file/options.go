package file

import "go.uber.org/zap"

// Option configures a File.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	xrefStreams bool
	compress    bool
	maxDepth    int
}

func defaultOptions() options {
	return options{
		logger:   zap.NewNop(),
		compress: true,
		maxDepth: 100,
	}
}

// WithLogger sets the logger (default: a no-op logger).
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithXRefStreams makes Save write cross-reference streams even when every
// entry could be written as a classic table.
func WithXRefStreams(enabled bool) Option {
	return func(o *options) {
		o.xrefStreams = enabled
	}
}

// WithCompression controls Flate compression of object streams and
// cross-reference streams (default: on).
func WithCompression(enabled bool) Option {
	return func(o *options) {
		o.compress = enabled
	}
}

// WithMaxDepth sets the recursion limit for ResolveDeep (default: 100).
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

func (o options) filter() string {
	if o.compress {
		return "FlateDecode"
	}
	return ""
}
