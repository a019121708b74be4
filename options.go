package tiffraster

import "log/slog"

type options struct {
	logger  *slog.Logger
	locking bool
	noData  *float64
}

// Option configures Open, Create and IsKindOfPath.
type Option func(*options)

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default(), locking: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNoData supplies a no-data sentinel for grayscale pages. It overrides
// any GDAL_NODATA field in the file.
func WithNoData(v float64) Option {
	return func(o *options) { o.noData = &v }
}

// WithoutLocking disables the sister-file lock, for read-only media or
// streams no other process touches.
func WithoutLocking() Option {
	return func(o *options) { o.locking = false }
}
