package ephem

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/litescript/ls-ephem/internal/catalog"
	"github.com/litescript/ls-ephem/internal/frames"
	"github.com/litescript/ls-ephem/internal/logging"
	"github.com/litescript/ls-ephem/internal/timescale"
)

// DefaultMaxIterations bounds converged light-time iteration.
const DefaultMaxIterations = 10

// DefaultCacheSize is the number of decoded coefficient records kept.
const DefaultCacheSize = 4096

type options struct {
	mode          catalog.Mode
	logger        *logging.Logger
	cacheSize     int
	maxIterations int
	leapSeconds   *timescale.LeapSeconds
	registerer    prometheus.Registerer
	mmap          bool
	bodies        map[int]frames.Body
	maxEvents     int
}

func defaultOptions() options {
	return options{
		mode:          catalog.Strict,
		logger:        logging.Discard(),
		cacheSize:     DefaultCacheSize,
		maxIterations: DefaultMaxIterations,
	}
}

// Option configures an Almanac.
type Option func(*options)

// WithBestEffort makes kernel loads skip malformed or unsupported segments
// instead of failing. Skipped segments are logged and listed by Inspect.
func WithBestEffort() Option {
	return func(o *options) { o.mode = catalog.BestEffort }
}

// WithLogger sets the logger for load and unload events.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCacheSize sets the coefficient record cache size. Zero disables the
// cache.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithMaxIterations bounds converged light-time iteration.
func WithMaxIterations(n int) Option {
	return func(o *options) { o.maxIterations = n }
}

// WithLeapSeconds sets the leap-second table used for UTC conversions.
func WithLeapSeconds(ls *timescale.LeapSeconds) Option {
	return func(o *options) { o.leapSeconds = ls }
}

// WithMetrics registers the almanac's metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithMmap controls whether plain kernel files are memory-mapped. Mapped
// kernels must not be rewritten in place while loaded; the default reads
// them into memory.
func WithMmap(on bool) Option {
	return func(o *options) { o.mmap = on }
}

// WithBodyConstants overrides built-in body constants.
func WithBodyConstants(b map[int]frames.Body) Option {
	return func(o *options) { o.bodies = b }
}

// WithEventHistory sets how many pool events are retained.
func WithEventHistory(n int) Option {
	return func(o *options) { o.maxEvents = n }
}
