// Package metrics defines the Prometheus metrics of the kernel engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for an almanac.
type Metrics struct {
	KernelsLoaded  *prometheus.GaugeVec
	SegmentsLoaded prometheus.Gauge
	LoadDuration   prometheus.Histogram
	LoadFailures   prometheus.Counter
	Queries        *prometheus.CounterVec
	CacheAccesses  *prometheus.CounterVec
}

// New creates and registers all metrics with the provided registry. A nil
// registry leaves the metrics unregistered.
func New(reg prometheus.Registerer) *Metrics {
	kernelsLoaded := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ls_ephem_kernels_loaded",
		Help: "Kernels currently in the pool, by kind",
	}, []string{"kind"})

	segmentsLoaded := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ls_ephem_segments_loaded",
		Help: "Segments indexed across all loaded kernels",
	})

	loadDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ls_ephem_kernel_load_seconds",
		Help:    "Time to open and index a kernel",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	})

	loadFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ls_ephem_kernel_load_failures_total",
		Help: "Kernel loads rejected",
	})

	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ls_ephem_queries_total",
		Help: "Queries answered, by operation and result",
	}, []string{"op", "result"})

	cacheAccesses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ls_ephem_record_cache_accesses_total",
		Help: "Coefficient record cache lookups, by result",
	}, []string{"result"})

	if reg != nil {
		reg.MustRegister(kernelsLoaded, segmentsLoaded, loadDuration, loadFailures, queries, cacheAccesses)
	}

	return &Metrics{
		KernelsLoaded:  kernelsLoaded,
		SegmentsLoaded: segmentsLoaded,
		LoadDuration:   loadDuration,
		LoadFailures:   loadFailures,
		Queries:        queries,
		CacheAccesses:  cacheAccesses,
	}
}

// ObserveLoad records a kernel load attempt that started at start.
func (m *Metrics) ObserveLoad(start time.Time, err error) {
	if err != nil {
		m.LoadFailures.Inc()
		return
	}
	m.LoadDuration.Observe(time.Since(start).Seconds())
}

// ObserveQuery counts one query of op.
func (m *Metrics) ObserveQuery(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Queries.WithLabelValues(op, result).Inc()
}

// CacheAccess counts one record cache lookup. It matches the hook expected
// by interp.NewCache.
func (m *Metrics) CacheAccess(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheAccesses.WithLabelValues(result).Inc()
}
