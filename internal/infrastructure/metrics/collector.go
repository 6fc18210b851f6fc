package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aggregator"

var breakerStates = []string{"closed", "open", "half-open"}

// Collector holds the service's Prometheus instruments.
// A nil *Collector is valid and records nothing.
type Collector struct {
	sourceCalls    *prometheus.CounterVec
	sourceAttempts *prometheus.HistogramVec
	sourceDuration *prometheus.HistogramVec
	breakerState   *prometheus.GaugeVec
	cacheRequests  *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
}

// NewCollector creates the instruments and registers them with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sourceCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_calls_total",
			Help:      "Resilient source calls by outcome.",
		}, []string{"source", "outcome"}),
		sourceAttempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_attempts",
			Help:      "Attempts made per resilient source call.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}, []string{"source"}),
		sourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_call_duration_seconds",
			Help:      "Wall time of a resilient source call including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "1 for the current breaker state of each source, 0 otherwise.",
		}, []string{"source", "state"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups by result.",
		}, []string{"result"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Time to answer a transaction query.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"cache"}),
	}

	reg.MustRegister(
		c.sourceCalls,
		c.sourceAttempts,
		c.sourceDuration,
		c.breakerState,
		c.cacheRequests,
		c.queryDuration,
	)
	return c
}

// ObserveSourceCall records the outcome of one resilient source call
func (c *Collector) ObserveSourceCall(source, outcome string, attempts int, d time.Duration) {
	if c == nil {
		return
	}
	c.sourceCalls.WithLabelValues(source, outcome).Inc()
	if attempts > 0 {
		c.sourceAttempts.WithLabelValues(source).Observe(float64(attempts))
	}
	c.sourceDuration.WithLabelValues(source).Observe(d.Seconds())
}

// SetBreakerState marks state as the current breaker state of source
func (c *Collector) SetBreakerState(source, state string) {
	if c == nil {
		return
	}
	for _, s := range breakerStates {
		v := 0.0
		if s == state {
			v = 1
		}
		c.breakerState.WithLabelValues(source, s).Set(v)
	}
}

// CacheHit counts a cache hit
func (c *Collector) CacheHit() {
	c.cacheResult("hit")
}

// CacheMiss counts a cache miss
func (c *Collector) CacheMiss() {
	c.cacheResult("miss")
}

// CacheError counts a failed cache read or write
func (c *Collector) CacheError() {
	c.cacheResult("error")
}

func (c *Collector) cacheResult(result string) {
	if c == nil {
		return
	}
	c.cacheRequests.WithLabelValues(result).Inc()
}

// ObserveQuery records how long a query took and whether it was served from cache
func (c *Collector) ObserveQuery(cached bool, d time.Duration) {
	if c == nil {
		return
	}
	label := "miss"
	if cached {
		label = "hit"
	}
	c.queryDuration.WithLabelValues(label).Observe(d.Seconds())
}
