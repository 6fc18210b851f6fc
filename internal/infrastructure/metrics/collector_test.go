package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_SourceCalls(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.ObserveSourceCall("bank-a", "success", 1, 10*time.Millisecond)
	c.ObserveSourceCall("bank-a", "success", 2, 10*time.Millisecond)
	c.ObserveSourceCall("bank-a", "rejected", 0, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.sourceCalls.WithLabelValues("bank-a", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sourceCalls.WithLabelValues("bank-a", "rejected")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.sourceAttempts))
}

func TestCollector_BreakerState(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.SetBreakerState("bank-a", "open")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.breakerState.WithLabelValues("bank-a", "open")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.breakerState.WithLabelValues("bank-a", "closed")))

	c.SetBreakerState("bank-a", "closed")

	assert.Equal(t, 0.0, testutil.ToFloat64(c.breakerState.WithLabelValues("bank-a", "open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.breakerState.WithLabelValues("bank-a", "closed")))
}

func TestCollector_Cache(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.CacheHit()
	c.CacheMiss()
	c.CacheMiss()
	c.CacheError()
	c.ObserveQuery(true, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.cacheRequests.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheRequests.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.queryDuration))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.ObserveSourceCall("bank-a", "success", 1, time.Millisecond)
		c.SetBreakerState("bank-a", "open")
		c.CacheHit()
		c.CacheMiss()
		c.CacheError()
		c.ObserveQuery(false, time.Millisecond)
	})
}
