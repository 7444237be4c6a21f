// Package metrics exposes prometheus instrumentation for the data plane.
// Everything is registered on a private registry so embedding applications
// keep control of their default registry. A nil *Collector is valid and
// turns every recording call into a no-op.
package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	CacheHits       *prometheus.CounterVec // tier label: mem|disk
	CacheMisses     prometheus.Counter
	StaleFallbacks  prometheus.Counter
	Coalesced       prometheus.Counter
	TransitRequests *prometheus.CounterVec // op label
	TransitErrors   *prometheus.CounterVec // kind label
	RequestDuration prometheus.Histogram
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buscore_cache_hits_total",
			Help: "Cache hits by tier.",
		}, []string{"tier"}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buscore_cache_misses_total",
			Help: "Cache misses across both tiers.",
		}),
		StaleFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buscore_stale_fallbacks_total",
			Help: "Times a failed fetch was answered from a stale cache entry.",
		}),
		Coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buscore_coalesced_requests_total",
			Help: "Callers that shared an already in-flight request.",
		}),
		TransitRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buscore_transit_requests_total",
			Help: "GraphQL requests issued, by operation.",
		}, []string{"op"}),
		TransitErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buscore_transit_errors_total",
			Help: "Failed GraphQL requests, by error kind.",
		}, []string{"kind"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "buscore_transit_request_duration_seconds",
			Help:    "Duration of GraphQL requests.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}

	reg.MustRegister(
		c.CacheHits, c.CacheMisses, c.StaleFallbacks, c.Coalesced,
		c.TransitRequests, c.TransitErrors, c.RequestDuration,
	)
	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	return srv
}

// No-op-safe recording helpers. Callers hold a possibly-nil *Collector.

func (c *Collector) CacheHit(tier string) {
	if c != nil {
		c.CacheHits.WithLabelValues(tier).Inc()
	}
}

func (c *Collector) CacheMiss() {
	if c != nil {
		c.CacheMisses.Inc()
	}
}

func (c *Collector) StaleFallback() {
	if c != nil {
		c.StaleFallbacks.Inc()
	}
}

func (c *Collector) CoalescedRequest() {
	if c != nil {
		c.Coalesced.Inc()
	}
}

func (c *Collector) TransitRequest(op string) {
	if c != nil {
		c.TransitRequests.WithLabelValues(op).Inc()
	}
}

func (c *Collector) TransitError(kind string) {
	if c != nil {
		c.TransitErrors.WithLabelValues(kind).Inc()
	}
}

func (c *Collector) ObserveRequest(d time.Duration) {
	if c != nil {
		c.RequestDuration.Observe(d.Seconds())
	}
}
