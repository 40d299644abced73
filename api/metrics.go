// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package api

import (
	"time"

	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/txtr/holon/rpc/params"
)

const metricsNamespace = "holon_reaktor"

// Collector is a prometheus.Collector that collects metrics about
// reaktor calls.
type Collector struct {
	calls       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	retries     *prometheus.CounterVec
	cacheLookup *prometheus.CounterVec
}

// NewMetricsCollector returns a new Collector.
func NewMetricsCollector() *Collector {
	return &Collector{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "calls_total",
				Help:      "The number of calls made, by interface and outcome.",
			}, []string{"interface", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "call_duration_seconds",
				Help:      "The time taken by a call, retries included.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40},
			}, []string{"interface"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "retries_total",
				Help:      "The number of calls retried after a transport failure.",
			}, []string{"interface"},
		),
		cacheLookup: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "cache_lookups_total",
				Help:      "The number of cache lookups, by cache and result.",
			}, []string{"cache", "result"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.calls.Describe(ch)
	c.duration.Describe(ch)
	c.retries.Describe(ch)
	c.cacheLookup.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.calls.Collect(ch)
	c.duration.Collect(ch)
	c.retries.Collect(ch)
	c.cacheLookup.Collect(ch)
}

func (c *Collector) observeCall(iface string, err error, took time.Duration) {
	if c == nil {
		return
	}
	c.calls.WithLabelValues(iface, outcome(err)).Inc()
	c.duration.WithLabelValues(iface).Observe(took.Seconds())
}

func (c *Collector) observeRetry(iface string) {
	if c == nil {
		return
	}
	c.retries.WithLabelValues(iface).Inc()
}

// CacheHit records a lookup answered by the named cache.
func (c *Collector) CacheHit(cache string) {
	if c == nil {
		return
	}
	c.cacheLookup.WithLabelValues(cache, "hit").Inc()
}

// CacheMiss records a lookup the named cache could not answer.
func (c *Collector) CacheMiss(cache string) {
	if c == nil {
		return
	}
	c.cacheLookup.WithLabelValues(cache, "miss").Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, params.ErrIO):
		return "io"
	case errors.Is(err, params.ErrHTTP):
		return "http"
	case errors.Is(err, params.ErrProtocol):
		return "protocol"
	case errors.Is(err, params.ErrAPI):
		return "api"
	}
	return "error"
}
