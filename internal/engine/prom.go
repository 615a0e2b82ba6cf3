package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wudi/paysim/internal/breaker"
)

// Descriptors for the Prometheus view of the engine snapshot. Counter-typed
// metrics reset to zero on POST /reset, which scrapers handle as a normal
// counter restart.
var (
	descRequestsTotal = prometheus.NewDesc(
		"paysim_requests_total", "Requests received, including rejected ones.", nil, nil)
	descSuccessTotal = prometheus.NewDesc(
		"paysim_requests_success_total", "Requests that completed successfully.", nil, nil)
	descFailedTotal = prometheus.NewDesc(
		"paysim_requests_failed_total", "Requests that ended in a simulated failure or breaker rejection.", nil, nil)
	descRateLimitedTotal = prometheus.NewDesc(
		"paysim_requests_rate_limited_total", "Requests rejected by the token bucket.", nil, nil)
	descTimeoutTotal = prometheus.NewDesc(
		"paysim_requests_timeout_total", "Requests that ended in a simulated timeout.", nil, nil)
	descBreakerTrips = prometheus.NewDesc(
		"paysim_breaker_trips_total", "Circuit breaker open transitions.", nil, nil)
	descBreakerState = prometheus.NewDesc(
		"paysim_breaker_state", "Circuit breaker state (0=closed, 1=open, 2=half_open).", nil, nil)
	descAvgLatency = prometheus.NewDesc(
		"paysim_success_latency_avg_ms", "Running average latency of successful requests in milliseconds.", nil, nil)
	descTokens = prometheus.NewDesc(
		"paysim_rate_limiter_tokens", "Tokens currently available in the admission bucket.", nil, nil)
)

type promCollector struct {
	engine *Engine
}

// PrometheusCollector exposes the engine snapshot as Prometheus metrics.
// Register it on a fresh registry and serve it with promhttp.
func (e *Engine) PrometheusCollector() prometheus.Collector {
	return &promCollector{engine: e}
}

func (c *promCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descRequestsTotal
	ch <- descSuccessTotal
	ch <- descFailedTotal
	ch <- descRateLimitedTotal
	ch <- descTimeoutTotal
	ch <- descBreakerTrips
	ch <- descBreakerState
	ch <- descAvgLatency
	ch <- descTokens
}

func (c *promCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.engine.Snapshot()

	ch <- prometheus.MustNewConstMetric(descRequestsTotal, prometheus.CounterValue, float64(snap.Metrics.TotalRequests))
	ch <- prometheus.MustNewConstMetric(descSuccessTotal, prometheus.CounterValue, float64(snap.Metrics.SuccessfulRequests))
	ch <- prometheus.MustNewConstMetric(descFailedTotal, prometheus.CounterValue, float64(snap.Metrics.FailedRequests))
	ch <- prometheus.MustNewConstMetric(descRateLimitedTotal, prometheus.CounterValue, float64(snap.Metrics.RateLimitedRequests))
	ch <- prometheus.MustNewConstMetric(descTimeoutTotal, prometheus.CounterValue, float64(snap.Metrics.TimeoutRequests))
	ch <- prometheus.MustNewConstMetric(descBreakerTrips, prometheus.CounterValue, float64(snap.Metrics.BreakerTripCount))
	ch <- prometheus.MustNewConstMetric(descBreakerState, prometheus.GaugeValue, breakerStateValue(snap.Breaker.State))
	ch <- prometheus.MustNewConstMetric(descAvgLatency, prometheus.GaugeValue, snap.Metrics.AverageLatencyMs)
	ch <- prometheus.MustNewConstMetric(descTokens, prometheus.GaugeValue, snap.RateLimiter.AvailableTokens)
}

func breakerStateValue(state string) float64 {
	switch state {
	case breaker.StateOpen.String():
		return 1
	case breaker.StateHalfOpen.String():
		return 2
	default:
		return 0
	}
}
