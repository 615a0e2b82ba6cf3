package engine

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wudi/paysim/internal/config"
)

func TestPrometheusCollectorFreshEngine(t *testing.T) {
	e := testEngine(func(cfg *config.Config) {
		cfg.BurstCapacity = 4
	})

	expected := `
# HELP paysim_breaker_state Circuit breaker state (0=closed, 1=open, 2=half_open).
# TYPE paysim_breaker_state gauge
paysim_breaker_state 0
# HELP paysim_breaker_trips_total Circuit breaker open transitions.
# TYPE paysim_breaker_trips_total counter
paysim_breaker_trips_total 0
# HELP paysim_rate_limiter_tokens Tokens currently available in the admission bucket.
# TYPE paysim_rate_limiter_tokens gauge
paysim_rate_limiter_tokens 4
# HELP paysim_requests_failed_total Requests that ended in a simulated failure or breaker rejection.
# TYPE paysim_requests_failed_total counter
paysim_requests_failed_total 0
# HELP paysim_requests_rate_limited_total Requests rejected by the token bucket.
# TYPE paysim_requests_rate_limited_total counter
paysim_requests_rate_limited_total 0
# HELP paysim_requests_success_total Requests that completed successfully.
# TYPE paysim_requests_success_total counter
paysim_requests_success_total 0
# HELP paysim_requests_timeout_total Requests that ended in a simulated timeout.
# TYPE paysim_requests_timeout_total counter
paysim_requests_timeout_total 0
# HELP paysim_requests_total Requests received, including rejected ones.
# TYPE paysim_requests_total counter
paysim_requests_total 0
# HELP paysim_success_latency_avg_ms Running average latency of successful requests in milliseconds.
# TYPE paysim_success_latency_avg_ms gauge
paysim_success_latency_avg_ms 0
`
	if err := testutil.CollectAndCompare(e.PrometheusCollector(), strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected prometheus output: %v", err)
	}
}

func TestPrometheusCollectorCountsTraffic(t *testing.T) {
	e := testEngine(nil)
	e.Process(5)
	e.Process(5)

	c := e.PrometheusCollector()
	if got := testutil.CollectAndCount(c); got != 9 {
		t.Errorf("expected 9 metrics, got %d", got)
	}

	expected := `
# HELP paysim_requests_success_total Requests that completed successfully.
# TYPE paysim_requests_success_total counter
paysim_requests_success_total 2
# HELP paysim_requests_total Requests received, including rejected ones.
# TYPE paysim_requests_total counter
paysim_requests_total 2
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"paysim_requests_total", "paysim_requests_success_total")
	if err != nil {
		t.Errorf("unexpected prometheus output: %v", err)
	}
}
