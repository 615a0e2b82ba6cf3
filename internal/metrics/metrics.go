// Package metrics aggregates process-wide request counters and the running
// latency average for the simulator.
package metrics

import (
	"sync"
	"time"

	"github.com/wudi/paysim/internal/outcome"
)

// Collector tracks simulator metrics. All counters are monotonically
// non-decreasing within a measurement window; Reset starts a new window.
type Collector struct {
	mu           sync.Mutex
	total        int64
	success      int64
	failed       int64
	rateLimited  int64
	timeouts     int64
	breakerTrips int64
	avgLatencyMs float64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordRequest counts an incoming request before any gate decision.
func (c *Collector) RecordRequest() {
	c.mu.Lock()
	c.total++
	c.mu.Unlock()
}

// RecordRateLimited counts an admission rejection by the token bucket.
func (c *Collector) RecordRateLimited() {
	c.mu.Lock()
	c.rateLimited++
	c.mu.Unlock()
}

// RecordBreakerRejected counts a fast-fail while the breaker is open.
func (c *Collector) RecordBreakerRejected() {
	c.mu.Lock()
	c.failed++
	c.mu.Unlock()
}

// RecordBreakerTrip counts one closed-to-open (or half-open-to-open)
// breaker transition.
func (c *Collector) RecordBreakerTrip() {
	c.mu.Lock()
	c.breakerTrips++
	c.mu.Unlock()
}

// RecordOutcome counts a simulated outcome. On success the running latency
// average is folded in before the success counter increments, so the new
// sample is weighted exactly once.
func (c *Collector) RecordOutcome(o outcome.Outcome, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch o {
	case outcome.Success:
		ms := float64(latency) / float64(time.Millisecond)
		c.avgLatencyMs = (c.avgLatencyMs*float64(c.success) + ms) / float64(c.success+1)
		c.success++
	case outcome.Timeout:
		c.timeouts++
		c.failed++
	default:
		c.failed++
	}
}

// Reset restores every counter and the average to zero in one critical
// section, so no concurrent reader observes a partial reset.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.total = 0
	c.success = 0
	c.failed = 0
	c.rateLimited = 0
	c.timeouts = 0
	c.breakerTrips = 0
	c.avgLatencyMs = 0
	c.mu.Unlock()
}

// Snapshot is a point-in-time view of all counters. SuccessRate is derived
// as successfulRequests / totalRequests (zero when no traffic yet).
type Snapshot struct {
	TotalRequests       int64   `json:"totalRequests"`
	SuccessfulRequests  int64   `json:"successfulRequests"`
	FailedRequests      int64   `json:"failedRequests"`
	RateLimitedRequests int64   `json:"rateLimitedRequests"`
	TimeoutRequests     int64   `json:"timeoutRequests"`
	BreakerTripCount    int64   `json:"breakerTripCount"`
	AverageLatencyMs    float64 `json:"averageLatencyMs"`
	SuccessRate         float64 `json:"successRate"`
}

// Snapshot returns a consistent point-in-time view of all counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var rate float64
	if c.total > 0 {
		rate = float64(c.success) / float64(c.total)
	}
	return Snapshot{
		TotalRequests:       c.total,
		SuccessfulRequests:  c.success,
		FailedRequests:      c.failed,
		RateLimitedRequests: c.rateLimited,
		TimeoutRequests:     c.timeouts,
		BreakerTripCount:    c.breakerTrips,
		AverageLatencyMs:    c.avgLatencyMs,
		SuccessRate:         rate,
	}
}
