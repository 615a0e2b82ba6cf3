// Package engine orchestrates one simulated payment across the token bucket,
// the circuit breaker, the outcome simulator, and the metrics collector.
package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wudi/paysim/internal/breaker"
	"github.com/wudi/paysim/internal/config"
	"github.com/wudi/paysim/internal/logging"
	"github.com/wudi/paysim/internal/metrics"
	"github.com/wudi/paysim/internal/outcome"
	"github.com/wudi/paysim/internal/ratelimit"
)

// ResultKind identifies which of the terminal response shapes a request
// produced. Every request produces exactly one.
type ResultKind int

const (
	KindSuccess ResultKind = iota
	KindTransientFailure
	KindPermanentFailure
	KindTimeout
	KindRateLimited
	KindBreakerOpen
)

// Result is the terminal outcome of one processed payment.
type Result struct {
	Kind          ResultKind
	TransactionID string
	Amount        float64
	ProcessedAt   time.Time
	Latency       time.Duration
	RetryAfter    int // ms, set on rate-limit rejections
}

// Engine owns all mutable simulation state. Handlers hold a single *Engine;
// tests construct independent instances per scenario. resetMu serializes
// Reset and Snapshot against the short critical sections of Process — the
// simulated delay itself runs outside any lock.
type Engine struct {
	cfg     *config.Config
	limiter *ratelimit.Bucket
	breaker *breaker.Breaker
	sim     *outcome.Simulator
	metrics *metrics.Collector

	resetMu sync.RWMutex
	sleep   func(time.Duration)
}

// New creates an engine with a full token bucket and a closed breaker.
func New(cfg *config.Config) *Engine {
	return &Engine{
		cfg:     cfg,
		limiter: ratelimit.New(cfg.TokensPerSecond, cfg.BurstCapacity),
		breaker: breaker.New(cfg.BreakerEnabled, cfg.BreakerFailureThreshold, cfg.BreakerOpenDuration()),
		sim:     outcome.New(cfg),
		metrics: metrics.NewCollector(),
		sleep:   time.Sleep,
	}
}

// Process runs one payment through the gate sequence: breaker, then token
// bucket, then outcome simulation with its prescribed delay. In-flight
// delays always run to completion; there is no cancellation.
func (e *Engine) Process(amount float64) Result {
	e.resetMu.RLock()
	e.metrics.RecordRequest()

	if !e.breaker.Gate() {
		// A consequence of earlier failures, not a new one: it never feeds
		// the failure streak.
		e.metrics.RecordBreakerRejected()
		e.resetMu.RUnlock()
		return Result{Kind: KindBreakerOpen}
	}

	if !e.limiter.TryAdmit(1) {
		e.metrics.RecordRateLimited()
		retry := e.limiter.RetryAfter()
		e.resetMu.RUnlock()
		return Result{Kind: KindRateLimited, RetryAfter: retry}
	}

	d := e.sim.Decide()
	e.resetMu.RUnlock()

	wait := d.Latency
	if d.Outcome == outcome.Timeout {
		wait = e.cfg.TimeoutDelay()
	}
	start := time.Now()
	e.sleep(wait)
	elapsed := time.Since(start)

	e.resetMu.RLock()
	if tripped := e.breaker.ReportOutcome(d.Outcome == outcome.Success); tripped {
		e.metrics.RecordBreakerTrip()
		logging.Warn("circuit breaker tripped open",
			zap.Int("failure_threshold", e.cfg.BreakerFailureThreshold),
			zap.Duration("open_for", e.cfg.BreakerOpenDuration()),
		)
	}
	e.metrics.RecordOutcome(d.Outcome, elapsed)
	e.resetMu.RUnlock()

	switch d.Outcome {
	case outcome.Success:
		return Result{
			Kind:          KindSuccess,
			TransactionID: "txn_" + uuid.New().String(),
			Amount:        amount,
			ProcessedAt:   time.Now(),
			Latency:       elapsed,
		}
	case outcome.Timeout:
		return Result{Kind: KindTimeout, Latency: elapsed}
	case outcome.PermanentFailure:
		return Result{Kind: KindPermanentFailure, Latency: elapsed}
	default:
		return Result{Kind: KindTransientFailure, Latency: elapsed}
	}
}

// Snapshot is a consistent view across all engine state.
type Snapshot struct {
	Metrics     metrics.Snapshot   `json:"metrics"`
	Breaker     breaker.Snapshot   `json:"circuitBreaker"`
	RateLimiter ratelimit.Snapshot `json:"rateLimiter"`
}

// Snapshot gathers all component snapshots under the reset lock, so a reader
// never interleaves with a reset.
func (e *Engine) Snapshot() Snapshot {
	e.resetMu.RLock()
	defer e.resetMu.RUnlock()
	return Snapshot{
		Metrics:     e.metrics.Snapshot(),
		Breaker:     e.breaker.Snapshot(),
		RateLimiter: e.limiter.Snapshot(),
	}
}

// Reset atomically restores metrics, breaker, and token bucket to their
// initial values. Concurrent readers see either the old window or the new
// one, never a mix.
func (e *Engine) Reset() {
	e.resetMu.Lock()
	e.limiter.Reset()
	e.breaker.Reset()
	e.metrics.Reset()
	e.resetMu.Unlock()

	logging.Info("simulation state reset")
}
