// Package ratelimit implements token-bucket admission control for the
// simulator's single payment endpoint.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Bucket is a token bucket refilled lazily at admission time. Tokens never
// exceed the burst capacity and never go negative. A rejected admission
// leaves the bucket untouched.
type Bucket struct {
	mu     sync.Mutex
	rate   float64 // tokens per second
	burst  int
	tokens float64
	last   time.Time
}

// New creates a bucket starting at full capacity.
func New(tokensPerSecond float64, burstCapacity int) *Bucket {
	return &Bucket{
		rate:   tokensPerSecond,
		burst:  burstCapacity,
		tokens: float64(burstCapacity),
		last:   time.Now(),
	}
}

// TryAdmit consumes cost tokens if available and reports whether the request
// was admitted. It is a pure admission decision; callers map a rejection to a
// rate-limit response.
func (b *Bucket) TryAdmit(cost float64) bool {
	return b.tryAdmitAt(time.Now(), cost)
}

func (b *Bucket) tryAdmitAt(now time.Time, cost float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillAt(now)
	if b.tokens >= cost {
		b.tokens -= cost
		return true
	}
	return false
}

// refillAt adds tokens for the elapsed wall-clock interval, capped at burst.
// Callers must hold b.mu.
func (b *Bucket) refillAt(now time.Time) {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	b.tokens += elapsed * b.rate
	if b.tokens > float64(b.burst) {
		b.tokens = float64(b.burst)
	}
	b.last = now
}

// Tokens reports the current token level after a refill.
func (b *Bucket) Tokens() float64 {
	return b.tokensAt(time.Now())
}

func (b *Bucket) tokensAt(now time.Time) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillAt(now)
	return b.tokens
}

// RetryAfter returns the suggested client wait in milliseconds before the
// next token becomes available: ceil(1000 / rate).
func (b *Bucket) RetryAfter() int {
	return int(math.Ceil(1000 / b.rate))
}

// Reset restores the bucket to full capacity.
func (b *Bucket) Reset() {
	b.mu.Lock()
	b.tokens = float64(b.burst)
	b.last = time.Now()
	b.mu.Unlock()
}

// Snapshot is a point-in-time view of the bucket.
type Snapshot struct {
	AvailableTokens float64 `json:"availableTokens"`
	TokensPerSecond float64 `json:"tps"`
	BurstSize       int     `json:"burstSize"`
}

// Snapshot returns a point-in-time view of the bucket after a refill.
func (b *Bucket) Snapshot() Snapshot {
	return Snapshot{
		AvailableTokens: b.Tokens(),
		TokensPerSecond: b.rate,
		BurstSize:       b.burst,
	}
}
