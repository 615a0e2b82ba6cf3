// Package breaker implements the simulator's protective circuit breaker: a
// three-state gate on the simulator's own request path, driven by the
// outcomes it reports. It has no notion of retry.
package breaker

import (
	"sync"
	"time"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Failing, reject requests
	StateHalfOpen              // Testing recovery
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker tracks consecutive failures and trips open at a configured
// threshold. When disabled, Gate always admits and ReportOutcome never
// changes phase.
type Breaker struct {
	mu               sync.Mutex
	enabled          bool
	failureThreshold int
	openDuration     time.Duration
	state            State
	failures         int
	lastFailureTime  time.Time
}

// New creates a breaker in the closed state.
func New(enabled bool, failureThreshold int, openDuration time.Duration) *Breaker {
	return &Breaker{
		enabled:          enabled,
		failureThreshold: failureThreshold,
		openDuration:     openDuration,
		state:            StateClosed,
	}
}

// Gate reports whether a request may proceed. While open, the gate flips to
// half-open (and admits) once the open window has elapsed since the last
// failure; until then every check is rejected.
func (b *Breaker) Gate() bool {
	return b.gateAt(time.Now())
}

func (b *Breaker) gateAt(now time.Time) bool {
	if !b.enabled {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if now.Sub(b.lastFailureTime) >= b.openDuration {
			b.state = StateHalfOpen
			return true
		}
		return false
	default:
		// Closed and half-open both admit; the half-open trial's outcome
		// decides the next phase.
		return true
	}
}

// ReportOutcome feeds an admitted request's result back into the breaker.
// It returns true exactly when this report transitioned the breaker to open,
// so the caller can count trips.
func (b *Breaker) ReportOutcome(success bool) bool {
	return b.reportAt(time.Now(), success)
}

func (b *Breaker) reportAt(now time.Time, success bool) bool {
	if !b.enabled {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		switch b.state {
		case StateClosed:
			b.failures = 0
		case StateHalfOpen:
			b.state = StateClosed
			b.failures = 0
		}
		return false
	}

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.state = StateOpen
			b.lastFailureTime = now
			return true
		}
	case StateHalfOpen:
		// Failed trial: re-arm the open window.
		b.state = StateOpen
		b.lastFailureTime = now
		return true
	case StateOpen:
		// A request admitted before the trip finished while open. Extend the
		// streak but the breaker is already open.
		b.failures++
	}
	return false
}

// State returns the current phase.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset returns the breaker to the closed state with a clean failure streak.
func (b *Breaker) Reset() {
	b.mu.Lock()
	b.state = StateClosed
	b.failures = 0
	b.lastFailureTime = time.Time{}
	b.mu.Unlock()
}

// Snapshot is a point-in-time view of the breaker.
type Snapshot struct {
	State     string `json:"state"`
	Failures  int    `json:"failures"`
	Threshold int    `json:"threshold"`
	Enabled   bool   `json:"enabled"`
}

// Snapshot returns a point-in-time view of the breaker.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		State:     b.state.String(),
		Failures:  b.failures,
		Threshold: b.failureThreshold,
		Enabled:   b.enabled,
	}
}
