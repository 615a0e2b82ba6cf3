// Package outcome selects per-request failure modes for admitted payments.
package outcome

import (
	"math/rand"
	"sync"
	"time"

	"github.com/wudi/paysim/internal/config"
)

// Outcome classifies the simulated result of an admitted request.
type Outcome int

const (
	Success Outcome = iota
	TransientFailure
	PermanentFailure
	Timeout
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case TransientFailure:
		return "transient_failure"
	case PermanentFailure:
		return "permanent_failure"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Decision is the result of a single draw. Latency is the simulated
// processing time; for Timeout the caller waits the configured timeout delay
// instead.
type Decision struct {
	Outcome Outcome
	Latency time.Duration
}

// Simulator draws outcomes from configured probability bands. It is a pure
// function of its random source plus configuration: no I/O, no state
// between calls beyond the RNG position.
type Simulator struct {
	timeoutRate   float64
	permanentRate float64
	transientRate float64
	minLatency    time.Duration
	latencySpan   time.Duration

	rng *rand.Rand
	mu  sync.Mutex
}

// New creates a simulator seeded from the wall clock.
func New(cfg *config.Config) *Simulator {
	return &Simulator{
		timeoutRate:   cfg.TimeoutRate,
		permanentRate: cfg.PermanentFailureRate,
		transientRate: cfg.TransientFailureRate,
		minLatency:    cfg.MinLatency(),
		latencySpan:   cfg.MaxLatency() - cfg.MinLatency(),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Decide draws one outcome and one latency value.
func (s *Simulator) Decide() Decision {
	s.mu.Lock()
	r := s.rng.Float64()
	u := s.rng.Float64()
	s.mu.Unlock()

	return Decision{
		Outcome: s.pick(r),
		Latency: s.latency(u),
	}
}

// pick maps one uniform draw in [0,1) onto non-overlapping cumulative bands
// in a fixed priority order: timeout, then permanent failure, then transient
// failure, then success. The ordering is a deliberate tie-break policy so
// each configured rate owns a disjoint slice of the probability mass rather
// than compounding as independent trials.
func (s *Simulator) pick(r float64) Outcome {
	cut := s.timeoutRate
	if r < cut {
		return Timeout
	}
	cut += s.permanentRate
	if r < cut {
		return PermanentFailure
	}
	cut += s.transientRate
	if r < cut {
		return TransientFailure
	}
	return Success
}

// latency maps one uniform draw in [0,1) onto [minLatency, maxLatency).
func (s *Simulator) latency(u float64) time.Duration {
	return s.minLatency + time.Duration(u*float64(s.latencySpan))
}
