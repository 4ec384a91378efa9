package extractor

import (
	"sync"
	"time"
)

// State is the position of a Breaker in its closed, open, half-open cycle.
type State int

const (
	// StateClosed lets every run through.
	StateClosed State = iota

	// StateOpen rejects runs until the cooldown has elapsed.
	StateOpen

	// StateHalfOpen lets a bounded number of probe runs through.
	StateHalfOpen
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive tool failures that opens the breaker.
	MaxFailures int

	// Cooldown is how long the breaker stays open before probing again.
	Cooldown time.Duration

	// Probes is the number of concurrent half-open runs allowed, and the number
	// of consecutive successes needed to close again.
	Probes int
}

// Breaker stops spawning the extraction tool after it keeps failing.
//
//   - Closed → Open: MaxFailures consecutive failures
//   - Open → HalfOpen: first Allow after Cooldown
//   - HalfOpen → Closed: Probes consecutive successes
//   - HalfOpen → Open: any failure
type Breaker struct {
	mu       sync.Mutex
	cfg      BreakerConfig
	state    State
	failures int
	probes   int // in flight while half-open
	passed   int // successful probes while half-open
	openedAt time.Time

	onChange func(from, to State)
	now      func() time.Time
}

// NewBreaker creates a closed breaker. Non-positive limits are raised to one.
func NewBreaker(cfg BreakerConfig) *Breaker {
	cfg.MaxFailures = max(cfg.MaxFailures, 1)
	cfg.Probes = max(cfg.Probes, 1)

	return &Breaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to be called, asynchronously, on every transition.
func (b *Breaker) OnStateChange(fn func(from, to State)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.onChange = fn
}

// Allow reports whether a run may start. Every allowed run must be followed
// by exactly one call to Success or Failure.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return false
		}

		b.moveTo(StateHalfOpen)
		b.probes = 1

		return true
	case StateHalfOpen:
		if b.probes >= b.cfg.Probes {
			return false
		}

		b.probes++

		return true
	}

	return false
}

// Success records a run in which the tool worked.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.probes--
		b.passed++

		if b.passed >= b.cfg.Probes {
			b.moveTo(StateClosed)
		}
	}
}

// Failure records a run in which the tool itself failed.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.MaxFailures {
			b.moveTo(StateOpen)
		}
	case StateHalfOpen:
		b.probes--
		b.moveTo(StateOpen)
	}
}

// Release returns an allowed run's slot without counting it either way.
func (b *Breaker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen && b.probes > 0 {
		b.probes--
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// moveTo must be called with mu held.
func (b *Breaker) moveTo(to State) {
	if b.state == to {
		return
	}

	from := b.state
	b.state = to
	b.failures = 0
	b.passed = 0

	if to == StateOpen {
		b.openedAt = b.now()
		b.probes = 0
	}

	if b.onChange != nil {
		go b.onChange(from, to)
	}
}
