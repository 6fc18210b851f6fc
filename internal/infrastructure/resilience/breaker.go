package resilience

import (
	"sync"
	"time"

	"transaction-aggregator/internal/domain/transaction"
)

// State is a circuit breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the lowercase state name
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

// BreakerSettings configures a circuit breaker
type BreakerSettings struct {
	// FailureThreshold is the number of consecutive transient failures that opens the circuit
	FailureThreshold int
	// OpenDuration is the cooldown before a single probe is allowed
	OpenDuration time.Duration
	// OnStateChange is called after every transition while the breaker lock
	// is held, so calls arrive in transition order. It must not call back
	// into the Breaker.
	OnStateChange func(from, to State)
	// Now is the clock; defaults to time.Now
	Now func() time.Time
}

// Breaker is a Closed -> Open -> Half-Open -> Closed state machine.
// All transitions happen under mu, so one Breaker is safe to share between
// concurrent callers of the same source.
//
// Every transition starts a new generation. Allow hands out the generation a
// call was admitted under and results from an older generation are dropped,
// so a slow call cannot move the breaker out of a state it never saw.
type Breaker struct {
	mu       sync.Mutex
	settings BreakerSettings

	state         State
	generation    uint64
	failures      int
	openedAt      time.Time
	probeInFlight bool
}

// NewBreaker creates a closed breaker
func NewBreaker(settings BreakerSettings) *Breaker {
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.OpenDuration <= 0 {
		settings.OpenDuration = 30 * time.Second
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &Breaker{settings: settings, state: StateClosed}
}

// Allow asks permission for one call and returns the generation to report
// its result under. It returns ErrCircuitOpen while the cooldown runs, and
// while the single Half-Open probe is in flight.
func (b *Breaker) Allow() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return b.generation, nil
	case StateOpen:
		if b.settings.Now().Sub(b.openedAt) < b.settings.OpenDuration {
			return b.generation, transaction.ErrCircuitOpen
		}
		b.setState(StateHalfOpen)
		b.probeInFlight = true
		return b.generation, nil
	case StateHalfOpen:
		if b.probeInFlight {
			return b.generation, transaction.ErrCircuitOpen
		}
		b.probeInFlight = true
		return b.generation, nil
	}
	return b.generation, transaction.ErrCircuitOpen
}

// RecordSuccess closes the circuit and resets the failure counter. Results
// admitted under an older generation are ignored.
func (b *Breaker) RecordSuccess(generation uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if generation != b.generation {
		return
	}
	b.failures = 0
	b.probeInFlight = false
	if b.state != StateClosed {
		b.setState(StateClosed)
	}
}

// RecordFailure registers a failed call. In Closed a transient failure counts
// toward the threshold and a fatal one ends the consecutive run; a failed
// Half-Open probe always re-opens. Results admitted under an older
// generation are ignored.
func (b *Breaker) RecordFailure(generation uint64, transient bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if generation != b.generation {
		return
	}
	switch b.state {
	case StateHalfOpen:
		b.trip()
	case StateClosed:
		if !transient {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.settings.FailureThreshold {
			b.trip()
		}
	}
}

// State returns the current state. An Open breaker whose cooldown has elapsed
// still reports Open until the next Allow moves it to Half-Open.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the consecutive transient failure count
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// trip must be called with mu held
func (b *Breaker) trip() {
	b.openedAt = b.settings.Now()
	b.probeInFlight = false
	b.setState(StateOpen)
}

// setState must be called with mu held
func (b *Breaker) setState(to State) {
	from := b.state
	b.state = to
	b.generation++
	if to == StateClosed {
		b.failures = 0
	}
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(from, to)
	}
}
