// Package resilience provides reliability patterns for provider calls.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker is rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Breaker is a consecutive-failure circuit breaker. After maxFailures
// consecutive failures it rejects calls until the cooldown elapses, then lets
// a single trial call through: success closes the circuit, failure reopens it
// for another cooldown.
type Breaker struct {
	mu          sync.Mutex
	maxFailures int
	cooldown    time.Duration
	failures    int
	openUntil   time.Time
	inTrial     bool
	now         func() time.Time
}

// NewBreaker creates a Breaker that opens after maxFailures consecutive
// failures and cools down for the given duration.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	return &Breaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// Execute runs fn unless the circuit is open, in which case it returns
// ErrCircuitOpen without calling fn. fn's error is passed through.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.openUntil.IsZero() {
		return nil
	}
	if b.now().Before(b.openUntil) {
		return ErrCircuitOpen
	}
	// Cooldown elapsed: admit one trial call and hold the rest back until
	// it settles.
	if b.inTrial {
		return ErrCircuitOpen
	}
	b.inTrial = true
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	trial := b.inTrial
	b.inTrial = false

	if err == nil {
		b.failures = 0
		b.openUntil = time.Time{}
		return
	}

	b.failures++
	if trial || b.failures >= b.maxFailures {
		b.openUntil = b.now().Add(b.cooldown)
	}
}

// Open reports whether the breaker is currently rejecting calls.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.openUntil.IsZero() && b.now().Before(b.openUntil)
}
