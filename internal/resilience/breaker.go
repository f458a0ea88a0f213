// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package resilience guards calls to flaky dependencies.
package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/ecosystem/internal/metrics"
)

// State is the position of a CircuitBreaker.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// ErrCircuitOpen is returned by Execute while calls are being rejected.
var ErrCircuitOpen = errors.New("circuit breaker is open")

const (
	defaultThreshold = 3
	defaultCooldown  = 30 * time.Second
)

// CircuitBreaker rejects calls after threshold consecutive failures. Once
// cooldown has passed it admits one trial call; success closes it, failure
// starts a new cooldown.
type CircuitBreaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	state    State
	streak   int
	openedAt time.Time
	trial    bool
}

// Option customises a CircuitBreaker.
type Option func(*CircuitBreaker)

// WithNow replaces the clock.
func WithNow(now func() time.Time) Option {
	return func(cb *CircuitBreaker) { cb.now = now }
}

// NewCircuitBreaker creates a closed breaker. Non-positive arguments fall
// back to defaults.
func NewCircuitBreaker(name string, threshold int, cooldown time.Duration, opts ...Option) *CircuitBreaker {
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	cb := &CircuitBreaker{
		name:      name,
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		state:     StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	metrics.SetCircuitBreakerState(name, string(StateClosed))
	return cb
}

// Execute calls fn unless the breaker rejects it, and records the outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	ok, isTrial := cb.admit()
	if !ok {
		return ErrCircuitOpen
	}
	err := fn()
	cb.record(err, isTrial)
	return err
}

// admit reports whether a call may run and whether it is the half-open trial.
func (cb *CircuitBreaker) admit() (ok, isTrial bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.cooldown {
		cb.set(StateHalfOpen)
	}
	switch cb.state {
	case StateClosed:
		return true, false
	case StateHalfOpen:
		if cb.trial {
			return false, false
		}
		cb.trial = true
		return true, true
	default:
		return false, false
	}
}

// record applies the outcome of a call. Calls admitted while closed that
// finish after the breaker opened only update the failure streak.
func (cb *CircuitBreaker) record(err error, isTrial bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if isTrial {
		cb.trial = false
		if err != nil {
			cb.streak++
			metrics.RecordCircuitBreakerTrip(cb.name, "trial_failed")
			cb.set(StateOpen)
			return
		}
		cb.streak = 0
		cb.set(StateClosed)
		return
	}

	if err == nil {
		cb.streak = 0
		return
	}
	cb.streak++
	if cb.state == StateClosed && cb.streak >= cb.threshold {
		metrics.RecordCircuitBreakerTrip(cb.name, "threshold_exceeded")
		cb.set(StateOpen)
	}
}

// Reset closes the breaker and forgets past failures.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.streak = 0
	cb.trial = false
	cb.set(StateClosed)
}

// set must be called with mu held.
func (cb *CircuitBreaker) set(s State) {
	if s == StateOpen {
		cb.openedAt = cb.now()
	}
	if cb.state == s {
		return
	}
	cb.state = s
	metrics.SetCircuitBreakerState(cb.name, string(s))
}

// State reports the current position without advancing it.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
