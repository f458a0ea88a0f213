// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

var errDial = errors.New("dial failed")

func fail() error { return errDial }
func ok() error   { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cb := NewCircuitBreaker("test", 3, 10*time.Second, WithNow(clock.now))

	assert.ErrorIs(t, cb.Execute(fail), errDial)
	assert.ErrorIs(t, cb.Execute(fail), errDial)
	assert.Equal(t, StateClosed, cb.State())

	assert.ErrorIs(t, cb.Execute(fail), errDial)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, time.Second)

	_ = cb.Execute(fail)
	assert.NoError(t, cb.Execute(ok))
	_ = cb.Execute(fail)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenTrial(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cb := NewCircuitBreaker("test", 1, 10*time.Second, WithNow(clock.now))

	_ = cb.Execute(fail)
	assert.Equal(t, StateOpen, cb.State())

	clock.advance(11 * time.Second)
	// The trial fails: back to open with a fresh timeout.
	assert.ErrorIs(t, cb.Execute(fail), errDial)
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(ok), ErrCircuitOpen)

	clock.advance(11 * time.Second)
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_SingleTrialWhileHalfOpen(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cb := NewCircuitBreaker("test", 1, time.Second, WithNow(clock.now))
	_ = cb.Execute(fail)
	clock.advance(2 * time.Second)

	release := make(chan struct{})
	done := make(chan error, 1)
	started := make(chan struct{})
	go func() {
		done <- cb.Execute(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	assert.Equal(t, StateHalfOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(ok), ErrCircuitOpen)

	close(release)
	assert.NoError(t, <-done)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Hour)
	_ = cb.Execute(fail)
	assert.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.NoError(t, cb.Execute(ok))
}

func TestCircuitBreaker_LateFailureDoesNotDecideTrial(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cb := NewCircuitBreaker("test", 1, time.Second, WithNow(clock.now))

	// A slow call admitted while closed.
	slowRelease := make(chan struct{})
	slowStarted := make(chan struct{})
	slowDone := make(chan error, 1)
	go func() {
		slowDone <- cb.Execute(func() error {
			close(slowStarted)
			<-slowRelease
			return errDial
		})
	}()
	<-slowStarted

	// Another call opens the breaker, and the cooldown passes.
	assert.ErrorIs(t, cb.Execute(fail), errDial)
	assert.Equal(t, StateOpen, cb.State())
	clock.advance(2 * time.Second)

	trialRelease := make(chan struct{})
	trialStarted := make(chan struct{})
	trialDone := make(chan error, 1)
	go func() {
		trialDone <- cb.Execute(func() error {
			close(trialStarted)
			<-trialRelease
			return nil
		})
	}()
	<-trialStarted
	assert.Equal(t, StateHalfOpen, cb.State())

	// The slow call fails while the trial is in flight.
	close(slowRelease)
	assert.ErrorIs(t, <-slowDone, errDial)
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(ok), ErrCircuitOpen, "trial still in flight")

	close(trialRelease)
	assert.NoError(t, <-trialDone)
	assert.Equal(t, StateClosed, cb.State())
}
