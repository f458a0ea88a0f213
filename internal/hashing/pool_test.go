// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package hashing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestDigest_KnownVector(t *testing.T) {
	// BLAKE3 of the empty input.
	assert.Equal(t, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262", Digest(""))
	assert.Len(t, Digest("hello"), 64)
	assert.NotEqual(t, Digest("a"), Digest("b"))
}

func TestPool_Submit(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := NewPool(Options{Workers: 2, QueueSize: 4})
	defer p.Close()

	ctx := context.Background()
	f, err := p.Submit(ctx, "hello")
	require.NoError(t, err)
	r, err := f.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Input: "hello", Digest: Digest("hello")}, r)
}

func TestPool_ConcurrentSubmitters(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := NewPool(Options{Workers: 4, QueueSize: 2})
	defer p.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := fmt.Sprintf("job-%d", i)
			f, err := p.Submit(context.Background(), s)
			if err != nil {
				errs <- err
				return
			}
			r, err := f.Wait(context.Background())
			if err != nil {
				errs <- err
				return
			}
			if r.Digest != Digest(s) {
				errs <- fmt.Errorf("digest mismatch for %s", s)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestPool_Run(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := NewPool(Options{Workers: 3})
	defer p.Close()

	in := make(chan string)
	out := make(chan Result, 10)
	go func() {
		defer close(in)
		for i := 0; i < 10; i++ {
			in <- fmt.Sprintf("line %d", i)
		}
	}()

	require.NoError(t, p.Run(context.Background(), in, out))
	close(out)

	got := map[string]string{}
	for r := range out {
		got[r.Input] = r.Digest
	}
	require.Len(t, got, 10)
	for in, digest := range got {
		assert.Equal(t, Digest(in), digest)
	}
}

func TestPool_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := NewPool(Options{Workers: 1})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan string)
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, in, make(chan Result)) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPool_SubmitAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := NewPool(Options{Workers: 1})
	p.Close()
	p.Close()

	_, err := p.Submit(context.Background(), "x")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPool_CloseDrainsQueue(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := NewPool(Options{Workers: 1, QueueSize: 8})
	var futures []*Future
	for i := 0; i < 8; i++ {
		f, err := p.Submit(context.Background(), fmt.Sprint(i))
		require.NoError(t, err)
		futures = append(futures, f)
	}
	p.Close()

	for i, f := range futures {
		r, err := f.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Digest(fmt.Sprint(i)), r.Digest)
	}
}
