// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package hashing runs BLAKE3 digests on a fixed set of worker goroutines
// fed through a bounded queue.
package hashing

import (
	"context"
	"encoding/hex"
	"errors"
	"runtime"
	"sync"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/ecosystem/internal/metrics"
)

// DefaultQueueSize bounds the number of jobs waiting for a worker.
const DefaultQueueSize = 32

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("hashing: pool closed")

// Digest returns the hex BLAKE3-256 digest of s.
func Digest(s string) string {
	sum := blake3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Result is the outcome of one job.
type Result struct {
	Input  string
	Digest string
}

// Options configures a Pool. Zero values take defaults.
type Options struct {
	Workers   int
	QueueSize int
}

type job struct {
	input string
	done  chan Result
}

// Pool hands jobs to a fixed number of workers.
type Pool struct {
	jobs chan job
	quit chan struct{}

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	workers   errgroup.Group
}

// NewPool starts the workers.
func NewPool(opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	p := &Pool{
		jobs: make(chan job, opts.QueueSize),
		quit: make(chan struct{}),
	}
	for i := 0; i < opts.Workers; i++ {
		p.workers.Go(p.work)
	}
	return p
}

func (p *Pool) work() error {
	for j := range p.jobs {
		metrics.SetHashQueueDepth(len(p.jobs))
		j.done <- Result{Input: j.input, Digest: Digest(j.input)}
		metrics.RecordHashJob()
	}
	return nil
}

// Future resolves to the Result of one submitted job.
type Future struct {
	done <-chan Result
}

// Wait blocks until the job completes or ctx is done.
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case r := <-f.done:
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Submit queues s. It blocks while the queue is full, until ctx is done or
// the pool is closed.
func (p *Pool) Submit(ctx context.Context, s string) (*Future, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}

	done := make(chan Result, 1)
	select {
	case p.jobs <- job{input: s, done: done}:
		metrics.SetHashQueueDepth(len(p.jobs))
		return &Future{done: done}, nil
	case <-p.quit:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run submits every string from in and sends each Result to out as it
// completes. It returns when in is closed and all results are delivered, or
// when ctx is done. out is not closed.
func (p *Pool) Run(ctx context.Context, in <-chan string, out chan<- Result) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			var s string
			var ok bool
			select {
			case s, ok = <-in:
				if !ok {
					return nil
				}
			case <-ctx.Done():
				return ctx.Err()
			}

			f, err := p.Submit(ctx, s)
			if err != nil {
				return err
			}
			g.Go(func() error {
				r, err := f.Wait(ctx)
				if err != nil {
					return err
				}
				select {
				case out <- r:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
		}
	})
	return g.Wait()
}

// Close stops accepting jobs, lets the workers drain the queue and waits for
// them to exit. It is safe to call more than once.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.quit)
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
	})
	_ = p.workers.Wait()
}
