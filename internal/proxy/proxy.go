// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package proxy implements a TCP reverse proxy to a single, hot-swappable upstream.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/ManuGH/ecosystem/internal/config"
	"github.com/ManuGH/ecosystem/internal/log"
	"github.com/ManuGH/ecosystem/internal/ratelimit"
	"github.com/ManuGH/ecosystem/internal/resilience"
)

// DefaultDialTimeout bounds the upstream dial when Config.DialTimeout is unset.
const DefaultDialTimeout = 5 * time.Second

// Config holds the proxy server configuration.
type Config struct {
	ListenAddr     string
	UpstreamAddr   string
	DialTimeout    time.Duration
	MaxConnections int
	// Limiter admits new clients per IP. Nil admits all.
	Limiter *ratelimit.Limiter
	// BreakerThreshold consecutive dial failures make new sessions fail fast
	// for BreakerReset. Zero disables the breaker.
	BreakerThreshold int
	BreakerReset     time.Duration
	Logger           zerolog.Logger
}

// Server accepts clients and pipes each one to the current upstream.
type Server struct {
	cfg      Config
	logger   zerolog.Logger
	upstream atomic.Pointer[string]
	dialer   net.Dialer
	sem      *semaphore.Weighted
	breaker  *resilience.CircuitBreaker

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	ln       net.Listener
	conns    map[net.Conn]struct{}
	shutdown bool
	wg       sync.WaitGroup
}

// New creates a proxy server. It does not listen until Start or Serve.
func New(cfg Config) (*Server, error) {
	if cfg.UpstreamAddr == "" {
		return nil, errors.New("proxy: upstream address is required")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		conns:  make(map[net.Conn]struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
	if cfg.MaxConnections > 0 {
		s.sem = semaphore.NewWeighted(int64(cfg.MaxConnections))
	}
	if cfg.BreakerThreshold > 0 {
		s.breaker = resilience.NewCircuitBreaker("proxy_upstream", cfg.BreakerThreshold, cfg.BreakerReset)
	}
	s.upstream.Store(&cfg.UpstreamAddr)
	return s, nil
}

// Upstream returns the address new sessions dial.
func (s *Server) Upstream() string {
	return *s.upstream.Load()
}

// SetUpstream re-targets new sessions. Established sessions are untouched.
func (s *Server) SetUpstream(addr string) {
	if addr == "" {
		return
	}
	prev := s.upstream.Swap(&addr)
	if *prev != addr {
		if s.breaker != nil {
			s.breaker.Reset()
		}
		s.logger.Info().
			Str(log.FieldEvent, "proxy.upstream_changed").
			Str("previous", *prev).
			Str(log.FieldUpstreamAddr, addr).
			Msg("upstream re-targeted")
	}
}

// FollowConfig re-targets the upstream whenever a new configuration arrives
// on updates, until ctx is done.
func (s *Server) FollowConfig(ctx context.Context, updates <-chan config.AppConfig) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-updates:
			if !ok {
				return
			}
			s.SetUpstream(cfg.Proxy.UpstreamAddr)
		}
	}
}

// Addr returns the listening address, or nil before the server listens.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Start listens on the configured address and serves until Shutdown.
// It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("proxy: listen %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ln)
}

// Serve accepts clients on ln until Shutdown. It returns nil after a
// graceful shutdown.
func (s *Server) Serve(ln net.Listener) error {
	ln = ratelimit.Wrap(ln, s.cfg.Limiter, 0, s.logger)

	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info().
		Str(log.FieldEvent, "proxy.listening").
		Str(log.FieldListenAddr, ln.Addr().String()).
		Str(log.FieldUpstreamAddr, s.Upstream()).
		Msg("tcp proxy listening")

	for {
		if s.sem != nil {
			if err := s.sem.Acquire(s.ctx, 1); err != nil {
				return nil
			}
		}
		conn, err := ln.Accept()
		if err != nil {
			s.release()
			if s.closing() {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			return fmt.Errorf("proxy: accept: %w", err)
		}
		if !s.track(conn) {
			s.release()
			_ = conn.Close()
			return nil
		}
		go func() {
			defer s.wg.Done()
			defer s.release()
			defer s.untrack(conn)
			s.serveSession(conn)
		}()
	}
}

func (s *Server) release() {
	if s.sem != nil {
		s.sem.Release(1)
	}
}

func (s *Server) closing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

// track registers c for Shutdown and counts it in the wait group.
func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	_ = c.Close()
}

// addConn registers an upstream conn so Shutdown can close it.
func (s *Server) addConn(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

// Shutdown stops accepting, closes every session and waits for them to end
// or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Str(log.FieldEvent, "proxy.shutdown").Msg("shutting down tcp proxy")

	s.mu.Lock()
	s.shutdown = true
	if s.ln != nil {
		_ = s.ln.Close()
	}
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
