// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/ecosystem/internal/log"
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// ServeFunc serves on an already bound listener. It returns nil after a
// graceful shutdown.
type ServeFunc func(ln net.Listener) error

type service struct {
	name     string
	addr     string
	serve    ServeFunc
	shutdown ShutdownHook
	ln       net.Listener
}

// namedHook represents a shutdown hook with a name for logging
type namedHook struct {
	name string
	hook ShutdownHook
}

// Manager binds every registered service, serves them concurrently and
// shuts them down together.
type Manager struct {
	shutdownTimeout time.Duration
	logger          zerolog.Logger

	mu       sync.Mutex
	services []*service
	hooks    []namedHook
	addrs    map[string]string
	started  bool
	stopping bool
	ready    chan struct{}
}

// NewManager creates a manager. shutdownTimeout bounds Shutdown.
func NewManager(shutdownTimeout time.Duration) *Manager {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}
	return &Manager{
		shutdownTimeout: shutdownTimeout,
		logger:          log.WithComponent("manager"),
		addrs:           make(map[string]string),
		ready:           make(chan struct{}),
	}
}

// Add registers a service listening on addr. shutdown may be nil.
func (m *Manager) Add(name, addr string, serve ServeFunc, shutdown ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, &service{name: name, addr: addr, serve: serve, shutdown: shutdown})
}

// RegisterShutdownHook registers a cleanup function run after every service
// has stopped.
func (m *Manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, namedHook{name: name, hook: hook})
	m.logger.Debug().Str("hook", name).Msg("registered shutdown hook")
}

// Ready is closed once every listener is bound.
func (m *Manager) Ready() <-chan struct{} { return m.ready }

// Addr returns the bound address of the named service, or "" before Ready.
func (m *Manager) Addr(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addrs[name]
}

// Start binds all listeners, serves until ctx is cancelled or a service
// fails, then shuts everything down.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrManagerStarted
	}
	m.started = true
	services := append([]*service(nil), m.services...)
	m.mu.Unlock()

	if len(services) == 0 {
		return ErrNoServices
	}

	for i, svc := range services {
		ln, err := net.Listen("tcp", svc.addr)
		if err != nil {
			for _, bound := range services[:i] {
				_ = bound.ln.Close()
			}
			m.runHooks(context.Background())
			return fmt.Errorf("%w: %s on %s: %v", ErrServerStartFailed, svc.name, svc.addr, err)
		}
		svc.ln = ln
		m.mu.Lock()
		m.addrs[svc.name] = ln.Addr().String()
		m.mu.Unlock()
	}
	close(m.ready)

	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range services {
		g.Go(func() error {
			m.logger.Info().
				Str(log.FieldEvent, "service.listening").
				Str("service", svc.name).
				Str(log.FieldListenAddr, svc.ln.Addr().String()).
				Msg("service listening")
			if err := svc.serve(svc.ln); err != nil {
				m.logger.Error().
					Err(err).
					Str(log.FieldEvent, "service.failed").
					Str("service", svc.name).
					Msg("service failed")
				return fmt.Errorf("%s: %w", svc.name, err)
			}
			return nil
		})
	}

	var shutdownErr error
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			m.logger.Info().Str(log.FieldEvent, "shutdown.signal").Msg("shutdown signal received")
		}
		shutdownErr = m.Shutdown(context.WithoutCancel(ctx))
		return nil
	})

	err := g.Wait()
	return errors.Join(err, shutdownErr)
}

// Shutdown stops services in reverse registration order, then runs the
// shutdown hooks.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	services := append([]*service(nil), m.services...)
	m.mu.Unlock()

	m.logger.Info().Str(log.FieldEvent, "shutdown.start").Msg("shutting down services")

	shutdownCtx, cancel := context.WithTimeout(ctx, m.shutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(services) - 1; i >= 0; i-- {
		svc := services[i]
		if svc.shutdown == nil {
			continue
		}
		if err := svc.shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("%s shutdown: %w", svc.name, err))
		}
	}
	errs = append(errs, m.runHooks(shutdownCtx)...)

	if len(errs) > 0 {
		m.logger.Error().
			Int("error_count", len(errs)).
			Str(log.FieldEvent, "shutdown.failed").
			Msg("shutdown completed with errors")
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	m.logger.Info().Str(log.FieldEvent, "shutdown.done").Msg("all services stopped cleanly")
	return nil
}

func (m *Manager) runHooks(ctx context.Context) []error {
	m.mu.Lock()
	hooks := m.hooks
	m.hooks = nil
	m.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		start := time.Now()
		if err := h.hook(ctx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", h.name).
				Dur("duration", time.Since(start)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", h.name, err))
			continue
		}
		m.logger.Debug().Str("hook", h.name).Dur("duration", time.Since(start)).Msg("shutdown hook completed")
	}
	return errs
}
