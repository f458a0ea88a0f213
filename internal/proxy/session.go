// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package proxy

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/ecosystem/internal/log"
	"github.com/ManuGH/ecosystem/internal/metrics"
	"github.com/ManuGH/ecosystem/internal/resilience"
)

// Stats summarises one proxied session.
type Stats struct {
	ClientToUpstream int64
	UpstreamToClient int64
	Duration         time.Duration
}

type closeWriter interface {
	CloseWrite() error
}

func (s *Server) serveSession(client net.Conn) {
	start := time.Now()
	upstreamAddr := s.Upstream()
	ctx := log.ContextWithCorrelationID(s.ctx, uuid.NewString())
	logger := log.WithContext(ctx, s.logger).With().
		Str(log.FieldRemoteAddr, client.RemoteAddr().String()).
		Str(log.FieldUpstreamAddr, upstreamAddr).
		Logger()

	upstream, err := s.dial(ctx, upstreamAddr)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		logger.Debug().Str(log.FieldEvent, "proxy.dial_rejected").Msg("upstream breaker open")
		return
	}
	if err != nil {
		metrics.RecordProxyDialFailure()
		logger.Warn().Err(err).Str(log.FieldEvent, "proxy.dial_failed").Msg("failed to connect to upstream")
		return
	}
	if !s.addConn(upstream) {
		_ = upstream.Close()
		return
	}
	defer s.untrack(upstream)

	metrics.ProxySessionStarted()
	defer metrics.ProxySessionEnded()

	logger.Debug().Str(log.FieldEvent, "proxy.session_opened").Msg("session opened")

	stats, err := pipe(client, upstream)
	stats.Duration = time.Since(start)

	metrics.AddProxyBytes("upstream", stats.ClientToUpstream)
	metrics.AddProxyBytes("downstream", stats.UpstreamToClient)

	evt := logger.Info()
	if err != nil && !s.closing() {
		evt = logger.Warn().Err(err)
	}
	evt.
		Str(log.FieldEvent, "proxy.session_closed").
		Int64("bytes_client_to_upstream", stats.ClientToUpstream).
		Int64("bytes_upstream_to_client", stats.UpstreamToClient).
		Int64(log.FieldDuration, stats.Duration.Milliseconds()).
		Msg("session closed")
}

func (s *Server) dial(ctx context.Context, addr string) (net.Conn, error) {
	var conn net.Conn
	do := func() error {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.DialTimeout)
		defer cancel()
		c, err := s.dialer.DialContext(ctx, "tcp", addr)
		conn = c
		return err
	}
	var err error
	if s.breaker == nil {
		err = do()
	} else {
		err = s.breaker.Execute(do)
	}
	return conn, err
}

// pipe copies in both directions until both are done. A clean EOF on one
// side half-closes the peer's write side; an error tears down both.
func pipe(client, upstream net.Conn) (Stats, error) {
	var st Stats
	var g errgroup.Group

	g.Go(func() error {
		n, err := io.Copy(upstream, client)
		st.ClientToUpstream = n
		return finish(err, upstream, client)
	})
	g.Go(func() error {
		n, err := io.Copy(client, upstream)
		st.UpstreamToClient = n
		return finish(err, client, upstream)
	})

	return st, g.Wait()
}

// finish ends one copy direction. dst is the side that was written to.
func finish(copyErr error, dst, src net.Conn) error {
	if copyErr == nil {
		if cw, ok := dst.(closeWriter); ok {
			if err := cw.CloseWrite(); err == nil {
				return nil
			}
		}
		_ = dst.Close()
		return nil
	}
	_ = dst.Close()
	_ = src.Close()
	if errors.Is(copyErr, net.ErrClosed) {
		return nil
	}
	return copyErr
}
