// SPDX-License-Identifier: MIT

package ratelimit

import (
	"net"

	"github.com/rs/zerolog"
	"golang.org/x/net/netutil"
)

// limitedListener closes connections the Limiter rejects before handing
// them to the server.
type limitedListener struct {
	net.Listener
	limiter *Limiter
	logger  zerolog.Logger
}

func (l *limitedListener) Accept() (net.Conn, error) {
	for {
		conn, err := l.Listener.Accept()
		if err != nil {
			return nil, err
		}
		ip := ClientIP(conn.RemoteAddr())
		if l.limiter.Allow(ip) {
			return conn, nil
		}
		l.logger.Debug().
			Str("event", "conn.rate_limited").
			Str("remote_addr", conn.RemoteAddr().String()).
			Msg("connection rejected by rate limiter")
		_ = conn.Close()
	}
}

// Wrap applies per-IP admission and a concurrent connection cap to ln.
// A nil limiter skips admission; maxConns <= 0 skips the cap.
func Wrap(ln net.Listener, limiter *Limiter, maxConns int, logger zerolog.Logger) net.Listener {
	if limiter != nil {
		ln = &limitedListener{Listener: ln, limiter: limiter, logger: logger}
	}
	if maxConns > 0 {
		ln = netutil.LimitListener(ln, maxConns)
	}
	return ln
}
