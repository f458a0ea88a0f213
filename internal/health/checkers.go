// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"net"
	"time"
)

// PingFunc reports whether a dependency is reachable.
type PingFunc func(ctx context.Context) error

// PingChecker wraps a dependency ping (database, cache) as a Checker.
// Critical dependencies report unhealthy on failure, optional ones degraded.
type PingChecker struct {
	name     string
	ping     PingFunc
	critical bool
}

// NewPingChecker creates a checker around ping.
func NewPingChecker(name string, critical bool, ping PingFunc) *PingChecker {
	return &PingChecker{name: name, ping: ping, critical: critical}
}

func (c *PingChecker) Name() string {
	return c.name
}

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	if err := c.ping(ctx); err != nil {
		status := StatusDegraded
		if c.critical {
			status = StatusUnhealthy
		}
		return CheckResult{Status: status, Error: err.Error()}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: "ok in " + time.Since(start).Round(time.Millisecond).String(),
	}
}

// ListenerChecker verifies that a TCP service accepts connections.
type ListenerChecker struct {
	name string
	addr func() string
}

// NewListenerChecker creates a checker dialing the address returned by addr.
func NewListenerChecker(name string, addr func() string) *ListenerChecker {
	return &ListenerChecker{name: name, addr: addr}
}

func (c *ListenerChecker) Name() string {
	return c.name
}

func (c *ListenerChecker) Check(ctx context.Context) CheckResult {
	addr := c.addr()
	if addr == "" {
		return CheckResult{Status: StatusUnhealthy, Error: "not listening"}
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	_ = conn.Close()
	return CheckResult{Status: StatusHealthy, Message: addr}
}
