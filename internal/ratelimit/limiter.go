// SPDX-License-Identifier: MIT

// Package ratelimit throttles incoming TCP connections globally and per client IP.
package ratelimit

import (
	"net"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var (
	rateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eco",
			Name:      "ratelimit_exceeded_total",
			Help:      "Total rate limit rejections",
		},
		[]string{"limit_type", "service"},
	)
)

// Config holds rate limiting configuration
type Config struct {
	// Global limits
	GlobalRate  rate.Limit // accepts per second
	GlobalBurst int        // max burst size

	// Per-IP limits
	PerIPRate  rate.Limit
	PerIPBurst int

	// IdleTTL is how long an unused per-IP limiter is kept.
	IdleTTL time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		GlobalRate:  100,
		GlobalBurst: 200,
		PerIPRate:   5,
		PerIPBurst:  10,
		IdleTTL:     5 * time.Minute,
	}
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter decides whether a new connection from an IP is admitted.
type Limiter struct {
	config  Config
	service string

	global *rate.Limiter
	mu     sync.Mutex
	perIP  map[string]*ipLimiter

	lastCleanup time.Time
	now         func() time.Time
}

// New creates a limiter for the named service.
func New(service string, config Config) *Limiter {
	if config.IdleTTL <= 0 {
		config.IdleTTL = 5 * time.Minute
	}
	return &Limiter{
		config:      config,
		service:     service,
		global:      rate.NewLimiter(config.GlobalRate, config.GlobalBurst),
		perIP:       make(map[string]*ipLimiter),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Allow reports whether a connection from clientIP is admitted now.
func (l *Limiter) Allow(clientIP string) bool {
	if !l.global.Allow() {
		rateLimitExceeded.WithLabelValues("global", l.service).Inc()
		return false
	}

	if !l.getIPLimiter(clientIP).Allow() {
		rateLimitExceeded.WithLabelValues("per_ip", l.service).Inc()
		return false
	}

	l.maybeCleanup()
	return true
}

func (l *Limiter) getIPLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.perIP[ip]
	if !exists {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.config.PerIPRate, l.config.PerIPBurst)}
		l.perIP[ip] = entry
	}
	entry.lastSeen = l.now()
	return entry.limiter
}

// maybeCleanup drops per-IP limiters that have been idle longer than IdleTTL.
func (l *Limiter) maybeCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastCleanup) < l.config.IdleTTL {
		return
	}
	for ip, entry := range l.perIP {
		if now.Sub(entry.lastSeen) > l.config.IdleTTL {
			delete(l.perIP, ip)
		}
	}
	l.lastCleanup = now
}

// tracked returns the number of per-IP limiters currently held.
func (l *Limiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.perIP)
}

// ClientIP extracts the IP part of a connection's remote address.
func ClientIP(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
