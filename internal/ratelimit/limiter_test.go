// SPDX-License-Identifier: MIT

package ratelimit

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimiterGlobal(t *testing.T) {
	limiter := New("test", Config{
		GlobalRate:  10,
		GlobalBurst: 20,
		PerIPRate:   100,
		PerIPBurst:  200,
	})

	allowed := 0
	for i := 0; i < 25; i++ {
		if limiter.Allow("192.168.1.1") {
			allowed++
		}
	}

	// Should be around 20 (burst size)
	if allowed < 19 || allowed > 21 {
		t.Errorf("expected ~20 connections to pass with burst=20, got %d", allowed)
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	limiter := New("test", Config{
		GlobalRate:  1000,
		GlobalBurst: 1000,
		PerIPRate:   rate.Every(time.Hour),
		PerIPBurst:  2,
	})

	before := testutil.ToFloat64(rateLimitExceeded.WithLabelValues("per_ip", "test"))

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"), "other IPs have their own bucket")

	assert.Equal(t, before+1, testutil.ToFloat64(rateLimitExceeded.WithLabelValues("per_ip", "test")))
}

func TestRateLimiterCleanupDropsIdle(t *testing.T) {
	limiter := New("test", Config{
		GlobalRate: 1000, GlobalBurst: 1000,
		PerIPRate: 1000, PerIPBurst: 1000,
		IdleTTL: time.Minute,
	})
	clock := time.Now()
	limiter.now = func() time.Time { return clock }

	limiter.Allow("10.0.0.1")
	clock = clock.Add(30 * time.Second)
	limiter.Allow("10.0.0.2")
	assert.Equal(t, 2, limiter.tracked())

	clock = clock.Add(45 * time.Second)
	limiter.Allow("10.0.0.2")
	assert.Equal(t, 1, limiter.tracked(), "10.0.0.1 idle for 75s is dropped")
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "127.0.0.1", ClientIP(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9}))
	assert.Equal(t, "", ClientIP(nil))
	assert.Equal(t, "::1", ClientIP(&net.TCPAddr{IP: net.IPv6loopback, Port: 9}))
}

func TestWrap_ClosesRejectedConnections(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	limiter := New("wrap-test", Config{
		GlobalRate: 1000, GlobalBurst: 1000,
		PerIPRate: rate.Every(time.Hour), PerIPBurst: 1,
	})
	wrapped := Wrap(ln, limiter, 4, zerolog.Nop())
	defer wrapped.Close()

	accepted := make(chan net.Conn, 2)
	go func() {
		for {
			c, err := wrapped.Accept()
			if err != nil {
				close(accepted)
				return
			}
			accepted <- c
		}
	}()

	first, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer first.Close()
	srvConn := <-accepted
	defer srvConn.Close()

	second, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer second.Close()

	// The limiter closes the second connection, so a read observes EOF.
	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = second.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}
