// SPDX-License-Identifier: MIT

// Package metrics holds the Prometheus instruments of the daemon's services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Shortener metrics
	shortenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eco_shortener_shorten_total",
		Help: "Shorten requests by outcome",
	}, []string{"outcome"}) // outcome=created|invalid|error

	shortenCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eco_shortener_id_collisions_total",
		Help: "Generated ids that collided with an existing record",
	})

	resolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eco_shortener_resolve_total",
		Help: "Resolve requests by outcome",
	}, []string{"outcome"}) // outcome=found|not_found|error

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eco_cache_lookups_total",
		Help: "Cache lookups by backend and result",
	}, []string{"backend", "result"}) // result=hit|miss

	// Chat metrics
	chatPeers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eco_chat_peers",
		Help: "Currently joined chat peers",
	})

	chatMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eco_chat_messages_total",
		Help: "Chat lines broadcast to the room",
	})

	chatDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eco_chat_messages_dropped_total",
		Help: "Messages dropped because a peer's outbound queue was full",
	})

	// Proxy metrics
	proxySessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eco_proxy_active_sessions",
		Help: "Currently proxied client sessions",
	})

	proxyBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eco_proxy_bytes_total",
		Help: "Bytes proxied by direction",
	}, []string{"direction"}) // direction=upstream|downstream

	proxyDialFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eco_proxy_dial_failures_total",
		Help: "Failed upstream dials",
	})

	// Hashing metrics
	hashJobs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eco_hashing_jobs_total",
		Help: "Completed hashing jobs",
	})

	hashQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eco_hashing_queue_depth",
		Help: "Jobs waiting for a worker",
	})

	// Greeter metrics
	greeterTaskDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "eco_greeter_task_duration_seconds",
		Help:    "Duration of the greeter sub-task",
		Buckets: []float64{.025, .05, .1, .15, .25, .5, 1},
	})

	greeterOverBudget = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eco_greeter_task_over_budget_total",
		Help: "Greeter sub-task runs that exceeded their time budget",
	})

	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "eco_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	circuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eco_circuit_breaker_trips_total",
		Help: "Transitions into the open state",
	}, []string{"name", "reason"})

	// Operational metrics
	configReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eco_config_reloads_total",
		Help: "Configuration reload attempts by outcome",
	}, []string{"outcome"}) // outcome=success|failure
)

// RecordShorten counts one shorten request.
func RecordShorten(outcome string) { shortenTotal.WithLabelValues(outcome).Inc() }

// RecordShortenCollision counts one id collision.
func RecordShortenCollision() { shortenCollisions.Inc() }

// RecordResolve counts one resolve request.
func RecordResolve(outcome string) { resolveTotal.WithLabelValues(outcome).Inc() }

// RecordCacheLookup counts a cache hit or miss for backend.
func RecordCacheLookup(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(backend, result).Inc()
}

// ChatPeerJoined increments the joined peer gauge.
func ChatPeerJoined() { chatPeers.Inc() }

// ChatPeerLeft decrements the joined peer gauge.
func ChatPeerLeft() { chatPeers.Dec() }

// RecordChatMessage counts one broadcast line.
func RecordChatMessage() { chatMessages.Inc() }

// RecordChatDropped counts one message dropped for a slow peer.
func RecordChatDropped() { chatDropped.Inc() }

// ProxySessionStarted increments the active session gauge.
func ProxySessionStarted() { proxySessions.Inc() }

// ProxySessionEnded decrements the active session gauge.
func ProxySessionEnded() { proxySessions.Dec() }

// AddProxyBytes adds n proxied bytes for direction.
func AddProxyBytes(direction string, n int64) {
	if n > 0 {
		proxyBytes.WithLabelValues(direction).Add(float64(n))
	}
}

// RecordProxyDialFailure counts a failed upstream dial.
func RecordProxyDialFailure() { proxyDialFailures.Inc() }

// RecordHashJob counts one completed hashing job.
func RecordHashJob() { hashJobs.Inc() }

// SetHashQueueDepth reports the number of queued hashing jobs.
func SetHashQueueDepth(n int) { hashQueueDepth.Set(float64(n)) }

// ObserveGreeterTask records one sub-task run.
func ObserveGreeterTask(seconds float64, overBudget bool) {
	greeterTaskDuration.Observe(seconds)
	if overBudget {
		greeterOverBudget.Inc()
	}
}

// RecordConfigReload counts one reload attempt.
func RecordConfigReload(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	configReloads.WithLabelValues(outcome).Inc()
}

// SetCircuitBreakerState reports the state of the named breaker.
func SetCircuitBreakerState(name, state string) {
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	circuitBreakerState.WithLabelValues(name).Set(v)
}

// RecordCircuitBreakerTrip counts one transition into the open state.
func RecordCircuitBreakerTrip(name, reason string) {
	circuitBreakerTrips.WithLabelValues(name, reason).Inc()
}
