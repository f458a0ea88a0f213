// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the services.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Shortener attributes
	ShortIDKey    = "shortener.id"
	ShortStoreKey = "shortener.store"
	CacheHitKey   = "shortener.cache_hit"

	// Task attributes
	TaskNameKey     = "app.task"
	TaskDurationKey = "app.task_duration"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// ShortenerAttributes describes one shortener store interaction.
func ShortenerAttributes(id, store string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if id != "" {
		attrs = append(attrs, attribute.String(ShortIDKey, id))
	}
	if store != "" {
		attrs = append(attrs, attribute.String(ShortStoreKey, store))
	}
	return attrs
}

// TaskAttributes describes a timed unit of work.
func TaskAttributes(name string, durationMS int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(TaskNameKey, name),
		attribute.Int64(TaskDurationKey, durationMS),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}

// CacheHitAttribute marks whether a lookup was served from cache.
func CacheHitAttribute(hit bool) attribute.KeyValue {
	return attribute.Bool(CacheHitKey, hit)
}
