// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldPeer          = "peer"
	FieldUsername      = "username"
	FieldShortID       = "short_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// HTTP fields
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldRoute    = "route"
	FieldStatus   = "status"
	FieldBytes    = "bytes"
	FieldDuration = "duration_ms"

	// Network fields
	FieldListenAddr   = "listen_addr"
	FieldUpstreamAddr = "upstream_addr"
	FieldRemoteAddr   = "remote_addr"
)
