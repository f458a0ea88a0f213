// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "errors"

var (
	// ErrUnknownConfigField classifies strict YAML parse failures caused by unknown keys.
	ErrUnknownConfigField = errors.New("unknown config field")

	// ErrInvalidSealKey is returned when seal.key is neither 64 hex characters nor 32 bytes.
	ErrInvalidSealKey = errors.New("seal key must be 64 hex characters or 32 bytes")
)
