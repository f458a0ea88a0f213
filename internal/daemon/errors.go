// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import "errors"

var (
	// ErrNoServices is returned when the configuration enables no service.
	ErrNoServices = errors.New("no service enabled")

	// ErrManagerStarted is returned when Start is called twice.
	ErrManagerStarted = errors.New("manager already started")

	// ErrManagerNotStarted is returned when trying to shutdown a manager that hasn't started
	ErrManagerNotStarted = errors.New("manager not started")

	// ErrServerStartFailed is returned when a service cannot bind its listener.
	ErrServerStartFailed = errors.New("server failed to start")
)
