// SPDX-License-Identifier: MIT

// Package greeter serves a hello endpoint whose work is split into traced,
// timed steps.
package greeter

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/ecosystem/internal/log"
	"github.com/ManuGH/ecosystem/internal/metrics"
	"github.com/ManuGH/ecosystem/internal/telemetry"
)

// Greeting is the response body of GET /.
const Greeting = "Hello, World!"

const (
	DefaultPause        = 10 * time.Millisecond
	DefaultTaskDuration = 112 * time.Millisecond
	DefaultTaskBudget   = 100 * time.Millisecond
)

// Config tunes the handler. Zero durations take the defaults; a nil Tracer
// uses the global provider.
type Config struct {
	Pause        time.Duration
	TaskDuration time.Duration
	TaskBudget   time.Duration
	Tracer       trace.Tracer
}

// Handler serves GET /.
type Handler struct {
	cfg Config
}

// NewHandler creates a Handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Pause <= 0 {
		cfg.Pause = DefaultPause
	}
	if cfg.TaskDuration <= 0 {
		cfg.TaskDuration = DefaultTaskDuration
	}
	if cfg.TaskBudget <= 0 {
		cfg.TaskBudget = DefaultTaskBudget
	}
	if cfg.Tracer == nil {
		cfg.Tracer = telemetry.Tracer("greeter")
	}
	return &Handler{cfg: cfg}
}

// Register mounts the route on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.index)
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.cfg.Tracer.Start(r.Context(), "greeter.index")
	defer span.End()
	logger := log.WithComponentFromContext(ctx, "greeter")

	logger.Debug().Str(log.FieldEvent, "greeter.index_start").Msg("index handler started")
	if err := sleep(ctx, h.cfg.Pause); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return
	}
	if err := h.longTask(ctx); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Greeting))
	span.SetAttributes(telemetry.HTTPAttributes(r.Method, "/", r.URL.String(), http.StatusOK)...)
	logger.Info().
		Str(log.FieldEvent, "greeter.index_done").
		Int("http.status", http.StatusOK).
		Msg("index handler completed")
}

func (h *Handler) longTask(ctx context.Context) error {
	ctx, span := h.cfg.Tracer.Start(ctx, "greeter.long_task")
	defer span.End()

	start := time.Now()
	if err := sleep(ctx, h.cfg.TaskDuration); err != nil {
		return err
	}
	elapsed := time.Since(start)
	over := elapsed > h.cfg.TaskBudget

	span.SetAttributes(telemetry.TaskAttributes("long_task", elapsed.Milliseconds())...)
	metrics.ObserveGreeterTask(elapsed.Seconds(), over)
	if over {
		span.AddEvent("task over budget")
		logger := log.WithComponentFromContext(ctx, "greeter")
		logger.Warn().
			Str(log.FieldEvent, "greeter.task_over_budget").
			Int64(log.FieldDuration, elapsed.Milliseconds()).
			Int64("budget_ms", h.cfg.TaskBudget.Milliseconds()).
			Msg("task takes too long")
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
