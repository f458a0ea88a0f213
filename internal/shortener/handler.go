// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package shortener

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/ecosystem/internal/log"
	"github.com/ManuGH/ecosystem/internal/problem"
)

const maxBodyBytes = 16 << 10

// ShortenRequest is the body of POST /.
type ShortenRequest struct {
	URL string `json:"url"`
}

// ShortenResponse is the body of a successful POST /.
type ShortenResponse struct {
	URL string `json:"url"`
}

// Handler exposes a Service over HTTP.
type Handler struct {
	svc     *Service
	baseURL string
}

// NewHandler creates a Handler. Short links are rendered as publicBaseURL/id.
func NewHandler(svc *Service, publicBaseURL string) *Handler {
	return &Handler{svc: svc, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Register mounts the routes on r. limit wraps the shorten route only.
func (h *Handler) Register(r chi.Router, limit func(http.Handler) http.Handler) {
	if limit == nil {
		r.Post("/", h.shorten)
	} else {
		r.With(limit).Post("/", h.shorten)
	}
	r.Get("/{id}", h.redirect)
}

func (h *Handler) shorten(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "shortener")

	var req ShortenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		logger.Warn().Err(err).Str(log.FieldEvent, "shortener.bad_request").Msg("failed to decode shorten request")
		problem.Unprocessable(w, r, "shortener/bad_request", "body must be a JSON object with a url field")
		return
	}

	id, err := h.svc.Shorten(r.Context(), req.URL)
	if err != nil {
		logger.Warn().Err(err).Str(log.FieldEvent, "shortener.shorten_failed").Msg("failed to shorten url")
		detail := "url could not be shortened"
		if errors.Is(err, ErrInvalidURL) {
			detail = err.Error()
		}
		problem.Unprocessable(w, r, "shortener/unprocessable", detail)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(ShortenResponse{URL: h.baseURL + "/" + id}); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "shortener.encode_failed").Msg("failed to encode response")
	}
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	target, err := h.svc.Resolve(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		problem.NotFound(w, r, "shortener/not_found", "no url is stored for this id")
		return
	}
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "shortener")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "shortener.resolve_failed").
			Str(log.FieldShortID, id).
			Msg("failed to resolve id")
		problem.Internal(w, r, "shortener/store_unavailable")
		return
	}

	w.Header().Set("Location", target)
	w.WriteHeader(http.StatusPermanentRedirect)
}
