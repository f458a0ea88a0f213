// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package user

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/ecosystem/internal/log"
	"github.com/ManuGH/ecosystem/internal/problem"
)

const maxBodyBytes = 64 << 10

// Handler serves the user record and its profile.
type Handler struct {
	store *Store
	codec *Codec
}

// NewHandler creates a Handler.
func NewHandler(store *Store, codec *Codec) *Handler {
	return &Handler{store: store, codec: codec}
}

// Register mounts the routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.getUser)
	r.Patch("/", h.patchUser)
	r.Get("/profile", h.getProfile)
	r.Put("/profile", h.putProfile)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.store.User())
}

func (h *Handler) patchUser(w http.ResponseWriter, r *http.Request) {
	var up Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&up); err != nil {
		decodeProblem(w, r, err)
		return
	}
	u := h.store.Apply(up)
	logger := log.WithComponentFromContext(r.Context(), "userapi")
	logger.Info().
		Str(log.FieldEvent, "user.updated").
		Bool("age_changed", up.Age != nil).
		Bool("skills_changed", up.Skills != nil).
		Msg("user updated")
	writeJSON(w, r, u)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	body, err := h.codec.Marshal(h.store.Profile())
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "userapi")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "user.profile_encode_failed").
			Msg("failed to encode profile")
		problem.Internal(w, r, "user/profile_encode")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (h *Handler) putProfile(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		problem.BadRequest(w, r, "user/body_too_large", err.Error())
		return
	}
	p, err := h.codec.Unmarshal(body)
	if err != nil {
		decodeProblem(w, r, err)
		return
	}
	h.store.SetProfile(p)
	w.WriteHeader(http.StatusNoContent)
}

// decodeProblem maps malformed JSON to 400 and well-formed but invalid
// documents to 422.
func decodeProblem(w http.ResponseWriter, r *http.Request, err error) {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		problem.BadRequest(w, r, "user/malformed_json", err.Error())
		return
	}
	problem.Unprocessable(w, r, "user/invalid_body", err.Error())
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "userapi")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "user.encode_failed").
			Msg("failed to encode response")
	}
}
