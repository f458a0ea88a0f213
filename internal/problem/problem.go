// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package problem renders RFC 7807 problem details responses.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/ecosystem/internal/log"
)

const (
	// HeaderRequestID is the response header carrying the request id.
	HeaderRequestID = "X-Request-ID"
	// JSONKeyRequestID is the problem body key carrying the request id.
	JSONKeyRequestID = "requestId"
)

// Write writes an RFC 7807 problem details response.
//
// Semantics:
//   - type: machine identifier (e.g. "shortener/not_found").
//   - title: short human-readable label (e.g. "Not Found").
//   - code: stable machine-readable code (e.g. "NOT_FOUND").
//   - detail: explanation of this specific occurrence.
func Write(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string, extra map[string]any) {
	instance := ""
	reqID := ""
	if r != nil {
		instance = r.URL.EscapedPath()
		reqID = log.RequestIDFromContext(r.Context())
	}
	if reqID == "" {
		reqID = w.Header().Get(HeaderRequestID)
	}

	res := map[string]any{
		"type":   problemType,
		"title":  title,
		"status": status,
		"code":   code,
	}
	if reqID != "" {
		res[JSONKeyRequestID] = reqID
	}
	if detail != "" {
		res["detail"] = detail
	}
	if instance != "" {
		res["instance"] = instance
	}

	for k, v := range extra {
		switch k {
		case "type", "title", "status", "detail", "instance", "code":
			log.L().Warn().
				Str(log.FieldEvent, "problem.reserved_key").
				Str("key", k).
				Str("problem_type", problemType).
				Msg("ignoring reserved key in problem extras")
			continue
		}
		res[k] = v
	}

	if reqID != "" {
		w.Header().Set(HeaderRequestID, reqID)
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.L().Error().
			Err(err).
			Str(log.FieldEvent, "problem.encode_failed").
			Str("type", problemType).
			Int("status", status).
			Msg("failed to encode problem response")
	}
}

// NotFound writes a 404 problem.
func NotFound(w http.ResponseWriter, r *http.Request, problemType, detail string) {
	Write(w, r, http.StatusNotFound, problemType, "Not Found", "NOT_FOUND", detail, nil)
}

// Unprocessable writes a 422 problem.
func Unprocessable(w http.ResponseWriter, r *http.Request, problemType, detail string) {
	Write(w, r, http.StatusUnprocessableEntity, problemType, "Unprocessable Entity", "UNPROCESSABLE", detail, nil)
}

// BadRequest writes a 400 problem.
func BadRequest(w http.ResponseWriter, r *http.Request, problemType, detail string) {
	Write(w, r, http.StatusBadRequest, problemType, "Bad Request", "BAD_REQUEST", detail, nil)
}

// Internal writes a 500 problem without leaking the underlying error.
func Internal(w http.ResponseWriter, r *http.Request, problemType string) {
	Write(w, r, http.StatusInternalServerError, problemType, "Internal Server Error", "INTERNAL", "", nil)
}
