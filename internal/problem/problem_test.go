// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package problem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/ecosystem/internal/log"
)

func TestWrite_IncludesRequestIDAndInstance(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/abc123", nil)
	req = req.WithContext(log.ContextWithRequestID(req.Context(), "req-1"))
	rec := httptest.NewRecorder()

	NotFound(rec, req, "shortener/not_found", "no such id")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "req-1", rec.Header().Get(HeaderRequestID))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "shortener/not_found", body["type"])
	assert.Equal(t, "NOT_FOUND", body["code"])
	assert.Equal(t, "no such id", body["detail"])
	assert.Equal(t, "/abc123", body["instance"])
	assert.Equal(t, "req-1", body[JSONKeyRequestID])
	assert.EqualValues(t, 404, body["status"])
}

func TestWrite_ReservedExtrasIgnored(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()

	Write(rec, req, http.StatusUnprocessableEntity, "t", "Title", "C", "", map[string]any{
		"status": 999,
		"field":  "url",
	})

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 422, body["status"])
	assert.Equal(t, "url", body["field"])
	_, hasDetail := body["detail"]
	assert.False(t, hasDetail)
}
