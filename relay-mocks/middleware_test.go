package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_CountsAndDuplicates(t *testing.T) {
	tr := newTracker(slog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /always-success", alwaysSuccessHandler)
	mux.HandleFunc("GET /stats", tr.statsHandler)
	handler := loggingMiddleware(slog.Default(), tr.middleware(mux))

	for _, key := range []string{"pk_1", "pk_2", "pk_1"} {
		req := httptest.NewRequest(http.MethodPost, "/always-success",
			strings.NewReader(`{"payment_key":"`+key+`","status":"success"}`))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"success":true}`, rr.Body.String())
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stats", nil))

	var stats struct {
		Counts     map[string]int `json:"counts"`
		Duplicates map[string]int `json:"duplicates"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Counts["/always-success"])
	assert.Equal(t, map[string]int{"pk_1": 1}, stats.Duplicates)
}

func TestAlwaysFail(t *testing.T) {
	rr := httptest.NewRecorder()
	alwaysFailHandler(rr, httptest.NewRequest(http.MethodPost, "/always-fail", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rr.Body.String())
}
