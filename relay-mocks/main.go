// Command relay-mocks runs stand-in relay targets for local testing.
package main

import (
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"time"
)

const (
	errorRate   = 0.5
	contentType = "application/json"
)

type RelayResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "relay-mocks")

	addr := ":8085"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	tracker := newTracker(logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /always-success", alwaysSuccessHandler)
	mux.HandleFunc("POST /success-delayed", successDelayedHandler)
	mux.HandleFunc("POST /always-fail", alwaysFailHandler)
	mux.HandleFunc("POST /random-fail", randomFailHandler)
	mux.HandleFunc("GET /stats", tracker.statsHandler)

	logger.Info("Relay mocks listening", "addr", addr)
	if err := http.ListenAndServe(addr, loggingMiddleware(logger, tracker.middleware(mux))); err != nil {
		logger.Error("Relay mocks stopped", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func alwaysSuccessHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RelayResponse{Success: true})
}

func successDelayedHandler(w http.ResponseWriter, r *http.Request) {
	delay := time.Duration(3+rand.IntN(6)) * time.Second
	select {
	case <-time.After(delay):
	case <-r.Context().Done():
		return
	}
	writeJSON(w, http.StatusOK, RelayResponse{Success: true})
}

func alwaysFailHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
}

func randomFailHandler(w http.ResponseWriter, _ *http.Request) {
	if rand.Float64() < errorRate {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}
	writeJSON(w, http.StatusOK, RelayResponse{Success: true})
}
