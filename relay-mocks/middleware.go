package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
)

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	body   *bytes.Buffer
}

func (lrw *loggingResponseWriter) WriteHeader(status int) {
	lrw.status = status
	lrw.ResponseWriter.WriteHeader(status)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	lrw.body.Write(b)
	return lrw.ResponseWriter.Write(b)
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var requestBody bytes.Buffer
		body, err := io.ReadAll(io.TeeReader(r.Body, &requestBody))
		if err != nil {
			logger.Error("Error reading request body", "error", err)
		}
		r.Body = io.NopCloser(&requestBody)

		lrw := &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK, body: &bytes.Buffer{}}
		next.ServeHTTP(lrw, r)

		logger.Info("Relay received",
			"path", r.URL.Path,
			"requestBody", string(body),
			"status", lrw.status,
			"responseBody", lrw.body.String())
	})
}

// tracker counts calls per endpoint and notices payment keys relayed more
// than once to the same endpoint.
type tracker struct {
	mu         sync.Mutex
	counts     map[string]int
	seen       map[string]bool
	duplicates map[string]int
	logger     *slog.Logger
}

func newTracker(logger *slog.Logger) *tracker {
	return &tracker{
		counts:     make(map[string]int),
		seen:       make(map[string]bool),
		duplicates: make(map[string]int),
		logger:     logger,
	}
}

func (t *tracker) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		var notification struct {
			PaymentKey string `json:"payment_key"`
		}
		_ = json.Unmarshal(body, &notification)

		t.mu.Lock()
		t.counts[r.URL.Path]++
		count := t.counts[r.URL.Path]
		duplicate := false
		if notification.PaymentKey != "" {
			key := r.URL.Path + "|" + notification.PaymentKey
			if t.seen[key] {
				t.duplicates[notification.PaymentKey]++
				duplicate = true
			}
			t.seen[key] = true
		}
		t.mu.Unlock()

		if duplicate {
			t.logger.Warn("Duplicate payment key", "path", r.URL.Path, "paymentKey", notification.PaymentKey)
		}
		t.logger.Debug("Endpoint called", "path", r.URL.Path, "count", count)

		next.ServeHTTP(w, r)
	})
}

func (t *tracker) statsHandler(w http.ResponseWriter, _ *http.Request) {
	t.mu.Lock()
	defer t.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"counts":     t.counts,
		"duplicates": t.duplicates,
	})
}
