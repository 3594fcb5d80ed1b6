package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewServer собирает роутер API с middleware.
func NewServer(log *slog.Logger, h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/entries", h.getEntries)
	mux.HandleFunc("GET /api/health", h.healthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = loggingMiddleware(log)(handler)
	handler = requestIDMiddleware(handler)
	handler = corsMiddleware(handler)
	return handler
}
