package http

import (
	"log/slog"
	"net/http"
)

// NewRouter creates the HTTP router with all routes
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", h.Health)

	// Daily summaries
	mux.HandleFunc("GET /summaries/{symbol}", h.ListSummaries)
	mux.HandleFunc("GET /summaries/{symbol}/{date}", h.GetSummary)
	mux.HandleFunc("POST /summaries/{symbol}/{date}/close", h.CloseDay)

	// Ingestion jobs
	mux.HandleFunc("GET /jobs", h.ListJobs)
	mux.HandleFunc("GET /jobs/{id}", h.GetJob)

	// Metrics
	mux.HandleFunc("GET /metrics", h.GetMetrics)

	// Apply middleware chain (order matters: outer -> inner)
	var handler http.Handler = mux
	handler = ContentTypeMiddleware(handler)
	handler = CORSMiddleware(handler)
	handler = RecoveryMiddleware(logger)(handler)
	handler = LoggingMiddleware(logger)(handler)

	return handler
}
