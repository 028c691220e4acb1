// Package api provides the HTTP handlers for the strategy engine.
package api

import (
	"log/slog"
	"net/http"

	"quant-terminal/internal/marketdata"
	"quant-terminal/internal/metrics"
	"quant-terminal/internal/strategy"
)

// Handlers bundles the dependencies behind the HTTP surface.
type Handlers struct {
	provider marketdata.Provider
	registry *strategy.Registry
	log      *slog.Logger
	prom     *metrics.Metrics
}

// NewHandlers builds the handler set; prom may be nil.
func NewHandlers(provider marketdata.Provider, registry *strategy.Registry, log *slog.Logger, prom *metrics.Metrics) *Handlers {
	return &Handlers{provider: provider, registry: registry, log: log, prom: prom}
}

// NewRouter sets up HTTP routes for the API server. The SSE stream and live
// WebSocket handlers are passed in so their pacing knobs stay with their
// own packages.
func NewRouter(h *Handlers, stream, live http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("GET /api/v1/strategies", h.listStrategies)
	mux.HandleFunc("POST /api/v1/run", h.runStrategy)
	mux.HandleFunc("POST /api/v1/backtest", h.runBacktest)
	mux.Handle("GET /api/v1/stream/run", stream)
	mux.Handle("GET /api/v1/ws/live/{ticker}", live)

	return mux
}

// WithCORS allows the browser frontend to call the API from another origin.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
