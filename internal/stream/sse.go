// Package stream serves strategy runs over Server-Sent Events. Each run is
// re-expressed as the strategy's step sequence so the client can render
// incremental progress; the final event carries the complete result.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"quant-terminal/internal/logger"
	"quant-terminal/internal/marketdata"
	"quant-terminal/internal/metrics"
	"quant-terminal/internal/strategy"
)

// DefaultStepDelay paces non-final events so the client has time to animate
// between steps.
const DefaultStepDelay = 450 * time.Millisecond

// Handler streams strategy execution steps as SSE.
type Handler struct {
	provider marketdata.Provider
	registry *strategy.Registry
	delay    time.Duration
	log      *slog.Logger
	prom     *metrics.Metrics
}

// NewHandler builds the SSE handler. A delay <= 0 falls back to
// DefaultStepDelay; prom may be nil.
func NewHandler(provider marketdata.Provider, registry *strategy.Registry, delay time.Duration, log *slog.Logger, prom *metrics.Metrics) *Handler {
	if delay <= 0 {
		delay = DefaultStepDelay
	}
	return &Handler{provider: provider, registry: registry, delay: delay, log: log, prom: prom}
}

// ServeHTTP handles GET /api/v1/stream/run.
//
// Query params: ticker, strategy (required); period, interval, params
// (optional, params is a JSON object of overrides). Unknown-strategy and
// no-data conditions surface as SSE "error" events, not HTTP status codes:
// by the time they are known the event stream has already started.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ticker := strings.ToUpper(strings.TrimSpace(q.Get("ticker")))
	key := q.Get("strategy")
	if ticker == "" || key == "" {
		http.Error(w, `{"error":"ticker and strategy are required"}`, http.StatusBadRequest)
		return
	}
	period := q.Get("period")
	if period == "" {
		period = "6mo"
	}
	interval := q.Get("interval")
	if interval == "" {
		interval = "1d"
	}

	// Malformed params JSON is ignored; defaults apply.
	var overrides map[string]float64
	if raw := q.Get("params"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			overrides = nil
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	if h.prom != nil {
		h.prom.StreamClients.Inc()
		defer h.prom.StreamClients.Dec()
	}

	// One trace ID per streamed run ties fetch and step logs together.
	ctx := logger.WithTraceID(r.Context(), logger.GenerateTraceID(ticker, time.Now()))
	runLog := h.log.With(logger.LogWithTrace(ctx)...)

	// Validate the strategy before touching the data layer.
	if _, err := h.registry.Merged(key, nil); err != nil {
		h.writeEvent(w, flusher, "error", map[string]string{"error": fmt.Sprintf("Unknown strategy: %s", key)})
		return
	}

	bars, err := h.provider.History(ctx, ticker, period, interval)
	if err != nil {
		runLog.Warn("stream data fetch failed", "ticker", ticker, "err", err)
		h.writeEvent(w, flusher, "error", map[string]string{"error": fmt.Sprintf("No data for %s", ticker)})
		return
	}

	seq, err := h.registry.Steps(key, bars, overrides)
	if err != nil {
		h.writeEvent(w, flusher, "error", map[string]string{"error": fmt.Sprintf("Unknown strategy: %s", key)})
		return
	}

	for ev := range seq {
		if ctx.Err() != nil {
			return
		}
		eventType := "step"
		if ev.Final {
			eventType = "complete"
		}
		if !h.writeEvent(w, flusher, eventType, ev) {
			return
		}
		if !ev.Final {
			select {
			case <-ctx.Done():
				return
			case <-time.After(h.delay):
			}
		}
	}
}

// writeEvent frames and flushes one SSE event. Returns false when the
// payload cannot be serialized or the connection is gone.
func (h *Handler) writeEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("stream event marshal failed", "event", eventType, "err", err)
		return false
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data); err != nil {
		return false
	}
	flusher.Flush()
	if h.prom != nil {
		h.prom.StreamEventsTotal.WithLabelValues(eventType).Inc()
	}
	return true
}
