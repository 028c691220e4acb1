package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the strategy engine.
type Metrics struct {
	RunsTotal      *prometheus.CounterVec // labels: strategy, outcome
	RunDuration    prometheus.Histogram
	BacktestsTotal *prometheus.CounterVec // labels: strategy, outcome

	// SSE stream metrics
	StreamClients     prometheus.Gauge
	StreamEventsTotal *prometheus.CounterVec // labels: event

	// Live quote WebSocket metrics
	LiveClients    prometheus.Gauge
	LiveQuotesSent prometheus.Counter

	// Bar cache effectiveness
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quant_runs_total",
			Help: "Strategy runs (by strategy key and outcome)",
		}, []string{"strategy", "outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quant_run_duration_seconds",
			Help:    "Strategy evaluation latency (data fetch excluded)",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		BacktestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quant_backtests_total",
			Help: "Backtest simulations (by strategy key and outcome)",
		}, []string{"strategy", "outcome"}),

		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quant_stream_clients",
			Help: "Currently connected SSE stream clients",
		}),
		StreamEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quant_stream_events_total",
			Help: "SSE events emitted (by event type)",
		}, []string{"event"}),

		LiveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quant_live_clients",
			Help: "Currently connected live quote WebSocket clients",
		}),
		LiveQuotesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quant_live_quotes_sent_total",
			Help: "Quote payloads pushed over live WebSockets",
		}),

		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quant_bar_cache_hits_total",
			Help: "Bar history requests served from Redis",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quant_bar_cache_misses_total",
			Help: "Bar history requests that fell through to the store",
		}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.BacktestsTotal,
		m.StreamClients,
		m.StreamEventsTotal,
		m.LiveClients,
		m.LiveQuotesSent,
		m.CacheHits,
		m.CacheMisses,
	)

	return m
}

// ComponentHealth is one probed dependency as reported on /healthz.
type ComponentHealth struct {
	OK        bool    `json:"ok"`
	LatencyMs float64 `json:"latency_ms"`

	// Bar store only: freshness of the canonical data.
	BarCount  int64  `json:"bar_count,omitempty"`
	LatestBar string `json:"latest_bar,omitempty"`
}

// HealthStatus tracks the two dependencies the engine cares about. The bar
// store is the canonical source and decides up or down; the bar cache only
// decides healthy versus degraded.
type HealthStatus struct {
	mu          sync.RWMutex
	store       ComponentHealth
	cache       ComponentHealth
	lastCheckAt time.Time
	startedAt   time.Time
}

// NewHealthStatus returns a status with both components unprobed.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{startedAt: time.Now()}
}

// SetStoreOK records the bar store state outside the probe loop, typically
// right after startup succeeds.
func (h *HealthStatus) SetStoreOK(v bool) {
	h.mu.Lock()
	h.store.OK = v
	h.mu.Unlock()
}

// SetCacheOK records the bar cache state outside the probe loop.
func (h *HealthStatus) SetCacheOK(v bool) {
	h.mu.Lock()
	h.cache.OK = v
	h.mu.Unlock()
}

// ProbeCache pings the Redis bar cache and records reachability and latency.
func (h *HealthStatus) ProbeCache(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	elapsed := time.Since(start)

	h.mu.Lock()
	h.cache.OK = err == nil
	h.cache.LatencyMs = float64(elapsed.Microseconds()) / 1000.0
	h.lastCheckAt = time.Now()
	h.mu.Unlock()
}

// ProbeStore checks the bar store and reports data freshness along with
// reachability: how many bars are held and the newest bar date across all
// tickers. An empty store is reachable but visibly stale.
func (h *HealthStatus) ProbeStore(ctx context.Context, db *sql.DB) {
	start := time.Now()
	var count int64
	var latest string
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(MAX(date), '') FROM bars`).Scan(&count, &latest)
	elapsed := time.Since(start)

	h.mu.Lock()
	h.store.OK = err == nil
	h.store.LatencyMs = float64(elapsed.Microseconds()) / 1000.0
	h.store.BarCount = count
	h.store.LatestBar = latest
	h.lastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker probes the wired dependencies on a fixed interval
// until ctx is cancelled. Either handle may be nil (cache disabled, store
// probing handled elsewhere).
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, db *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.ProbeCache(probeCtx, rdb)
				}
				if db != nil {
					h.ProbeStore(probeCtx, db)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// Losing the cache degrades; losing the store takes the service down.
	overall := "healthy"
	code := http.StatusOK
	if !h.cache.OK {
		overall = "degraded"
	}
	if !h.store.OK {
		overall = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	payload := struct {
		Status      string                     `json:"status"`
		Uptime      string                     `json:"uptime"`
		Components  map[string]ComponentHealth `json:"components"`
		LastCheckAt string                     `json:"last_check_at"`
	}{
		Status: overall,
		Uptime: time.Since(h.startedAt).Round(time.Second).String(),
		Components: map[string]ComponentHealth{
			"bar_store": h.store,
			"bar_cache": h.cache,
		},
		LastCheckAt: h.lastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(payload)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
