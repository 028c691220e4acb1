// cmd/server runs the quant strategy evaluation service: REST endpoints for
// strategy runs and backtests, SSE streaming of step-by-step execution, and
// a live quote WebSocket. Bars come from the SQLite store, optionally fronted
// by a Redis read-through cache.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quant-terminal/config"
	"quant-terminal/internal/api"
	"quant-terminal/internal/live"
	"quant-terminal/internal/logger"
	"quant-terminal/internal/marketdata"
	"quant-terminal/internal/metrics"
	"quant-terminal/internal/strategy"
	"quant-terminal/internal/stream"

	goredis "github.com/go-redis/redis/v8"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	cfg := config.Load()
	lg := logger.Init("quant-terminal", logger.ParseLevel(cfg.LogLevel))

	store, err := marketdata.OpenStore(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[server] sqlite open failed: %v", err)
	}
	defer store.Close()
	lg.Info("bar store opened", "path", cfg.SQLitePath)

	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.SetStoreOK(true)

	var provider marketdata.Provider = store
	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		cache, err := marketdata.NewCache(store, marketdata.CacheConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			TTL:      cfg.CacheTTL,
		}, lg, prom)
		if err != nil {
			log.Fatalf("[server] redis cache init failed: %v", err)
		}
		defer cache.Close()
		provider = cache
		rdb = cache.Client()
		health.SetCacheOK(true)
		lg.Info("bar cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	} else {
		// No cache configured means nothing to degrade on.
		health.SetCacheOK(true)
		lg.Info("bar cache disabled, serving straight from sqlite")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	health.StartLivenessChecker(ctx, rdb, store.DB(), 15*time.Second)

	registry := strategy.NewRegistry()
	handlers := api.NewHandlers(provider, registry, lg, prom)
	streamH := stream.NewHandler(provider, registry, cfg.StepDelay, lg, prom)
	liveH := live.NewHandler(provider, cfg.LivePollRate, lg, prom)
	mux := api.NewRouter(handlers, streamH, liveH)

	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.WithCORS(mux),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		lg.Info("api server listening", "addr", cfg.ListenAddr, "strategies", len(registry.List()))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[server] listen error: %v", err)
		}
	}()

	<-sigCh
	lg.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)
}
