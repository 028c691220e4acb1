package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"quant-terminal/internal/metrics"
	"quant-terminal/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

// CacheConfig configures the Redis bar cache.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Cache is a read-through bar cache in front of another Provider. Redis
// being down degrades to pass-through; it never fails a request.
type Cache struct {
	inner  Provider
	client *goredis.Client
	ttl    time.Duration
	log    *slog.Logger
	prom   *metrics.Metrics
}

// NewCache wraps a Provider with a Redis read-through layer. The connection
// is verified up front so a misconfigured address fails at startup, not on
// the first request.
func NewCache(inner Provider, cfg CacheConfig, log *slog.Logger, prom *metrics.Metrics) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{inner: inner, client: client, ttl: ttl, log: log, prom: prom}, nil
}

func cacheKey(ticker, period, interval string) string {
	return "bars:" + ticker + ":" + period + ":" + interval
}

// History serves from Redis when possible, otherwise from the inner provider
// with a best-effort write-back.
func (c *Cache) History(ctx context.Context, ticker, period, interval string) ([]model.Bar, error) {
	key := cacheKey(ticker, period, interval)

	data, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var bars []model.Bar
		if jsonErr := json.Unmarshal([]byte(data), &bars); jsonErr == nil && len(bars) > 0 {
			if c.prom != nil {
				c.prom.CacheHits.Inc()
			}
			return bars, nil
		}
		// Corrupt entry; drop it and fall through.
		c.client.Del(ctx, key)
	} else if err != goredis.Nil {
		c.log.Warn("bar cache read failed", "key", key, "err", err)
	}

	if c.prom != nil {
		c.prom.CacheMisses.Inc()
	}
	bars, err := c.inner.History(ctx, ticker, period, interval)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(bars); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.log.Warn("bar cache write failed", "key", key, "err", setErr)
		}
	}
	return bars, nil
}

// Client exposes the Redis handle for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

// Quote always goes to the inner provider; quotes are point-in-time.
func (c *Cache) Quote(ctx context.Context, ticker string) (model.Quote, error) {
	return c.inner.Quote(ctx, ticker)
}

// Close releases the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
