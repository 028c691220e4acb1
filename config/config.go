package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// HTTP surfaces
	ListenAddr  string
	MetricsAddr string

	// Infrastructure
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	// Streaming knobs
	StepDelay    time.Duration
	LivePollRate time.Duration

	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
// REDIS_ADDR may be empty; the service then runs without the bar cache.
func Load() *Config {
	return &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		SQLitePath:    getEnv("SQLITE_PATH", "data/bars.db"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 300)) * time.Second,

		StepDelay:    time.Duration(getEnvInt("STEP_DELAY_MS", 450)) * time.Millisecond,
		LivePollRate: time.Duration(getEnvInt("LIVE_POLL_SECONDS", 5)) * time.Second,

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
