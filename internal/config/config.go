package config

import (
	"os"
	"strings"
	"time"

	"github.com/okonma/pressgate/internal/logger"
	"github.com/okonma/pressgate/internal/utils"
)

// Config holds application configuration. Values come from an optional YAML
// file (CONFIG_FILE) overridden by environment variables; loaded once at
// startup, never hot-reloaded.
type Config struct {
	Port int
	// Conversion pipeline
	MaxInputBytes  int64
	RenderTimeout  time.Duration
	RenderWorkers  int
	RenderEngine   string // "command" or "http"
	RenderCommand  string
	RenderURL      string
	RenderMaxTries int
	// Artifact cache
	CacheCapacity int
	CacheTTL      time.Duration
	// Per-client sliding window
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
	EnableRateLimit      bool
	RateLimitGlobal      float64 // requests per second across all clients
	RateLimitGlobalBurst int
	// Request history
	MaxHistory int
	// Metrics sampling and housekeeping
	SampleInterval  time.Duration
	SweepSchedule   string
	ReclaimSchedule string
	// Circuit breaker around the render engine
	BreakerFailures int
	BreakerTimeout  time.Duration
	// HTTP surface
	CORSAllowedOrigins []string
	// Observability
	LogLevel          string
	OTELEnabled       bool
	OTELEndpoint      string
	OTELSampleRate    float64
	SentryDSN         string
	SentryEnvironment string
	SentryRelease     string
}

var cached *Config

// Load reads the config file (if any) and env vars once and caches the result.
func Load() *Config {
	if cached != nil {
		return cached
	}

	file, err := loadFile(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
	if err != nil {
		// A broken config file should not take the service down; env vars
		// and defaults still apply.
		logger.Warn("Ignoring config file", "error", err)
		file = &fileConfig{}
	}

	cached = &Config{
		Port:          utils.GetEnvAsInt("PORT", orInt(file.Server.Port, 8000)),
		MaxInputBytes: utils.GetEnvAsInt64("MAX_INPUT_BYTES", orInt64(file.Conversion.MaxInputBytes, 2*1024*1024)),
		RenderTimeout: time.Duration(utils.GetEnvAsInt("RENDER_TIMEOUT_MS", orInt(file.Conversion.RenderTimeoutMS, 30000))) * time.Millisecond,
		RenderWorkers: utils.GetEnvAsInt("RENDER_WORKERS", orInt(file.Conversion.Workers, 4)),
		RenderEngine:  strings.ToLower(orString(trimmedEnv("RENDER_ENGINE"), orString(file.Conversion.Engine, "command"))),
		RenderCommand: orString(trimmedEnv("RENDER_COMMAND"), orString(file.Conversion.Command, "weasyprint - -")),
		RenderURL:     orString(trimmedEnv("RENDER_ENGINE_URL"), file.Conversion.EngineURL),
		// Retries belong to the HTTP engine adapter only; 1 means a single
		// attempt, i.e. no retry.
		RenderMaxTries: utils.GetEnvAsInt("RENDER_HTTP_MAX_RETRIES", orInt(file.Conversion.HTTPMaxRetries, 1)),

		CacheCapacity: utils.GetEnvAsInt("CACHE_CAPACITY", orInt(file.Cache.Capacity, 100)),
		CacheTTL:      time.Duration(utils.GetEnvAsInt("CACHE_TTL_SECONDS", orInt(file.Cache.TTLSeconds, 3600))) * time.Second,

		RateLimitMaxRequests: utils.GetEnvAsInt("RATE_LIMIT_MAX_REQUESTS", orInt(file.RateLimit.MaxRequests, 60)),
		RateLimitWindow:      time.Duration(utils.GetEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", orInt(file.RateLimit.WindowSeconds, 60))) * time.Second,
		EnableRateLimit:      utils.GetEnvAsBool("ENABLE_RATE_LIMIT", true),
		RateLimitGlobal:      utils.GetEnvAsFloat("RATE_LIMIT_GLOBAL", orFloat(file.RateLimit.GlobalRPS, 100.0)),
		RateLimitGlobalBurst: utils.GetEnvAsInt("RATE_LIMIT_GLOBAL_BURST", orInt(file.RateLimit.GlobalBurst, 200)),

		MaxHistory: utils.GetEnvAsInt("HISTORY_MAX", orInt(file.History.MaxRecords, 100)),

		SampleInterval:  time.Duration(utils.GetEnvAsInt("SAMPLE_INTERVAL_MS", orInt(file.Sampling.IntervalMS, 2000))) * time.Millisecond,
		SweepSchedule:   orString(trimmedEnv("SWEEP_INTERVAL"), "@every 1m"),
		ReclaimSchedule: orString(trimmedEnv("RECLAIM_INTERVAL"), "@every 5m"),

		BreakerFailures: utils.GetEnvAsInt("BREAKER_FAILURES", 5),
		BreakerTimeout:  time.Duration(utils.GetEnvAsInt("BREAKER_TIMEOUT_MS", 60000)) * time.Millisecond,

		CORSAllowedOrigins: utils.GetEnvAsSlice("CORS_ALLOWED_ORIGINS",
			[]string{"http://localhost:5173", "http://localhost:3000"}, ","),

		LogLevel:          strings.ToLower(orString(trimmedEnv("LOG_LEVEL"), "info")),
		OTELEnabled:       utils.GetEnvAsBool("OTEL_ENABLED", false),
		OTELEndpoint:      trimmedEnv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTELSampleRate:    utils.GetEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0.1),
		SentryDSN:         trimmedEnv("SENTRY_DSN"),
		SentryEnvironment: trimmedEnv("SENTRY_ENVIRONMENT"),
		SentryRelease:     trimmedEnv("SENTRY_RELEASE"),
	}

	if cached.SentryEnvironment == "" {
		if env := os.Getenv("ENV"); env != "" {
			cached.SentryEnvironment = env
		} else {
			cached.SentryEnvironment = "development"
		}
	}

	return cached
}

// ResetForTest clears cached config; for use in tests only.
func ResetForTest() { cached = nil }

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func orInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

func orInt64(v, def int64) int64 {
	if v != 0 {
		return v
	}
	return def
}

func orFloat(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}

func orString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
