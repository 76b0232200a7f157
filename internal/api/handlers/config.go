package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/okonma/pressgate/internal/config"
	"github.com/okonma/pressgate/internal/secrets"
)

// ShowConfig returns the handler for GET /config. Secret-bearing values are
// masked before they leave the process.
func ShowConfig(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]interface{}{
			"port": cfg.Port,
			"conversion": map[string]interface{}{
				"max_input_bytes":   cfg.MaxInputBytes,
				"render_timeout_ms": cfg.RenderTimeout.Milliseconds(),
				"workers":           cfg.RenderWorkers,
				"engine":            cfg.RenderEngine,
				"command":           cfg.RenderCommand,
				"engine_url":        secrets.MaskURL(cfg.RenderURL),
				"http_max_retries":  cfg.RenderMaxTries,
			},
			"cache": map[string]interface{}{
				"capacity":    cfg.CacheCapacity,
				"ttl_seconds": int64(cfg.CacheTTL.Seconds()),
			},
			"rate_limit": map[string]interface{}{
				"enabled":        cfg.EnableRateLimit,
				"max_requests":   cfg.RateLimitMaxRequests,
				"window_seconds": int64(cfg.RateLimitWindow.Seconds()),
				"global_rps":     cfg.RateLimitGlobal,
				"global_burst":   cfg.RateLimitGlobalBurst,
			},
			"history": map[string]interface{}{
				"max_records": cfg.MaxHistory,
			},
			"sampling": map[string]interface{}{
				"interval_ms": cfg.SampleInterval.Milliseconds(),
			},
			"circuit_breaker": map[string]interface{}{
				"failure_threshold": cfg.BreakerFailures,
				"timeout_ms":        cfg.BreakerTimeout.Milliseconds(),
			},
			"cors_allowed_origins": cfg.CORSAllowedOrigins,
			"log_level":            cfg.LogLevel,
			"sentry_dsn":           secrets.Mask(cfg.SentryDSN),
			"otel_enabled":         cfg.OTELEnabled,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(payload)
	}
}
