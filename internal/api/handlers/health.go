package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/okonma/pressgate/internal/cache"
	"github.com/okonma/pressgate/internal/circuitbreaker"
	"github.com/okonma/pressgate/internal/live"
	"github.com/okonma/pressgate/internal/render"
	"github.com/okonma/pressgate/internal/stats"
	"github.com/okonma/pressgate/internal/sysstats"
)

// Root returns the liveness payload served at GET /.
func Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"message": "HTML to PDF API is running",
		"status":  "healthy",
	})
}

// HealthHandler serves the detailed health snapshot.
type HealthHandler struct {
	Cache    cache.Store
	Registry *stats.Registry
	Hub      *live.Hub
	Pool     *render.Pool
	Breaker  *circuitbreaker.CircuitBreaker
	Sampler  *sysstats.Sampler
	Started  time.Time
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	cs := h.Cache.Stats()
	counters := h.Registry.Snapshot()

	payload := map[string]interface{}{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(h.Started).Seconds()),
		"counters":       counters,
		"cache": map[string]interface{}{
			"entries":     cs.Entries,
			"capacity":    cs.Capacity,
			"size_bytes":  cs.SizeBytes,
			"ttl_seconds": int64(cs.TTL.Seconds()),
			"hits":        cs.Hits,
			"misses":      cs.Misses,
			"evictions":   cs.Evictions,
		},
		"render_pool": map[string]interface{}{
			"busy_workers": h.Pool.Busy(),
		},
		"websocket_subscribers": h.Hub.Subscribers(),
		"circuit_breaker":       breakerStateName(h.Breaker.GetState()),
	}

	if h.Sampler != nil {
		payload["system"] = h.Sampler.Current()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}

func breakerStateName(s circuitbreaker.State) string {
	switch s {
	case circuitbreaker.StateOpen:
		return "open"
	case circuitbreaker.StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}
