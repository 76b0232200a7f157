package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/okonma/pressgate/internal/cache"
	"github.com/okonma/pressgate/internal/logger"
)

// CacheAdminHandler handles cache administration endpoints.
type CacheAdminHandler struct {
	cache cache.Store
}

// NewCacheAdminHandler creates a new cache admin handler.
func NewCacheAdminHandler(c cache.Store) *CacheAdminHandler {
	return &CacheAdminHandler{cache: c}
}

// ClearCache removes all cached artifacts.
// POST /cache/clear
func (h *CacheAdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear()
	logger.InfoContext(r.Context(), "Artifact cache cleared")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"message": "Cache cleared successfully",
	})
}

// GetCacheStats returns current cache statistics.
// GET /cache/stats
func (h *CacheAdminHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	stats := h.cache.Stats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"entries":     stats.Entries,
		"capacity":    stats.Capacity,
		"size_bytes":  stats.SizeBytes,
		"ttl_seconds": int64(stats.TTL.Seconds()),
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"evictions":   stats.Evictions,
	})
}
