package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/okonma/pressgate/internal/apierr"
	"github.com/okonma/pressgate/internal/stats"
)

// RequestHistory returns the handler for GET /request-history. Records come
// back oldest first; ?limit=N keeps only the N most recent.
func RequestHistory(registry *stats.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records := registry.History()

		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 0 {
				apierr.WriteErrorWithContext(w, r, apierr.New(apierr.ErrValidationInvalidParam,
					"limit must be a non-negative integer", http.StatusBadRequest))
				return
			}
			if limit < len(records) {
				records = records[len(records)-limit:]
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"count":    len(records),
			"max":      registry.MaxHistory(),
			"requests": records,
		})
	}
}
