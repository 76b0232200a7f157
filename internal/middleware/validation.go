package middleware

import (
	"net/http"
)

// BodyLimit returns a middleware that caps request body size for methods
// that carry one. The limit should sit above the configured document size
// ceiling so the pipeline, not the transport, produces the rejection.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
