package middleware

import (
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/okonma/pressgate/internal/apierr"
	"github.com/okonma/pressgate/internal/metrics"
)

// GlobalLimiter is a process-wide token-bucket backstop in front of the
// per-client sliding window enforced inside the conversion pipeline. It
// protects the service as a whole; fairness between clients is not its job.
type GlobalLimiter struct {
	limiter *rate.Limiter
}

// NewGlobalLimiter creates a limiter admitting rps requests per second with
// the given burst.
func NewGlobalLimiter(rps float64, burst int) *GlobalLimiter {
	return &GlobalLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Limit returns a middleware handler that enforces the global limit.
func (gl *GlobalLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !gl.limiter.Allow() {
			metrics.RateLimitRefusals.WithLabelValues("global").Inc()
			apierr.WriteErrorWithContext(w, r, apierr.RateLimitGlobal())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client identity from the request, checking common
// proxy headers before falling back to the socket address.
func ClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs; take the first one. Proxies
	// commonly pad the list with spaces, so trim before using it as a key.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	// Strip the port from RemoteAddr
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}
