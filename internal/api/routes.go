// Package api wires the HTTP surface: routes, middleware chain, and the
// handler dependencies.
package api

import (
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okonma/pressgate/internal/api/handlers"
	"github.com/okonma/pressgate/internal/cache"
	"github.com/okonma/pressgate/internal/circuitbreaker"
	"github.com/okonma/pressgate/internal/config"
	"github.com/okonma/pressgate/internal/live"
	"github.com/okonma/pressgate/internal/middleware"
	"github.com/okonma/pressgate/internal/pipeline"
	"github.com/okonma/pressgate/internal/render"
	"github.com/okonma/pressgate/internal/stats"
	"github.com/okonma/pressgate/internal/sysstats"
)

// Deps collects everything the routes need.
type Deps struct {
	Config   *config.Config
	Pipeline *pipeline.Pipeline
	Cache    cache.Store
	Registry *stats.Registry
	Hub      *live.Hub
	Pool     *render.Pool
	Breaker  *circuitbreaker.CircuitBreaker
	Sampler  *sysstats.Sampler
	Started  time.Time
}

// NewRouter builds the full router with the middleware chain applied.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RecoverWithSentry)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(&middleware.CORSConfig{
		AllowedOrigins: d.Config.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Cache", "Content-Disposition", "X-Request-ID"},
		MaxAge:         300,
	}))
	if d.Config.EnableRateLimit {
		global := middleware.NewGlobalLimiter(d.Config.RateLimitGlobal, d.Config.RateLimitGlobalBurst)
		r.Use(global.Limit)
	}
	// Leave headroom over the document ceiling for the JSON envelope.
	r.Use(middleware.BodyLimit(d.Config.MaxInputBytes + 64*1024))
	r.Use(middleware.Instrument)
	r.Use(middleware.Compress)

	health := &handlers.HealthHandler{
		Cache:    d.Cache,
		Registry: d.Registry,
		Hub:      d.Hub,
		Pool:     d.Pool,
		Breaker:  d.Breaker,
		Sampler:  d.Sampler,
		Started:  d.Started,
	}
	cacheAdmin := handlers.NewCacheAdminHandler(d.Cache)

	r.HandleFunc("/", handlers.Root).Methods("GET")
	r.HandleFunc("/health", health.Health).Methods("GET")
	r.HandleFunc("/config", handlers.ShowConfig(d.Config)).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/convert", handlers.Convert(d.Pipeline)).Methods("POST")
	r.HandleFunc("/request-history", handlers.RequestHistory(d.Registry)).Methods("GET")

	r.HandleFunc("/cache/stats", cacheAdmin.GetCacheStats).Methods("GET")
	r.HandleFunc("/cache/clear", cacheAdmin.ClearCache).Methods("POST")

	r.Handle("/ws", live.NewHandler(d.Hub)).Methods("GET")

	return r
}
