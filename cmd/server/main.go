package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okonma/pressgate/internal/api"
	"github.com/okonma/pressgate/internal/cache"
	"github.com/okonma/pressgate/internal/circuitbreaker"
	"github.com/okonma/pressgate/internal/config"
	"github.com/okonma/pressgate/internal/errorreporting"
	"github.com/okonma/pressgate/internal/live"
	"github.com/okonma/pressgate/internal/logger"
	"github.com/okonma/pressgate/internal/pipeline"
	"github.com/okonma/pressgate/internal/ratelimit"
	"github.com/okonma/pressgate/internal/render"
	"github.com/okonma/pressgate/internal/scheduler"
	"github.com/okonma/pressgate/internal/stats"
	"github.com/okonma/pressgate/internal/sysstats"
	"github.com/okonma/pressgate/internal/tracing"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found (falling back to system env)")
	}

	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	if err := errorreporting.Init(cfg.SentryEnvironment); err != nil {
		logger.Warn("Sentry init failed, continuing without error reporting", "error", err)
	}
	defer errorreporting.Flush(2 * time.Second)

	shutdownTracing, err := tracing.Init("pressgate")
	if err != nil {
		logger.Warn("Tracing init failed, continuing without traces", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	renderer, err := buildRenderer(cfg)
	if err != nil {
		logger.Error("Render engine configuration invalid", "error", err)
		os.Exit(1)
	}

	store := cache.NewContent(cfg.CacheCapacity, cfg.CacheTTL)
	registry := stats.NewRegistry(cfg.MaxHistory)

	hub := live.NewHub()
	go hub.Run(ctx)

	sampler := sysstats.NewSampler(cfg.SampleInterval, hub)
	go sampler.Start(ctx)

	pool := render.NewPool(renderer, cfg.RenderWorkers)
	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:             "render-engine",
		FailureThreshold: cfg.BreakerFailures,
		Timeout:          cfg.BreakerTimeout,
	})

	var limiter *ratelimit.SlidingWindow
	if cfg.EnableRateLimit {
		limiter = ratelimit.NewSlidingWindow(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	}

	opts := pipeline.Options{
		Cache:         store,
		Pool:          pool,
		Breaker:       breaker,
		Registry:      registry,
		Hub:           hub,
		Probe:         sampler,
		MaxInputBytes: cfg.MaxInputBytes,
		RenderTimeout: cfg.RenderTimeout,
	}
	if limiter != nil {
		opts.Limiter = limiter
	}
	pipe := pipeline.New(opts)

	sched := scheduler.NewService()
	if limiter != nil {
		if err := sched.Register("limiter-sweep", cfg.SweepSchedule, func(context.Context) {
			limiter.Sweep()
		}); err != nil {
			logger.Error("Invalid sweep schedule", "error", err)
			os.Exit(1)
		}
	}
	if err := sched.Register("memory-reclaim", cfg.ReclaimSchedule, func(context.Context) {
		debug.FreeOSMemory()
	}); err != nil {
		logger.Error("Invalid reclaim schedule", "error", err)
		os.Exit(1)
	}
	go sched.Start(ctx)

	router := api.NewRouter(api.Deps{
		Config:   cfg,
		Pipeline: pipe,
		Cache:    store,
		Registry: registry,
		Hub:      hub,
		Pool:     pool,
		Breaker:  breaker,
		Sampler:  sampler,
		Started:  time.Now(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server listening",
			"port", cfg.Port,
			"engine", cfg.RenderEngine,
			"workers", cfg.RenderWorkers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown did not finish cleanly", "error", err)
	}

	sched.Stop()
	sampler.Stop()
	hub.Stop()
	pool.Stop()

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Trace exporter shutdown failed", "error", err)
	}
}

// buildRenderer selects the engine adapter from configuration.
func buildRenderer(cfg *config.Config) (render.Renderer, error) {
	switch cfg.RenderEngine {
	case "http":
		if cfg.RenderURL == "" {
			return nil, fmt.Errorf("RENDER_ENGINE_URL is required when RENDER_ENGINE=http")
		}
		return render.NewHTTP(cfg.RenderURL, cfg.RenderMaxTries), nil
	case "command", "":
		return render.NewCommand(cfg.RenderCommand)
	default:
		return nil, fmt.Errorf("unknown render engine %q (want \"command\" or \"http\")", cfg.RenderEngine)
	}
}
