// Package pipeline sequences a conversion request through validation,
// admission control, the cache, and the render pool, and records the outcome
// in the stats registry and the live feed. Handlers translate its errors to
// HTTP; the pipeline itself knows nothing about transport.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/okonma/pressgate/internal/cache"
	"github.com/okonma/pressgate/internal/circuitbreaker"
	"github.com/okonma/pressgate/internal/errorreporting"
	"github.com/okonma/pressgate/internal/logger"
	"github.com/okonma/pressgate/internal/metrics"
	"github.com/okonma/pressgate/internal/stats"
	"github.com/okonma/pressgate/internal/tracing"
)

// Request carries one conversion through the pipeline.
type Request struct {
	Input    string
	ClientID string
	// UseCache gates both the lookup and the write-back. A bypassed request
	// neither reads nor populates the cache.
	UseCache bool
}

// Result is a completed conversion.
type Result struct {
	Artifact    []byte
	CacheHit    bool
	Duration    time.Duration
	Fingerprint string
}

// Limiter is the per-client admission check.
type Limiter interface {
	Allow(clientID string) bool
}

// Offloader executes a render on the worker pool, bounded by ctx.
type Offloader interface {
	Do(ctx context.Context, input string) ([]byte, error)
}

// Publisher receives outcome events; satisfied by the live hub.
type Publisher interface {
	Publish(eventType string, payload any)
}

// ResourceProbe reads the process resource figures attached to records.
type ResourceProbe interface {
	Probe() stats.ResourceUsage
}

// Options configures a Pipeline. Limiter, Hub, and Probe may be nil to
// disable the respective concern.
type Options struct {
	Cache         cache.Store
	Limiter       Limiter
	Pool          Offloader
	Breaker       *circuitbreaker.CircuitBreaker
	Registry      *stats.Registry
	Hub           Publisher
	Probe         ResourceProbe
	MaxInputBytes int64
	RenderTimeout time.Duration
}

// Pipeline orchestrates conversions. Safe for concurrent use.
type Pipeline struct {
	opts Options
}

// New creates a pipeline from opts.
func New(opts Options) *Pipeline {
	return &Pipeline{opts: opts}
}

// Convert runs req through the full flow. The render phase is bounded by the
// configured timeout on top of whatever deadline ctx already carries.
//
// Errors returned are: ErrEmptyInput and *InputTooLargeError for validation,
// ErrRateLimited for admission, circuitbreaker.ErrCircuitOpen when the
// engine is quarantined, context.DeadlineExceeded when the render outlived
// its budget, and *RenderError for engine failures.
func (p *Pipeline) Convert(ctx context.Context, req Request) (*Result, error) {
	p.opts.Registry.IncTotal()

	if strings.TrimSpace(req.Input) == "" {
		p.opts.Registry.IncRejected()
		return nil, ErrEmptyInput
	}
	if p.opts.MaxInputBytes > 0 && int64(len(req.Input)) > p.opts.MaxInputBytes {
		p.opts.Registry.IncRejected()
		return nil, &InputTooLargeError{Size: int64(len(req.Input)), Limit: p.opts.MaxInputBytes}
	}

	// Refusals are cheap and leave no history record.
	if p.opts.Limiter != nil && !p.opts.Limiter.Allow(req.ClientID) {
		p.opts.Registry.IncRateLimited()
		return nil, ErrRateLimited
	}

	start := time.Now()
	before := p.probe()
	fingerprint := cache.Fingerprint(req.Input)

	if req.UseCache {
		if artifact, ok := p.opts.Cache.Get(req.Input); ok {
			p.opts.Registry.IncCacheHit()
			p.opts.Registry.IncSucceeded()

			res := &Result{
				Artifact:    artifact,
				CacheHit:    true,
				Duration:    time.Since(start),
				Fingerprint: fingerprint,
			}
			p.record(req, res.Duration, stats.StatusCached, len(artifact), before, "")
			return res, nil
		}
		p.opts.Registry.IncCacheMiss()
	}

	rctx, span := tracing.StartSpan(ctx, "pipeline.render")
	defer span.End()

	var cancel context.CancelFunc
	if p.opts.RenderTimeout > 0 {
		rctx, cancel = context.WithTimeout(rctx, p.opts.RenderTimeout)
		defer cancel()
	}

	var artifact []byte
	renderFn := func() error {
		var err error
		artifact, err = p.opts.Pool.Do(rctx, req.Input)
		return err
	}

	var err error
	if p.opts.Breaker != nil {
		err = p.opts.Breaker.Call(renderFn)
	} else {
		err = renderFn()
	}

	duration := time.Since(start)

	if err != nil {
		p.opts.Registry.IncFailed()
		p.record(req, duration, stats.StatusFailed, 0, before, err.Error())

		switch {
		case errors.Is(err, circuitbreaker.ErrCircuitOpen):
			return nil, err
		case errors.Is(err, context.DeadlineExceeded):
			logger.WarnContext(ctx, "Render exceeded its deadline",
				"duration_ms", duration.Milliseconds(),
				"input_bytes", len(req.Input))
			return nil, context.DeadlineExceeded
		case errors.Is(err, context.Canceled):
			return nil, err
		default:
			logger.ErrorContext(ctx, "Render failed", "error", err,
				"input_bytes", len(req.Input))
			errorreporting.CaptureErrorWithContext(err,
				map[string]string{"component": "pipeline"},
				map[string]interface{}{"input_bytes": len(req.Input)})
			return nil, &RenderError{Err: err}
		}
	}

	if req.UseCache {
		p.opts.Cache.Put(req.Input, artifact)
	}
	p.opts.Registry.IncSucceeded()

	res := &Result{
		Artifact:    artifact,
		Duration:    duration,
		Fingerprint: fingerprint,
	}
	p.record(req, duration, stats.StatusSuccess, len(artifact), before, "")
	return res, nil
}

func (p *Pipeline) probe() stats.ResourceUsage {
	if p.opts.Probe == nil {
		return stats.ResourceUsage{}
	}
	return p.opts.Probe.Probe()
}

// record appends the history entry, publishes it to the live feed, and
// mirrors the outcome to the exported counters.
func (p *Pipeline) record(req Request, duration time.Duration, status string, outputSize int, before stats.ResourceUsage, errMsg string) {
	after := p.probe()

	rec := stats.RequestRecord{
		Timestamp:   time.Now().UTC(),
		Duration:    duration,
		DurationMS:  float64(duration.Microseconds()) / 1000.0,
		Status:      status,
		InputSize:   len(req.Input),
		OutputSize:  outputSize,
		CPUPercent:  after.CPUPercent,
		MemoryDelta: after.RSSBytes - before.RSSBytes,
		Error:       errMsg,
	}
	p.opts.Registry.Append(rec)

	metrics.ConversionsTotal.WithLabelValues(status).Inc()
	metrics.ConversionDuration.WithLabelValues(status).Observe(duration.Seconds())
	metrics.ConversionInputBytes.Observe(float64(len(req.Input)))

	if p.opts.Hub != nil {
		p.opts.Hub.Publish("new_request", rec)
	}
}
