package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okonma/pressgate/internal/cache"
	"github.com/okonma/pressgate/internal/circuitbreaker"
	"github.com/okonma/pressgate/internal/render"
	"github.com/okonma/pressgate/internal/stats"
)

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

type recordingHub struct {
	mu     sync.Mutex
	events []string
}

func (h *recordingHub) Publish(eventType string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, eventType)
}

func (h *recordingHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func newTestPipeline(t *testing.T, renderer render.Renderer, opts Options) (*Pipeline, *render.Pool) {
	t.Helper()
	pool := render.NewPool(renderer, 2)
	t.Cleanup(pool.Stop)

	if opts.Cache == nil {
		opts.Cache = cache.NewContent(10, time.Hour)
	}
	if opts.Registry == nil {
		opts.Registry = stats.NewRegistry(10)
	}
	if opts.Limiter == nil {
		opts.Limiter = allowAll{}
	}
	if opts.RenderTimeout == 0 {
		opts.RenderTimeout = 5 * time.Second
	}
	opts.Pool = pool
	return New(opts), pool
}

func countingRenderer(calls *atomic.Int64, artifact string) render.Renderer {
	return render.Func(func(ctx context.Context, input string) ([]byte, error) {
		calls.Add(1)
		return []byte(artifact), nil
	})
}

func TestMissRendersAndPopulatesCache(t *testing.T) {
	var calls atomic.Int64
	hub := &recordingHub{}
	registry := stats.NewRegistry(10)
	p, _ := newTestPipeline(t, countingRenderer(&calls, "artifact"), Options{
		Registry: registry,
		Hub:      hub,
	})

	res, err := p.Convert(context.Background(), Request{Input: "<html>x</html>", ClientID: "c", UseCache: true})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.CacheHit {
		t.Error("first conversion reported a cache hit")
	}
	if string(res.Artifact) != "artifact" {
		t.Errorf("artifact = %q", res.Artifact)
	}
	if res.Fingerprint == "" {
		t.Error("missing fingerprint")
	}
	if calls.Load() != 1 {
		t.Errorf("renderer calls = %d, want 1", calls.Load())
	}

	c := registry.Snapshot()
	if c.Total != 1 || c.Succeeded != 1 || c.CacheMisses != 1 {
		t.Errorf("counters = %+v", c)
	}
	if hub.count() != 1 {
		t.Errorf("published events = %d, want 1", hub.count())
	}

	history := registry.History()
	if len(history) != 1 || history[0].Status != stats.StatusSuccess {
		t.Fatalf("history = %+v", history)
	}
	if history[0].OutputSize != len("artifact") {
		t.Errorf("output size = %d", history[0].OutputSize)
	}
}

func TestSecondConversionHitsCache(t *testing.T) {
	var calls atomic.Int64
	registry := stats.NewRegistry(10)
	p, _ := newTestPipeline(t, countingRenderer(&calls, "artifact"), Options{Registry: registry})

	req := Request{Input: "<html>same</html>", ClientID: "c", UseCache: true}
	if _, err := p.Convert(context.Background(), req); err != nil {
		t.Fatalf("first Convert: %v", err)
	}

	res, err := p.Convert(context.Background(), req)
	if err != nil {
		t.Fatalf("second Convert: %v", err)
	}
	if !res.CacheHit {
		t.Error("expected cache hit")
	}
	if calls.Load() != 1 {
		t.Errorf("renderer calls = %d, want 1", calls.Load())
	}

	c := registry.Snapshot()
	if c.CacheHits != 1 || c.Succeeded != 2 {
		t.Errorf("counters = %+v", c)
	}
	history := registry.History()
	if history[len(history)-1].Status != stats.StatusCached {
		t.Errorf("last record status = %q, want %q", history[len(history)-1].Status, stats.StatusCached)
	}
}

func TestWhitespaceEquivalentInputsShareCacheEntry(t *testing.T) {
	var calls atomic.Int64
	p, _ := newTestPipeline(t, countingRenderer(&calls, "a"), Options{})

	if _, err := p.Convert(context.Background(), Request{Input: "<p>doc</p>", UseCache: true}); err != nil {
		t.Fatal(err)
	}
	res, err := p.Convert(context.Background(), Request{Input: "  <p>doc</p>\n", UseCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if !res.CacheHit {
		t.Error("trimmed-equal input should hit the cache")
	}
}

func TestCacheBypass(t *testing.T) {
	var calls atomic.Int64
	registry := stats.NewRegistry(10)
	p, _ := newTestPipeline(t, countingRenderer(&calls, "a"), Options{Registry: registry})

	req := Request{Input: "<p>doc</p>", UseCache: false}
	for i := 0; i < 2; i++ {
		res, err := p.Convert(context.Background(), req)
		if err != nil {
			t.Fatal(err)
		}
		if res.CacheHit {
			t.Error("bypassed request reported a cache hit")
		}
	}
	if calls.Load() != 2 {
		t.Errorf("renderer calls = %d, want 2", calls.Load())
	}
	if c := registry.Snapshot(); c.CacheMisses != 0 {
		t.Errorf("bypass must not count as a miss, got %d", c.CacheMisses)
	}

	// Bypassed requests also never populated the cache.
	res, err := p.Convert(context.Background(), Request{Input: "<p>doc</p>", UseCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHit {
		t.Error("cache was populated by a bypassed request")
	}
}

func TestEmptyInputRejected(t *testing.T) {
	var calls atomic.Int64
	registry := stats.NewRegistry(10)
	p, _ := newTestPipeline(t, countingRenderer(&calls, "a"), Options{Registry: registry})

	for _, input := range []string{"", "   \n\t  "} {
		_, err := p.Convert(context.Background(), Request{Input: input, UseCache: true})
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("input %q: err = %v, want ErrEmptyInput", input, err)
		}
	}
	if calls.Load() != 0 {
		t.Error("renderer invoked for rejected input")
	}
	c := registry.Snapshot()
	if c.Rejected != 2 || c.Total != 2 {
		t.Errorf("counters = %+v", c)
	}
	if len(registry.History()) != 0 {
		t.Error("rejections must not leave history records")
	}
}

func TestOversizedInputRejected(t *testing.T) {
	p, _ := newTestPipeline(t, countingRenderer(new(atomic.Int64), "a"), Options{MaxInputBytes: 16})

	_, err := p.Convert(context.Background(), Request{Input: strings.Repeat("x", 17), UseCache: true})
	var tooLarge *InputTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("err = %v, want InputTooLargeError", err)
	}
	if tooLarge.Size != 17 || tooLarge.Limit != 16 {
		t.Errorf("size/limit = %d/%d", tooLarge.Size, tooLarge.Limit)
	}
}

func TestRateLimitedRequestLeavesNoRecord(t *testing.T) {
	var calls atomic.Int64
	registry := stats.NewRegistry(10)
	p, _ := newTestPipeline(t, countingRenderer(&calls, "a"), Options{
		Registry: registry,
		Limiter:  denyAll{},
	})

	_, err := p.Convert(context.Background(), Request{Input: "<p>doc</p>", ClientID: "c", UseCache: true})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if calls.Load() != 0 {
		t.Error("renderer invoked for refused request")
	}
	c := registry.Snapshot()
	if c.RateLimited != 1 {
		t.Errorf("rate limited = %d, want 1", c.RateLimited)
	}
	if len(registry.History()) != 0 {
		t.Error("refusals must not leave history records")
	}
}

func TestRenderFailureRecorded(t *testing.T) {
	registry := stats.NewRegistry(10)
	failing := render.Func(func(ctx context.Context, input string) ([]byte, error) {
		return nil, errors.New("engine exploded")
	})
	p, _ := newTestPipeline(t, failing, Options{Registry: registry})

	_, err := p.Convert(context.Background(), Request{Input: "<p>doc</p>", UseCache: true})
	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("err = %v, want RenderError", err)
	}

	c := registry.Snapshot()
	if c.Failed != 1 {
		t.Errorf("failed = %d, want 1", c.Failed)
	}
	history := registry.History()
	if len(history) != 1 || history[0].Status != stats.StatusFailed {
		t.Fatalf("history = %+v", history)
	}
	if history[0].Error == "" {
		t.Error("failed record missing error summary")
	}
}

func TestDeadlineExceededDoesNotPopulateCache(t *testing.T) {
	registry := stats.NewRegistry(10)
	release := make(chan struct{})
	slow := render.Func(func(ctx context.Context, input string) ([]byte, error) {
		select {
		case <-release:
			return []byte("late"), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	p, _ := newTestPipeline(t, slow, Options{
		Registry:      registry,
		RenderTimeout: 20 * time.Millisecond,
	})
	defer close(release)

	req := Request{Input: "<p>slow</p>", UseCache: true}
	_, err := p.Convert(context.Background(), req)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}

	c := registry.Snapshot()
	if c.Failed != 1 {
		t.Errorf("failed = %d, want 1", c.Failed)
	}
	history := registry.History()
	if len(history) != 1 || history[0].Status != stats.StatusFailed {
		t.Fatalf("history = %+v", history)
	}
}

func TestOpenBreakerShortCircuits(t *testing.T) {
	var calls atomic.Int64
	failing := render.Func(func(ctx context.Context, input string) ([]byte, error) {
		calls.Add(1)
		return nil, errors.New("down")
	})
	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:             "test-engine",
		FailureThreshold: 2,
		Timeout:          time.Hour,
	})
	p, _ := newTestPipeline(t, failing, Options{Breaker: breaker})

	req := Request{Input: "<p>doc</p>", UseCache: false}
	for i := 0; i < 2; i++ {
		if _, err := p.Convert(context.Background(), req); err == nil {
			t.Fatal("expected failure")
		}
	}

	_, err := p.Convert(context.Background(), req)
	if !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if calls.Load() != 2 {
		t.Errorf("renderer calls = %d, open breaker must not invoke the engine", calls.Load())
	}
}
