package stats

import (
	"sync"
	"time"
)

// Request outcome statuses recorded in history.
const (
	StatusSuccess = "success"
	StatusCached  = "success_cached"
	StatusFailed  = "failed"
)

// ResourceUsage captures the process resource figures attached to a record.
type ResourceUsage struct {
	CPUPercent float64 `json:"cpu_percent"`
	RSSBytes   int64   `json:"rss_bytes"`
}

// RequestRecord describes one completed (or failed) conversion. Records are
// append-only; they are never mutated after being added to the history.
type RequestRecord struct {
	Timestamp   time.Time     `json:"timestamp"`
	Duration    time.Duration `json:"duration_ns"`
	DurationMS  float64       `json:"duration_ms"`
	Status      string        `json:"status"`
	InputSize   int           `json:"input_size"`
	OutputSize  int           `json:"output_size"`
	CPUPercent  float64       `json:"cpu_percent"`
	MemoryDelta int64         `json:"memory_delta_bytes"`
	Error       string        `json:"error,omitempty"`
}

// Counters is a snapshot of the monotonic counters. They reset only on
// process restart.
type Counters struct {
	Total       uint64 `json:"total_requests"`
	Succeeded   uint64 `json:"successes"`
	Failed      uint64 `json:"failures"`
	CacheHits   uint64 `json:"cache_hits"`
	CacheMisses uint64 `json:"cache_misses"`
	RateLimited uint64 `json:"rate_limited"`
	Rejected    uint64 `json:"validation_rejected"`
}

// Registry accumulates counters and a bounded FIFO of recent request
// records. It is mutated only by the conversion pipeline and read via
// snapshots.
type Registry struct {
	mu         sync.Mutex
	counters   Counters
	history    []RequestRecord
	maxHistory int
}

// NewRegistry creates a registry keeping at most maxHistory records.
func NewRegistry(maxHistory int) *Registry {
	if maxHistory < 1 {
		maxHistory = 1
	}
	return &Registry{maxHistory: maxHistory}
}

// IncTotal counts an inbound request.
func (r *Registry) IncTotal() { r.inc(func(c *Counters) { c.Total++ }) }

// IncSucceeded counts a successful render.
func (r *Registry) IncSucceeded() { r.inc(func(c *Counters) { c.Succeeded++ }) }

// IncFailed counts a failed or timed-out render.
func (r *Registry) IncFailed() { r.inc(func(c *Counters) { c.Failed++ }) }

// IncCacheHit counts an artifact served from cache.
func (r *Registry) IncCacheHit() { r.inc(func(c *Counters) { c.CacheHits++ }) }

// IncCacheMiss counts a cache lookup that required rendering.
func (r *Registry) IncCacheMiss() { r.inc(func(c *Counters) { c.CacheMisses++ }) }

// IncRateLimited counts a refused request. Refusals leave no history record.
func (r *Registry) IncRateLimited() { r.inc(func(c *Counters) { c.RateLimited++ }) }

// IncRejected counts a validation rejection. Rejections leave no history record.
func (r *Registry) IncRejected() { r.inc(func(c *Counters) { c.Rejected++ }) }

func (r *Registry) inc(f func(*Counters)) {
	r.mu.Lock()
	f(&r.counters)
	r.mu.Unlock()
}

// Append adds a record to the history, dropping the oldest entry once the
// bound is reached.
func (r *Registry) Append(rec RequestRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, rec)
	if len(r.history) > r.maxHistory {
		r.history = r.history[len(r.history)-r.maxHistory:]
	}
}

// Snapshot returns a copy of the counters.
func (r *Registry) Snapshot() Counters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters
}

// History returns a copy of the record list in arrival order, oldest first.
func (r *Registry) History() []RequestRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RequestRecord, len(r.history))
	copy(out, r.history)
	return out
}

// MaxHistory returns the configured history bound.
func (r *Registry) MaxHistory() int { return r.maxHistory }
