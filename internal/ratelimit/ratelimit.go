package ratelimit

import (
	"sync"
	"time"

	"github.com/okonma/pressgate/internal/metrics"
)

// SlidingWindow admits at most maxRequests per client within any trailing
// window. The window is recomputed from exact timestamps on every check, so
// there is no boundary-reset burst the way a bucketed limiter allows.
type SlidingWindow struct {
	mu          sync.Mutex
	clients     map[string]*clientWindow
	maxRequests int
	window      time.Duration
	nowFn       func() time.Time
}

type clientWindow struct {
	// Admitted-request instants within the trailing window, oldest first.
	stamps []time.Time
}

// NewSlidingWindow creates a limiter admitting maxRequests per window per client.
func NewSlidingWindow(maxRequests int, window time.Duration) *SlidingWindow {
	if maxRequests < 1 {
		maxRequests = 1
	}
	return &SlidingWindow{
		clients:     make(map[string]*clientWindow),
		maxRequests: maxRequests,
		window:      window,
		nowFn:       time.Now,
	}
}

// Allow evaluates the trailing window for clientID. An admitted request is
// recorded; a refused attempt is not. Refusal is a normal outcome, not an
// error.
func (l *SlidingWindow) Allow(clientID string) bool {
	now := l.nowFn()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	cw, ok := l.clients[clientID]
	if !ok {
		cw = &clientWindow{}
		l.clients[clientID] = cw
		metrics.RateLimitClients.Set(float64(len(l.clients)))
	}

	// Drop timestamps that have aged out of the window.
	i := 0
	for i < len(cw.stamps) && !cw.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		cw.stamps = append(cw.stamps[:0], cw.stamps[i:]...)
	}

	if len(cw.stamps) >= l.maxRequests {
		metrics.RateLimitRefusals.WithLabelValues("client").Inc()
		return false
	}

	cw.stamps = append(cw.stamps, now)
	return true
}

// Sweep removes clients whose most recent admitted request is older than
// twice the window, bounding per-client state from one-off callers. Safe to
// call concurrently with Allow.
func (l *SlidingWindow) Sweep() {
	now := l.nowFn()
	cutoff := now.Add(-2 * l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for id, cw := range l.clients {
		if len(cw.stamps) == 0 || cw.stamps[len(cw.stamps)-1].Before(cutoff) {
			delete(l.clients, id)
		}
	}
	metrics.RateLimitClients.Set(float64(len(l.clients)))
}

// Clients returns the number of tracked clients.
func (l *SlidingWindow) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
