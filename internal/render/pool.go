package render

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okonma/pressgate/internal/logger"
	"github.com/okonma/pressgate/internal/metrics"
)

// Pool runs renders on a fixed set of worker goroutines so a slow render
// never blocks admission, cache reads, or the broadcast timers. Do bounds
// only the wait: when the caller's deadline fires, the wait is abandoned but
// the worker finishes the render and discards the result. Cancellation of
// the underlying work is best effort via the job context.
type Pool struct {
	renderer Renderer
	jobs     chan *job
	quit     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
	busy     atomic.Int64
}

type job struct {
	ctx   context.Context
	input string
	// Buffered so a worker can always hand off its result, even after the
	// waiter has gone away.
	done chan jobResult
}

type jobResult struct {
	artifact []byte
	err      error
}

// NewPool starts workers goroutines draining the job queue.
func NewPool(r Renderer, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		renderer: r,
		jobs:     make(chan *job),
		quit:     make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case j := <-p.jobs:
			p.busy.Add(1)
			metrics.RenderPoolBusyWorkers.Inc()

			artifact, err := p.renderer.Render(j.ctx, j.input)

			p.busy.Add(-1)
			metrics.RenderPoolBusyWorkers.Dec()

			j.done <- jobResult{artifact: artifact, err: err}
		}
	}
}

// Do submits input for rendering and waits for the result or ctx, whichever
// comes first. On ctx expiry the render may still be running; its resource
// consumption can continue after the caller has been told "timed out".
func (p *Pool) Do(ctx context.Context, input string) ([]byte, error) {
	j := &job{ctx: ctx, input: input, done: make(chan jobResult, 1)}

	select {
	case p.jobs <- j:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-j.done:
		return res.artifact, res.err
	case <-ctx.Done():
		metrics.RenderPoolAbandonedWaits.Inc()
		logger.WarnContext(ctx, "Abandoned render wait at deadline; work may still be running")
		return nil, ctx.Err()
	}
}

// Busy returns the number of workers currently rendering.
func (p *Pool) Busy() int {
	return int(p.busy.Load())
}

// Stop shuts the workers down after their current jobs. Idempotent.
func (p *Pool) Stop() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}
