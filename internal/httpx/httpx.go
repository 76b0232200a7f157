package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/okonma/pressgate/internal/logger"
	"github.com/okonma/pressgate/internal/metrics"
)

// Do sends the request produced by build with up to maxAttempts attempts,
// honoring Retry-After on 429/5xx and backing off with jitter otherwise.
// maxAttempts of 1 means a single attempt with no retry. The request must be
// rebuilt per attempt because bodies are consumed.
func Do(client *http.Client, maxAttempts int, baseDelay time.Duration, build func() (*http.Request, error)) (*http.Response, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			metrics.RenderEngineRequests.WithLabelValues("error").Inc()
			if attempt == maxAttempts || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			logger.Debug("Engine request failed, retrying", "attempt", attempt, "url", req.URL.String(), "error", err)
		} else {
			if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
				metrics.RenderEngineRequests.WithLabelValues("success").Inc()
				return resp, nil
			}

			// 429 or 5xx
			metrics.RenderEngineRequests.WithLabelValues("retry").Inc()
			if attempt == maxAttempts {
				return resp, nil
			}
			if wait, ok := retryAfter(resp); ok {
				resp.Body.Close()
				logger.Debug("Engine asked to retry later", "attempt", attempt, "wait", wait, "status", resp.StatusCode)
				sleepCtx(req.Context(), wait)
				continue
			}
			resp.Body.Close()
		}

		jitter := time.Duration(rand.Intn(200)) * time.Millisecond
		sleepCtx(req.Context(), baseDelay*time.Duration(attempt)+jitter)
	}
	return nil, errors.New("exhausted retries")
}

// retryAfter parses a Retry-After header as seconds or an HTTP date.
func retryAfter(resp *http.Response) (time.Duration, bool) {
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(ra); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(ra); err == nil {
		if delta := time.Until(t); delta > 0 {
			return delta, true
		}
	}
	return 0, false
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
