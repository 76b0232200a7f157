package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okonma/pressgate/internal/httpx"
)

// HTTPRenderer posts the input to a remote render service and returns the
// artifact bytes from the response body. Retries (bounded, Retry-After
// aware) live here in the collaborator adapter; the pipeline itself never
// retries.
type HTTPRenderer struct {
	url         string
	client      *http.Client
	maxAttempts int
}

type renderRequest struct {
	HTML string `json:"html"`
}

// NewHTTP creates an adapter for the render service at url. maxAttempts of 1
// disables retries.
func NewHTTP(url string, maxAttempts int) *HTTPRenderer {
	return &HTTPRenderer{
		url: url,
		// Per-request deadlines come from ctx; the client timeout is a
		// backstop for a hung engine when no deadline was set.
		client:      &http.Client{Timeout: 5 * time.Minute},
		maxAttempts: maxAttempts,
	}
}

// Render implements Renderer.
func (h *HTTPRenderer) Render(ctx context.Context, input string) ([]byte, error) {
	body, err := json.Marshal(renderRequest{HTML: input})
	if err != nil {
		return nil, err
	}

	resp, err := httpx.Do(h.client, h.maxAttempts, 300*time.Millisecond, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("render engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		summary, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("render engine returned %d: %s", resp.StatusCode, strings.TrimSpace(string(summary)))
	}

	artifact, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading render engine response: %w", err)
	}
	if len(artifact) == 0 {
		return nil, fmt.Errorf("render engine returned an empty artifact")
	}
	return artifact, nil
}
