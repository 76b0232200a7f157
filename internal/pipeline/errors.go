package pipeline

import (
	"errors"
	"fmt"
)

// ErrEmptyInput reports input that is empty or whitespace-only.
var ErrEmptyInput = errors.New("input document is empty")

// ErrRateLimited reports a request refused by the per-client limiter.
// Refusal is an admission decision; nothing about the request was processed.
var ErrRateLimited = errors.New("client request rate exceeded")

// InputTooLargeError reports input above the configured size ceiling.
type InputTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *InputTooLargeError) Error() string {
	return fmt.Sprintf("input of %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}

// RenderError wraps a failure from the rendering engine itself, as opposed
// to an admission refusal or a deadline.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
