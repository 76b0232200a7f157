// Package render fronts the external rendering engine: given input text it
// produces output bytes or fails. The engine's internals are out of scope;
// this package supplies the adapters that reach it and the bounded worker
// pool that keeps it from monopolizing request handling.
package render

import "context"

// Renderer is the black-box rendering capability. Latency is unbounded, so
// callers must enforce their own deadline around Render; implementations may
// honor ctx cancellation but are not required to.
type Renderer interface {
	Render(ctx context.Context, input string) ([]byte, error)
}

// Func adapts a plain function to the Renderer interface.
type Func func(ctx context.Context, input string) ([]byte, error)

// Render implements Renderer.
func (f Func) Render(ctx context.Context, input string) ([]byte, error) {
	return f(ctx, input)
}
