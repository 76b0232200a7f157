package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// compressWriter wraps http.ResponseWriter to route the body through a
// compressing encoder.
type compressWriter struct {
	io.Writer
	http.ResponseWriter
	wroteHeader bool
}

func (w *compressWriter) WriteHeader(status int) {
	w.wroteHeader = true
	// The encoder changes the body length; any length set by the handler
	// refers to the uncompressed payload.
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(status)
}

func (w *compressWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.Writer.Write(b)
}

// Compress returns a middleware that compresses responses with brotli or
// gzip according to Accept-Encoding, preferring brotli. WebSocket upgrades
// pass through untouched.
func Compress(next http.Handler) http.Handler {
	// Pool encoders to reduce allocations
	gzPool := sync.Pool{
		New: func() interface{} {
			return gzip.NewWriter(io.Discard)
		},
	}
	brPool := sync.Pool{
		New: func() interface{} {
			return brotli.NewWriterLevel(io.Discard, brotli.DefaultCompression)
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}

		accept := r.Header.Get("Accept-Encoding")

		switch {
		case strings.Contains(accept, "br"):
			br := brPool.Get().(*brotli.Writer)
			defer brPool.Put(br)
			br.Reset(w)
			defer br.Close()

			w.Header().Set("Content-Encoding", "br")
			next.ServeHTTP(&compressWriter{Writer: br, ResponseWriter: w}, r)

		case strings.Contains(accept, "gzip"):
			gz := gzPool.Get().(*gzip.Writer)
			defer gzPool.Put(gz)
			gz.Reset(w)
			defer gz.Close()

			w.Header().Set("Content-Encoding", "gzip")
			next.ServeHTTP(&compressWriter{Writer: gz, ResponseWriter: w}, r)

		default:
			next.ServeHTTP(w, r)
		}
	})
}
