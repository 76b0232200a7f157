package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/okonma/pressgate/internal/apierr"
	"github.com/okonma/pressgate/internal/circuitbreaker"
	"github.com/okonma/pressgate/internal/logger"
	"github.com/okonma/pressgate/internal/middleware"
	"github.com/okonma/pressgate/internal/pipeline"
)

// ConvertRequest is the POST /convert body.
type ConvertRequest struct {
	Input string `json:"input"`
	// Defaults to true when absent.
	UseCache *bool `json:"use_cache"`
}

// Convert returns the handler for POST /convert. The response body is the
// rendered artifact; X-Cache reports whether it came from the cache.
func Convert(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConvertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				apierr.WriteErrorWithContext(w, r, apierr.ValidationInputTooLarge(-1, maxErr.Limit))
				return
			}
			apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidJSON())
			return
		}

		useCache := true
		if req.UseCache != nil {
			useCache = *req.UseCache
		}

		res, err := p.Convert(r.Context(), pipeline.Request{
			Input:    req.Input,
			ClientID: middleware.ClientIP(r),
			UseCache: useCache,
		})
		if err != nil {
			writeConvertError(w, r, err)
			return
		}

		cacheState := "MISS"
		if res.CacheHit {
			cacheState = "HIT"
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename=output.pdf`)
		w.Header().Set("X-Cache", cacheState)
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Artifact)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(res.Artifact); err != nil {
			logger.WarnContext(r.Context(), "Failed to write artifact response", "error", err)
		}
	}
}

// writeConvertError maps pipeline errors onto the structured error envelope.
func writeConvertError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *pipeline.InputTooLargeError
	var renderErr *pipeline.RenderError

	switch {
	case errors.Is(err, pipeline.ErrEmptyInput):
		apierr.WriteErrorWithContext(w, r, apierr.ValidationEmptyInput())
	case errors.As(err, &tooLarge):
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInputTooLarge(tooLarge.Size, tooLarge.Limit))
	case errors.Is(err, pipeline.ErrRateLimited):
		apierr.WriteErrorWithContext(w, r, apierr.RateLimitClient())
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		apierr.WriteErrorWithContext(w, r, apierr.RenderUnavailable())
	case errors.Is(err, context.DeadlineExceeded):
		apierr.WriteErrorWithContext(w, r, apierr.RenderTimeout())
	case errors.As(err, &renderErr):
		apierr.WriteErrorWithContext(w, r, apierr.RenderFailed(""))
	default:
		logger.ErrorContext(r.Context(), "Unclassified conversion error", "error", err)
		apierr.WriteErrorWithContext(w, r, apierr.SystemInternal(""))
	}
}
