// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/warehousekit/contractd/internal/log"
)

// HeaderRequestID carries the request correlation id end to end.
const HeaderRequestID = "X-Request-Id"

// Recoverer keeps a panicking handler from taking the process down. It
// logs the panic with the request context and answers a 500 JSON body.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				buf := make([]byte, 8192)
				n := runtime.Stack(buf, false)

				reqID := log.RequestIDFromContext(r.Context())
				logger := log.WithComponent("panic-recovery")
				logger.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str(log.FieldRequestID, reqID).
					Interface("panic_value", rec).
					Str("stack_trace", string(buf[:n])).
					Msg("panic recovered in HTTP handler")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":      "internal server error",
					"request_id": reqID,
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RequestID assigns every request a unique id, honoring one the client
// already sent.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		w.Header().Set(HeaderRequestID, reqID)
		ctx := log.ContextWithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimit limits requests per client IP over a one-second sliding window.
func RateLimit(rps, burst int) func(http.Handler) http.Handler {
	return httprate.Limit(
		rps+burst,
		time.Second,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded"}`))
		}),
	)
}

// Tracing wraps handlers in OpenTelemetry server spans. An empty service
// name disables it.
func Tracing(service string) func(http.Handler) http.Handler {
	if service == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, service)
	}
}
