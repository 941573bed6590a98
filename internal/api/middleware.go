// internal/api/middleware.go
package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultRequestTimeout leaves room for slow LLM generations.
const DefaultRequestTimeout = 120 * time.Second

// Middleware wraps a handler.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// WithCORS adds CORS headers for origin and answers preflight requests.
func WithCORS(origin string) Middleware {
	if origin == "" {
		origin = "*"
	}
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next(w, r)
		}
	}
}

// RequireMethod rejects requests using any other method with 405.
func RequireMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			WriteMethodNotAllowed(w, method+" method required")
			return
		}
		next(w, r)
	}
}

// RequireGET also accepts HEAD.
func RequireGET(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			WriteMethodNotAllowed(w, "GET method required")
			return
		}
		next(w, r)
	}
}

func RequirePOST(next http.HandlerFunc) http.HandlerFunc {
	return RequireMethod(http.MethodPost, next)
}

// WithTimeout bounds the request context.
func WithTimeout(timeout time.Duration) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next(w, r.WithContext(ctx))
		}
	}
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// WithLogging logs method, path, status and duration of every request.
func WithLogging(logger log.FieldLogger) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next(rec, r)
			logger.WithFields(log.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
				"client":      getClientIP(r),
			}).Info("http request")
		}
	}
}

// Chain applies middlewares so the first one listed runs first.
func Chain(handler http.HandlerFunc, middlewares ...Middleware) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
