// internal/api/middleware_test.go
package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, Fields{"ok": true})
}

func TestWithCORS(t *testing.T) {
	handler := WithCORS("")(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/db/execute", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("OPTIONS request should return 204, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("preflight should have no body, got %q", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
	if w.Header().Get("Access-Control-Allow-Methods") != "GET, POST, OPTIONS" {
		t.Errorf("unexpected methods header %q", w.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestWithCORSOrigin(t *testing.T) {
	handler := WithCORS("http://localhost:3000")(okHandler)
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("origin = %q", got)
	}
}

func TestRequireGET(t *testing.T) {
	handler := RequireGET(okHandler)

	tests := []struct {
		method string
		status int
	}{
		{http.MethodGet, http.StatusOK},
		{http.MethodHead, http.StatusOK},
		{http.MethodPost, http.StatusMethodNotAllowed},
	}
	for _, tc := range tests {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(tc.method, "/api/health", nil))
		if w.Code != tc.status {
			t.Errorf("%s: expected %d, got %d", tc.method, tc.status, w.Code)
		}
	}
}

func TestRequirePOST(t *testing.T) {
	handler := RequirePOST(okHandler)

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, "/api/db/connect", nil))
	if w.Code != http.StatusOK {
		t.Errorf("POST should pass, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/api/db/connect", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET should be rejected, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "POST method required") {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestWithTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := WithTimeout(50 * time.Millisecond)(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	})
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !ok {
		t.Fatal("expected a deadline on the request context")
	}
	if time.Until(deadline) > 50*time.Millisecond {
		t.Errorf("deadline too far in the future: %v", deadline)
	}
}

func TestWithTimeoutCancelsAfterReturn(t *testing.T) {
	var ctx context.Context
	handler := WithTimeout(time.Minute)(func(w http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	})
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if ctx.Err() == nil {
		t.Error("context should be cancelled once the handler returns")
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&log.JSONFormatter{})

	handler := WithLogging(logger)(func(w http.ResponseWriter, r *http.Request) {
		WriteBadRequest(w, "Prompt is required")
	})
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/ollama/generate", nil))

	out := buf.String()
	for _, want := range []string{`"path":"/api/ollama/generate"`, `"status":400`, `"method":"POST"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
}

func TestChain(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next(w, r)
			}
		}
	}

	handler := Chain(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}, mw("first"), mw("second"))
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "first,second,handler" {
		t.Errorf("unexpected order: %v", order)
	}
}
