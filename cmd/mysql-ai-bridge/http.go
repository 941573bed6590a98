// cmd/mysql-ai-bridge/http.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/askdba/mysql-ai-bridge/internal/api"
	"github.com/askdba/mysql-ai-bridge/internal/config"
	"github.com/askdba/mysql-ai-bridge/internal/llm"
	"github.com/askdba/mysql-ai-bridge/internal/mysql"
)

// maxJSONRequestBodyBytes bounds request bodies. DDL dumps are the largest
// legitimate payload.
const maxJSONRequestBodyBytes = 1 << 20

const isoTimestamp = "2006-01-02T15:04:05.000Z07:00"

// decodeJSONBody reads exactly one JSON object into dst. An empty body
// leaves dst untouched so the handler reports the missing fields.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONRequestBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	// Reject trailing data after the object.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return fmt.Errorf("request body must contain a single JSON object")
		}
		return err
	}
	return nil
}

// readBody decodes the request and answers 400 or 413 itself on failure.
func readBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := decodeJSONBody(w, r, dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		api.WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	api.WriteBadRequest(w, "invalid JSON body: "+err.Error())
	return false
}

// writeDBError maps a database route error. Anything that is not the
// caller's fault is a failed operation, reported with 200.
func writeDBError(w http.ResponseWriter, err error) {
	if isClientError(err) {
		api.WriteBadRequest(w, err.Error())
		return
	}
	api.WriteFailure(w, err.Error())
}

// writeLLMError maps an LLM route error. Provider failures are 500.
func writeLLMError(w http.ResponseWriter, err error) {
	if isClientError(err) {
		api.WriteBadRequest(w, err.Error())
		return
	}
	api.WriteInternalError(w, err.Error())
}

type executeRequest struct {
	mysql.ConnectionOptions
	SQL string `json:"sql"`
}

type parseRequest struct {
	DDL string `json:"ddl"`
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Schema string `json:"schema"`
	Model  string `json:"model"`
}

type chatRequest struct {
	Message string `json:"message"`
	Context string `json:"context"`
	Model   string `json:"model"`
}

func (b *bridge) httpHealth(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, api.Fields{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(isoTimestamp),
		"version":   Version,
	})
}

// httpAPIIndex lists the routes. Limiter statistics are included when rate
// limiting is on.
func (b *bridge) httpAPIIndex(limiter *api.RateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields := api.Fields{
			"service": "mysql-ai-bridge",
			"version": Version,
			"endpoints": map[string]string{
				"GET  /api/health":            "Health check",
				"GET  /api":                   "API index (this page)",
				"POST /api/db/connect":        "Test a connection (body: {host, port?, user, password?, ssl?, url?})",
				"POST /api/db/databases":      "List databases (body: connection)",
				"POST /api/db/schema":         "Extract schema (body: connection + database)",
				"POST /api/db/schema/parse":   "Parse CREATE TABLE statements (body: {ddl})",
				"POST /api/db/execute":        "Run a read-only query (body: connection + database + sql)",
				"GET  /api/ollama/models":     "Models of the active LLM provider",
				"GET  /api/models":            "Models of every configured LLM provider",
				"GET  /api/models/{provider}": "Models of one provider (ollama, openai, anthropic)",
				"POST /api/ollama/generate":   "Generate SQL (body: {prompt, schema?, model?})",
				"POST /api/ollama/chat":       "Chat (body: {message, context?, model?})",
			},
			"strictSQL": b.guard.Strict,
			"provider":  b.llm.Provider.Name(),
		}
		if limiter != nil {
			fields["rateLimit"] = limiter.Stats()
		}
		api.WriteSuccess(w, fields)
	}
}

func (b *bridge) httpNotFound(w http.ResponseWriter, r *http.Request) {
	api.WriteNotFound(w, "no route for "+r.Method+" "+r.URL.Path)
}

func (b *bridge) httpConnect(w http.ResponseWriter, r *http.Request) {
	var req mysql.ConnectionOptions
	if !readBody(w, r, &req) {
		return
	}
	msg, err := b.testConnection(r.Context(), req)
	if err != nil {
		writeDBError(w, err)
		return
	}
	api.WriteSuccess(w, api.Fields{"message": msg})
}

func (b *bridge) httpDatabases(w http.ResponseWriter, r *http.Request) {
	var req mysql.ConnectionOptions
	if !readBody(w, r, &req) {
		return
	}
	databases, err := b.listDatabases(r.Context(), req)
	if err != nil {
		writeDBError(w, err)
		return
	}
	api.WriteSuccess(w, api.Fields{"databases": databases})
}

func (b *bridge) httpSchema(w http.ResponseWriter, r *http.Request) {
	var req mysql.ConnectionOptions
	if !readBody(w, r, &req) {
		return
	}
	s, err := b.schema(r.Context(), req)
	if err != nil {
		writeDBError(w, err)
		return
	}
	api.WriteSuccess(w, api.Fields{"schema": s})
}

func (b *bridge) httpParseSchema(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !readBody(w, r, &req) {
		return
	}
	s, err := b.parseDDL(req.DDL)
	if err != nil {
		writeDBError(w, err)
		return
	}
	api.WriteSuccess(w, api.Fields{"schema": s})
}

func (b *bridge) httpExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if !readBody(w, r, &req) {
		return
	}
	res, err := b.execute(r.Context(), "http_execute", req.ConnectionOptions, req.SQL)
	if err != nil {
		writeDBError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, res)
}

func (b *bridge) httpProviderModels(w http.ResponseWriter, r *http.Request) {
	api.WriteSuccess(w, api.Fields{
		"models": b.llm.Models(r.Context()),
		"host":   b.llm.Provider.Host(),
	})
}

func (b *bridge) httpAllModels(w http.ResponseWriter, r *http.Request) {
	api.WriteSuccess(w, api.Fields{
		"models": llm.AllModels(r.Context(), b.catalog, b.logger),
	})
}

func (b *bridge) httpModelsByProvider(w http.ResponseWriter, r *http.Request) {
	models, err := llm.ProviderModels(r.Context(), b.catalog, r.PathValue("provider"), b.logger)
	if err != nil {
		api.WriteBadRequest(w, "Invalid provider")
		return
	}
	api.WriteSuccess(w, api.Fields{"models": models})
}

func (b *bridge) httpGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !readBody(w, r, &req) {
		return
	}
	gen, err := b.generateSQL(r.Context(), req.Prompt, req.Schema, req.Model)
	if err != nil {
		writeLLMError(w, err)
		return
	}
	out := api.Fields{"sql": gen.SQL}
	if gen.Cached {
		out["cached"] = true
	}
	if gen.Usage != nil {
		out["promptTokens"] = gen.Usage.PromptTokens
		out["usage"] = gen.Usage
	}
	api.WriteSuccess(w, out)
}

func (b *bridge) httpChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !readBody(w, r, &req) {
		return
	}
	reply, err := b.chat(r.Context(), req.Message, req.Context, req.Model)
	if err != nil {
		writeLLMError(w, err)
		return
	}
	api.WriteSuccess(w, api.Fields{"response": reply})
}

// httpOptions are the per-server settings of the route layer.
type httpOptions struct {
	CORSOrigin     string
	RequestTimeout time.Duration
	RateLimiter    *api.RateLimiter
}

// handler builds the routed and wrapped HTTP handler.
func (b *bridge) handler(opts httpOptions) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = api.DefaultRequestTimeout
	}
	cors := api.WithCORS(opts.CORSOrigin)
	timeout := api.WithTimeout(opts.RequestTimeout)

	get := func(h http.HandlerFunc) http.HandlerFunc {
		return api.Chain(h, cors, api.RequireGET)
	}
	post := func(h http.HandlerFunc) http.HandlerFunc {
		return api.Chain(h, cors, api.RequirePOST, timeout)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", get(b.httpHealth))
	mux.HandleFunc("/api", get(b.httpAPIIndex(opts.RateLimiter)))
	mux.HandleFunc("/", api.Chain(b.httpNotFound, cors))

	mux.HandleFunc("/api/db/connect", post(b.httpConnect))
	mux.HandleFunc("/api/db/databases", post(b.httpDatabases))
	mux.HandleFunc("/api/db/schema", post(b.httpSchema))
	mux.HandleFunc("/api/db/schema/parse", post(b.httpParseSchema))
	mux.HandleFunc("/api/db/execute", post(b.httpExecute))

	mux.HandleFunc("/api/ollama/models", api.Chain(b.httpProviderModels, cors, api.RequireGET, timeout))
	mux.HandleFunc("/api/models", api.Chain(b.httpAllModels, cors, api.RequireGET, timeout))
	mux.HandleFunc("/api/models/{provider}", api.Chain(b.httpModelsByProvider, cors, api.RequireGET, timeout))
	mux.HandleFunc("/api/ollama/generate", post(b.httpGenerate))
	mux.HandleFunc("/api/ollama/chat", post(b.httpChat))

	// rate limit -> logging -> mux
	return api.Chain(mux.ServeHTTP, api.WithRateLimit(opts.RateLimiter), api.WithLogging(b.logger))
}

// serveHTTP runs the API until ctx is cancelled, then shuts down
// gracefully.
func serveHTTP(ctx context.Context, cfg *config.Config, b *bridge, logger *log.Logger) error {
	var rateLimiter *api.RateLimiter
	if cfg.RateLimitEnabled {
		rateLimiter = api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		defer rateLimiter.Stop()
		logger.WithFields(log.Fields{
			"rps":   cfg.RateLimitRPS,
			"burst": cfg.RateLimitBurst,
		}).Info("rate limiting enabled")
	}

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr: addr,
		Handler: b.handler(httpOptions{
			CORSOrigin:     cfg.CORSOrigin,
			RequestTimeout: cfg.HTTPRequestTimeout,
			RateLimiter:    rateLimiter,
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.HTTPRequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(log.Fields{
			"port":     cfg.HTTPPort,
			"address":  "http://localhost" + addr,
			"executor": cfg.Executor,
			"provider": b.llm.Provider.Name(),
			"llm_host": b.llm.Provider.Host(),
			"version":  Version,
		}).Info("HTTP API server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received, stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}
