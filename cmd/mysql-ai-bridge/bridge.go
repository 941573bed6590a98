// cmd/mysql-ai-bridge/bridge.go
package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/askdba/mysql-ai-bridge/internal/config"
	"github.com/askdba/mysql-ai-bridge/internal/llm"
	"github.com/askdba/mysql-ai-bridge/internal/logging"
	"github.com/askdba/mysql-ai-bridge/internal/mysql"
	"github.com/askdba/mysql-ai-bridge/internal/schema"
	"github.com/askdba/mysql-ai-bridge/internal/sqlguard"
)

// Validation messages returned with status 400.
const (
	msgHostUser         = "Host and user are required"
	msgHostUserDatabase = "Host, user, and database are required"
	msgSQLRequired      = "SQL query is required"
	msgPromptRequired   = "Prompt is required"
	msgMessageRequired  = "Message is required"
	msgDDLRequired      = "DDL is required"
)

// requestError is a problem with the caller's input.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

// isClientError reports whether err should be answered with 400.
func isClientError(err error) bool {
	var reqErr *requestError
	var rejErr *sqlguard.RejectionError
	return errors.As(err, &reqErr) || errors.As(err, &rejErr)
}

// bridge holds the collaborators every operation needs. HTTP handlers and
// MCP tools both call into it.
type bridge struct {
	exec      mysql.Executor
	extractor *schema.Extractor
	guard     sqlguard.Guard
	llm       *llm.Service
	catalog   []llm.Provider
	audit     *logging.AuditLogger
	logger    log.FieldLogger
}

func newBridge(cfg *config.Config, logger *log.Logger) (*bridge, error) {
	exec := newExecutor(cfg, logger)

	llmCfg := llm.Config{
		Provider:         cfg.LLMProvider,
		Model:            cfg.LLMModel,
		OllamaHost:       cfg.OllamaHost,
		OpenAIAPIKey:     cfg.OpenAIAPIKey,
		OpenAIBaseURL:    cfg.OpenAIBaseURL,
		AnthropicAPIKey:  cfg.AnthropicAPIKey,
		AnthropicBaseURL: cfg.AnthropicBaseURL,
		Timeout:          cfg.LLMTimeout,
	}
	provider, err := llm.NewProvider(llmCfg)
	if err != nil {
		return nil, err
	}

	var estimator llm.TokenEstimator
	if cfg.TokenTracking {
		estimator, err = llm.NewTokenEstimator(cfg.TokenModel)
		if err != nil {
			return nil, fmt.Errorf("token tracking: %w", err)
		}
	}

	audit, err := logging.NewAuditLogger(cfg.AuditLogPath)
	if err != nil {
		return nil, err
	}

	return &bridge{
		exec:      exec,
		extractor: schema.NewExtractor(exec, schema.WithLogger(logger)),
		guard:     sqlguard.Guard{Strict: cfg.StrictSQL},
		llm: &llm.Service{
			Provider:  provider,
			Cache:     llm.NewCache(cfg.LLMCachePath),
			Estimator: estimator,
			Logger:    logger,
		},
		catalog: llm.Catalog(llmCfg),
		audit:   audit,
		logger:  logger,
	}, nil
}

func newExecutor(cfg *config.Config, logger *log.Logger) mysql.Executor {
	if cfg.Executor == config.ExecutorNative {
		e := mysql.NewNativeExecutor(cfg.QueryTimeout)
		e.MaxRows = cfg.MaxRows
		e.Logger = logger
		return e
	}
	e := mysql.NewCLIExecutor(cfg.ClientPath, cfg.QueryTimeout, cfg.MaxOutputBytes)
	e.Logger = logger
	return e
}

func (b *bridge) Close() error {
	return b.audit.Close()
}

// connection resolves a URL if present and checks the required fields.
func connection(opts mysql.ConnectionOptions, needDatabase bool) (mysql.ConnectionOptions, error) {
	opts, err := opts.Resolve()
	if err != nil {
		return opts, badRequest(err.Error())
	}
	host := strings.TrimSpace(opts.Host)
	user := strings.TrimSpace(opts.User)
	if needDatabase {
		if host == "" || user == "" || strings.TrimSpace(opts.Database) == "" {
			return opts, badRequest(msgHostUserDatabase)
		}
		return opts, nil
	}
	if host == "" || user == "" {
		return opts, badRequest(msgHostUser)
	}
	return opts, nil
}

func (b *bridge) testConnection(ctx context.Context, opts mysql.ConnectionOptions) (string, error) {
	opts, err := connection(opts, false)
	if err != nil {
		return "", err
	}
	return mysql.TestConnection(ctx, b.exec, opts)
}

func (b *bridge) listDatabases(ctx context.Context, opts mysql.ConnectionOptions) ([]string, error) {
	opts, err := connection(opts, false)
	if err != nil {
		return nil, err
	}
	return mysql.ListDatabases(ctx, b.exec, opts)
}

func (b *bridge) schema(ctx context.Context, opts mysql.ConnectionOptions) (*schema.Schema, error) {
	opts, err := connection(opts, true)
	if err != nil {
		return nil, err
	}
	return b.extractor.Extract(ctx, opts)
}

func (b *bridge) parseDDL(ddl string) (*schema.Schema, error) {
	if strings.TrimSpace(ddl) == "" {
		return nil, badRequest(msgDDLRequired)
	}
	return schema.NewSchema(schema.ParseDDL(ddl)), nil
}

// execute checks sqlText against the guard before anything is spawned.
// Database failures come back inside the result, not as an error.
func (b *bridge) execute(ctx context.Context, tool string, opts mysql.ConnectionOptions, sqlText string) (mysql.QueryResult, error) {
	if strings.TrimSpace(sqlText) == "" {
		return mysql.QueryResult{}, badRequest(msgSQLRequired)
	}
	opts, err := connection(opts, true)
	if err != nil {
		return mysql.QueryResult{}, err
	}
	if err := b.guard.Check(sqlText); err != nil {
		b.logger.WithFields(log.Fields{
			"tool":     tool,
			"database": opts.Database,
			"reason":   err.Error(),
		}).Warn("query rejected")
		return mysql.QueryResult{}, err
	}

	timer := logging.NewQueryTimer(b.logger, tool)
	res := b.exec.Execute(ctx, sqlText, opts)
	entry := logging.AuditEntry{
		Tool:     tool,
		Database: opts.Database,
		Query:    sqlText,
		Duration: timer.Elapsed(),
		RowCount: res.RowCount,
		Success:  res.Success,
		Error:    res.Error,
	}
	if res.Success {
		timer.LogSuccess(res.RowCount, sqlText)
	} else {
		timer.LogError(res.Error, sqlText)
	}
	b.audit.Log(entry)
	return res, nil
}

func (b *bridge) generateSQL(ctx context.Context, prompt, schemaText, model string) (llm.Generation, error) {
	if strings.TrimSpace(prompt) == "" {
		return llm.Generation{}, badRequest(msgPromptRequired)
	}
	gen, err := b.llm.GenerateSQL(ctx, prompt, schemaText, model)
	if err != nil {
		return gen, err
	}
	entry := b.logger.WithFields(log.Fields{
		"provider": b.llm.Provider.Name(),
		"cached":   gen.Cached,
	})
	if gen.Usage != nil {
		entry = entry.WithField("tokens", gen.Usage.TotalTokens)
		b.audit.Log(logging.AuditEntry{
			Tool:       "generate_sql",
			Query:      gen.SQL,
			Success:    true,
			TokensUsed: gen.Usage.TotalTokens,
		})
	}
	entry.Info("sql generated")
	return gen, nil
}

func (b *bridge) chat(ctx context.Context, message, chatContext, model string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", badRequest(msgMessageRequired)
	}
	return b.llm.Chat(ctx, message, chatContext, model)
}
