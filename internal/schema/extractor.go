// internal/schema/extractor.go
package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/askdba/mysql-ai-bridge/internal/mysql"
)

// ErrDatabaseRequired is returned before any statement runs when the
// connection options name no database.
var ErrDatabaseRequired = errors.New("Database name is required")

// ColumnLoader is one strategy for loading column metadata for a known set
// of tables. Loaders are tried in order until one succeeds.
type ColumnLoader interface {
	Name() string
	Load(ctx context.Context, exec mysql.Executor, opts mysql.ConnectionOptions, tables []string) ([]Table, error)
}

// Extractor builds a Schema through an Executor.
type Extractor struct {
	exec    mysql.Executor
	loaders []ColumnLoader
	logger  log.FieldLogger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLoaders replaces the default strategy list.
func WithLoaders(loaders ...ColumnLoader) Option {
	return func(e *Extractor) { e.loaders = loaders }
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l log.FieldLogger) Option {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor returns an Extractor that tries a single information_schema
// query first and per-table SHOW COLUMNS second.
func NewExtractor(exec mysql.Executor, opts ...Option) *Extractor {
	e := &Extractor{
		exec:   exec,
		logger: log.StandardLogger(),
	}
	for _, o := range opts {
		o(e)
	}
	if len(e.loaders) == 0 {
		e.loaders = []ColumnLoader{
			InformationSchemaLoader{},
			ShowColumnsLoader{Logger: e.logger},
		}
	}
	return e
}

// Extract loads every table of opts.Database.
func (e *Extractor) Extract(ctx context.Context, opts mysql.ConnectionOptions) (*Schema, error) {
	if strings.TrimSpace(opts.Database) == "" {
		return nil, ErrDatabaseRequired
	}

	tables, err := ListTables(ctx, e.exec, opts)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return NewSchema(nil), nil
	}

	var lastErr error
	for _, loader := range e.loaders {
		loaded, err := runLoader(ctx, loader, e.exec, opts, tables)
		if err == nil {
			return NewSchema(loaded), nil
		}
		lastErr = err
		e.logger.WithFields(log.Fields{
			"loader":   loader.Name(),
			"database": opts.Database,
			"error":    err.Error(),
		}).Warn("schema loader failed")
	}
	return nil, lastErr
}

// runLoader converts a panic inside a loader into an error so the next
// strategy still gets its turn.
func runLoader(ctx context.Context, l ColumnLoader, exec mysql.Executor, opts mysql.ConnectionOptions, tables []string) (out []Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%s loader panicked: %v", l.Name(), r)
		}
	}()
	return l.Load(ctx, exec, opts, tables)
}

// ListTables runs SHOW TABLES against opts.Database. The executor has
// already consumed the Tables_in_<db> header line.
func ListTables(ctx context.Context, exec mysql.Executor, opts mysql.ConnectionOptions) ([]string, error) {
	res := exec.Execute(ctx, "SHOW TABLES", opts)
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "Failed to get tables"
		}
		return nil, &mysql.QueryError{Message: msg}
	}

	tables := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		if strings.TrimSpace(row) != "" {
			tables = append(tables, row)
		}
	}
	return tables, nil
}
