package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// AuditEntry records one executed statement.
type AuditEntry struct {
	Tool       string
	Database   string
	Query      string
	Duration   time.Duration
	RowCount   int
	Success    bool
	Error      string
	TokensUsed int
}

// AuditLogger appends JSON lines to a file. A zero AuditLogger, or one
// created with an empty path, discards entries.
type AuditLogger struct {
	logger *log.Logger
	closer io.Closer
}

// NewAuditLogger opens path for appending.
func NewAuditLogger(path string) (*AuditLogger, error) {
	if path == "" {
		return &AuditLogger{}, nil
	}
	// #nosec G304 -- path comes from operator configuration
	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	a := newAuditLogger(f)
	a.closer = f
	return a, nil
}

func newAuditLogger(w io.Writer) *AuditLogger {
	logger := log.New()
	logger.SetOutput(w)
	logger.SetLevel(log.InfoLevel)
	logger.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	return &AuditLogger{logger: logger}
}

// Log writes e. Safe for concurrent use; logrus serialises writes.
func (a *AuditLogger) Log(e AuditEntry) {
	if a == nil || a.logger == nil {
		return
	}
	fields := log.Fields{
		"tool":        e.Tool,
		"duration_ms": e.Duration.Milliseconds(),
		"row_count":   e.RowCount,
		"success":     e.Success,
	}
	if e.Database != "" {
		fields["database"] = e.Database
	}
	if e.Query != "" {
		fields["query"] = e.Query
	}
	if e.Error != "" {
		fields["error"] = e.Error
	}
	if e.TokensUsed > 0 {
		fields["tokens"] = e.TokensUsed
	}
	a.logger.WithFields(fields).Info("audit")
}

func (a *AuditLogger) Close() error {
	if a == nil || a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// maxLoggedQuery keeps long statements out of the regular log.
const maxLoggedQuery = 200

// QueryTimer measures one statement and logs the outcome.
type QueryTimer struct {
	start  time.Time
	tool   string
	logger log.FieldLogger
}

func NewQueryTimer(logger log.FieldLogger, tool string) *QueryTimer {
	return &QueryTimer{start: time.Now(), tool: tool, logger: logger}
}

func (t *QueryTimer) Elapsed() time.Duration {
	return time.Since(t.start)
}

func (t *QueryTimer) fields(query string) log.Fields {
	f := log.Fields{"tool": t.tool, "duration_ms": t.Elapsed().Milliseconds()}
	if query != "" && len(query) <= maxLoggedQuery {
		f["query"] = query
	}
	return f
}

func (t *QueryTimer) LogSuccess(rowCount int, query string) {
	t.logger.WithFields(t.fields(query)).WithField("row_count", rowCount).Info("query executed")
}

func (t *QueryTimer) LogError(msg, query string) {
	t.logger.WithFields(t.fields(query)).WithField("error", msg).Warn("query failed")
}
