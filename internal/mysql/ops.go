// internal/mysql/ops.go
package mysql

import (
	"context"
	"regexp"
	"strings"
)

const (
	connectionProbeSQL = "SELECT 1 as test"
	showDatabasesSQL   = "SHOW DATABASES"
)

// TestConnection runs a trivial statement and reports whether it worked.
func TestConnection(ctx context.Context, exec Executor, opts ConnectionOptions) (string, error) {
	res := exec.Execute(ctx, connectionProbeSQL, opts)
	if !res.Success {
		return "", &QueryError{Message: orDefault(res.Error, "Connection failed")}
	}
	return "Connection successful", nil
}

var databasePrefix = regexp.MustCompile(`^Database\s+(.+)$`)

// ListDatabases returns the names reported by SHOW DATABASES.
func ListDatabases(ctx context.Context, exec Executor, opts ConnectionOptions) ([]string, error) {
	res := exec.Execute(ctx, showDatabasesSQL, opts)
	if !res.Success {
		return nil, &QueryError{Message: orDefault(res.Error, "Failed to list databases")}
	}

	databases := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		name := strings.TrimSpace(row)
		if m := databasePrefix.FindStringSubmatch(name); m != nil {
			name = strings.TrimSpace(m[1])
		}
		if name != "" {
			databases = append(databases, name)
		}
	}
	return databases, nil
}

// QueryError carries a message reported by the server or the client
// process. Callers surface it as a business-level failure.
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string { return e.Message }

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
