// internal/mysql/native.go
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	log "github.com/sirupsen/logrus"
)

// OpenFunc opens a database handle for a DSN. Tests swap it for sqlmock.
type OpenFunc func(dsn string) (*sql.DB, error)

func openMySQL(dsn string) (*sql.DB, error) {
	return sql.Open("mysql", dsn)
}

// NativeExecutor speaks the MySQL protocol through go-sql-driver/mysql
// instead of spawning the client. Each call opens and closes its own
// handle; nothing is pooled across requests.
type NativeExecutor struct {
	Timeout time.Duration
	MaxRows int
	Open    OpenFunc
	Logger  log.FieldLogger
}

func NewNativeExecutor(timeout time.Duration) *NativeExecutor {
	return &NativeExecutor{Timeout: timeout, Open: openMySQL}
}

// DSN renders opts as a go-sql-driver DSN.
func DSN(opts ConnectionOptions, timeout time.Duration) string {
	opts = opts.WithDefaults()
	cfg := gomysql.NewConfig()
	cfg.User = opts.User
	cfg.Passwd = opts.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(opts.Host, strconv.Itoa(int(opts.Port)))
	cfg.DBName = opts.Database
	if opts.SSL {
		cfg.TLSConfig = "skip-verify"
	}
	if timeout > 0 {
		cfg.Timeout = timeout
		cfg.ReadTimeout = timeout
	}
	return cfg.FormatDSN()
}

func (e *NativeExecutor) logger() log.FieldLogger {
	if e.Logger == nil {
		return log.StandardLogger()
	}
	return e.Logger
}

func (e *NativeExecutor) Execute(ctx context.Context, sqlText string, opts ConnectionOptions) QueryResult {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	open := e.Open
	if open == nil {
		open = openMySQL
	}
	db, err := open(DSN(opts, timeout))
	if err != nil {
		return Failed(driverErrorMessage(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	start := time.Now()
	res, err := e.query(ctx, db, sqlText)
	entry := e.logger().WithField("duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		entry.WithError(err).Debug("native query failed")
		return Failed(driverErrorMessage(err))
	}
	entry.WithField("rows", res.RowCount).Debug("native query finished")
	return res
}

func (e *NativeExecutor) query(ctx context.Context, db *sql.DB, sqlText string) (QueryResult, error) {
	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return QueryResult{}, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return QueryResult{}, err
	}

	lines := []string{strings.Join(cols, "\t")}
	for rows.Next() {
		if e.MaxRows > 0 && len(lines)-1 >= e.MaxRows {
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return QueryResult{}, err
		}
		fields := make([]string, len(cols))
		for i, v := range values {
			fields[i] = formatValue(v)
		}
		lines = append(lines, strings.Join(fields, "\t"))
	}
	if err := rows.Err(); err != nil {
		return QueryResult{}, err
	}

	// Statements without a result set report no columns.
	if len(cols) == 0 {
		lines = nil
	}
	return resultFromLines(lines), nil
}

// formatValue renders a scanned value the way batch mode prints it.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}

func driverErrorMessage(err error) string {
	var me *gomysql.MySQLError
	if errors.As(err, &me) {
		return me.Message
	}
	return err.Error()
}
