// internal/schema/loaders.go
package schema

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/askdba/mysql-ai-bridge/internal/mysql"
)

// ColumnsQuery returns the bulk information_schema statement for database.
func ColumnsQuery(database string) string {
	return "SELECT TABLE_NAME, COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_KEY, EXTRA, COLUMN_DEFAULT " +
		"FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = " + mysql.QuoteString(database) +
		" ORDER BY TABLE_NAME, ORDINAL_POSITION"
}

// InformationSchemaLoader reads all columns in one round trip.
type InformationSchemaLoader struct{}

func (InformationSchemaLoader) Name() string { return "information_schema" }

func (InformationSchemaLoader) Load(ctx context.Context, exec mysql.Executor, opts mysql.ConnectionOptions, tables []string) ([]Table, error) {
	res := exec.Execute(ctx, ColumnsQuery(opts.Database), opts.WithDatabase(""))
	if !res.Success {
		return nil, &mysql.QueryError{Message: res.Error}
	}

	byName := make(map[string]*Table)
	for _, row := range res.Rows {
		f := strings.Split(row, "\t")
		if len(f) < 3 {
			continue
		}
		t, ok := byName[f[0]]
		if !ok {
			t = newTable(f[0])
			byName[f[0]] = t
		}
		t.addColumn(Column{
			Name:         f[1],
			Type:         f[2],
			Nullable:     field(f, 3) == "YES",
			IsPrimaryKey: field(f, 4) == "PRI",
			Extra:        field(f, 5),
			Default:      defaultValue(f, 6),
		})
	}

	// Keep only what SHOW TABLES reported, in its order.
	out := make([]Table, 0, len(tables))
	for _, name := range tables {
		if t, ok := byName[name]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

// ShowColumnsLoader issues SHOW COLUMNS once per table. Tables whose query
// fails are skipped; the load only fails when no table could be read.
type ShowColumnsLoader struct {
	Logger log.FieldLogger
}

func (ShowColumnsLoader) Name() string { return "show_columns" }

func (l ShowColumnsLoader) Load(ctx context.Context, exec mysql.Executor, opts mysql.ConnectionOptions, tables []string) ([]Table, error) {
	logger := l.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	out := make([]Table, 0, len(tables))
	var lastErr error
	for _, name := range tables {
		quoted, err := mysql.QuoteIdent(name)
		if err != nil {
			lastErr = err
			continue
		}
		res := exec.Execute(ctx, "SHOW COLUMNS FROM "+quoted, opts)
		if !res.Success {
			lastErr = &mysql.QueryError{Message: res.Error}
			logger.WithFields(log.Fields{"table": name, "error": res.Error}).Warn("SHOW COLUMNS failed, skipping table")
			continue
		}

		// Field, Type, Null, Key, Default, Extra
		t := newTable(name)
		for _, row := range res.Rows {
			f := strings.Split(row, "\t")
			if len(f) < 6 {
				continue
			}
			t.addColumn(Column{
				Name:         f[0],
				Type:         f[1],
				Nullable:     f[2] == "YES",
				IsPrimaryKey: f[3] == "PRI",
				Extra:        f[5],
				Default:      defaultValue(f, 4),
			})
		}
		if len(t.Columns) > 0 {
			out = append(out, *t)
		}
	}

	if len(out) == 0 && lastErr != nil {
		return nil, fmt.Errorf("no table could be described: %w", lastErr)
	}
	return out, nil
}

func field(f []string, i int) string {
	if i < len(f) {
		return f[i]
	}
	return ""
}

// defaultValue maps batch mode's NULL marker to nil.
func defaultValue(f []string, i int) *string {
	if i >= len(f) || f[i] == "NULL" {
		return nil
	}
	v := f[i]
	return &v
}
