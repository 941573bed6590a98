// internal/sqlguard/parser.go
package sqlguard

import (
	"fmt"
	"strings"

	"github.com/xwb1989/sqlparser"
)

// blockedFunctions can stall the server, take locks or read files.
var blockedFunctions = map[string]bool{
	"sleep":             true,
	"benchmark":         true,
	"get_lock":          true,
	"release_lock":      true,
	"release_all_locks": true,
	"is_free_lock":      true,
	"is_used_lock":      true,
	"load_file":         true,
	"sys_eval":          true,
	"sys_exec":          true,
}

// systemSchemas hold server internals. information_schema is left readable
// because generated schema questions routinely query it.
var systemSchemas = map[string]bool{
	"mysql":              true,
	"performance_schema": true,
	"sys":                true,
}

// ValidateWithParser accepts exactly one SELECT, UNION, SHOW, DESCRIBE or
// EXPLAIN statement. The parser predates CTE support, so WITH is refused.
func ValidateWithParser(sqlText string) error {
	sqlText = strings.TrimSpace(sqlText)
	if sqlText == "" {
		return &RejectionError{Reason: "empty query"}
	}

	pieces, err := sqlparser.SplitStatementToPieces(sqlText)
	if err != nil {
		return &RejectionError{Reason: "failed to parse SQL statement", Detail: err.Error()}
	}
	stmts := pieces[:0]
	for _, p := range pieces {
		if strings.TrimSpace(p) != "" {
			stmts = append(stmts, p)
		}
	}
	switch len(stmts) {
	case 0:
		return &RejectionError{Reason: "empty query"}
	case 1:
	default:
		return &RejectionError{Reason: "multi-statement queries are not allowed"}
	}

	stmt, err := sqlparser.Parse(stmts[0])
	if err != nil {
		return &RejectionError{Reason: "failed to parse SQL statement", Detail: err.Error()}
	}

	switch stmt.(type) {
	case *sqlparser.Select, *sqlparser.Union, *sqlparser.ParenSelect:
		return inspect(stmt)
	case *sqlparser.Show, *sqlparser.OtherRead:
		return nil
	default:
		return &RejectionError{Reason: "statement type not allowed", Detail: statementKind(stmt)}
	}
}

// inspect walks the whole tree, subqueries and join conditions included,
// and stops at the first blocked function or system schema.
func inspect(node sqlparser.SQLNode) error {
	return sqlparser.Walk(func(n sqlparser.SQLNode) (bool, error) {
		switch n := n.(type) {
		case *sqlparser.FuncExpr:
			name := strings.ToLower(n.Name.String())
			if blockedFunctions[name] {
				return false, &RejectionError{Reason: "dangerous function not allowed", Detail: name}
			}
		case sqlparser.TableName:
			schema := strings.ToLower(n.Qualifier.String())
			if systemSchemas[schema] {
				return false, &RejectionError{Reason: "access to system schema is not allowed", Detail: schema}
			}
		}
		return true, nil
	}, node)
}

func statementKind(stmt sqlparser.Statement) string {
	switch s := stmt.(type) {
	case *sqlparser.Insert:
		return strings.ToUpper(s.Action)
	case *sqlparser.Update:
		return "UPDATE"
	case *sqlparser.Delete:
		return "DELETE"
	case *sqlparser.DDL:
		return strings.ToUpper(s.Action)
	case *sqlparser.DBDDL:
		return strings.ToUpper(s.Action) + " DATABASE"
	case *sqlparser.Set:
		return "SET"
	case *sqlparser.Use:
		return "USE"
	case *sqlparser.OtherAdmin:
		return "administrative statement"
	default:
		return fmt.Sprintf("%T", stmt)
	}
}
