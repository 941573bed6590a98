// internal/mysql/quote.go
package mysql

import (
	"fmt"
	"strings"
)

// QuoteIdent backtick-quotes a MySQL identifier, doubling embedded
// backticks.
func QuoteIdent(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("identifier cannot be empty")
	}
	// MySQL limit is 64 characters
	if len([]rune(name)) > 64 {
		return "", fmt.Errorf("identifier too long: %d characters (max 64)", len([]rune(name)))
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`", nil
}

var stringLiteralEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// QuoteString renders s as a single-quoted SQL string literal.
func QuoteString(s string) string {
	return "'" + stringLiteralEscaper.Replace(s) + "'"
}

// TruncateQuery shortens a statement for log lines.
func TruncateQuery(query string, maxLen int) string {
	if len(query) <= maxLen {
		return query
	}
	return query[:maxLen] + "..."
}
