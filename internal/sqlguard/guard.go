// Package sqlguard decides whether a statement may be sent to the
// database from the query endpoints.
package sqlguard

import (
	"fmt"
	"strings"
)

// ReadOnlyMessage is reported when a statement fails the prefix check.
const ReadOnlyMessage = "Only SELECT, SHOW, DESCRIBE, EXPLAIN queries are allowed for safety"

// readOnlyPrefixes is checked against the trimmed, upper-cased statement.
var readOnlyPrefixes = []string{
	"SELECT",
	"SHOW",
	"DESCRIBE",
	"EXPLAIN",
	"WITH",
}

// RejectionError explains why a statement was refused.
type RejectionError struct {
	Reason string
	Detail string
}

func (e *RejectionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
	}
	return e.Reason
}

// CheckReadOnly is a plain prefix test. It does not look at comments,
// stacked statements or what a CTE wraps; see Guard.Strict for that.
func CheckReadOnly(sqlText string) error {
	upper := strings.ToUpper(strings.TrimSpace(sqlText))
	for _, p := range readOnlyPrefixes {
		if strings.HasPrefix(upper, p) {
			return nil
		}
	}
	return &RejectionError{Reason: ReadOnlyMessage}
}

// Guard applies the prefix allowlist and, when Strict is set, the parser
// and blocked-pattern checks on top of it.
type Guard struct {
	Strict bool
}

func (g Guard) Check(sqlText string) error {
	if err := CheckReadOnly(sqlText); err != nil {
		return err
	}
	if !g.Strict {
		return nil
	}
	if err := ValidateWithParser(sqlText); err != nil {
		return err
	}
	return ValidatePatterns(sqlText)
}
