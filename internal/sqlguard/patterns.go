// internal/sqlguard/patterns.go
package sqlguard

import (
	"regexp"
	"strings"
)

// blockedPatterns are dangerous even inside a statement that starts with an
// allowed keyword.
var blockedPatterns = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`(?i)\bLOAD_FILE\s*\(`), "LOAD_FILE function"},
	{regexp.MustCompile(`(?i)\bINTO\s+OUTFILE\b`), "INTO OUTFILE"},
	{regexp.MustCompile(`(?i)\bINTO\s+DUMPFILE\b`), "INTO DUMPFILE"},
	{regexp.MustCompile(`(?i)\bLOAD\s+DATA\b`), "LOAD DATA"},
	{regexp.MustCompile(`(?i)\bFOR\s+UPDATE\b`), "locking read"},
	{regexp.MustCompile(`(?i)\bLOCK\s+IN\s+SHARE\s+MODE\b`), "locking read"},

	{regexp.MustCompile(`(?i)\bSLEEP\s*\(`), "SLEEP function"},
	{regexp.MustCompile(`(?i)\bBENCHMARK\s*\(`), "BENCHMARK function"},
	{regexp.MustCompile(`(?i)\bGET_LOCK\s*\(`), "GET_LOCK function"},
	{regexp.MustCompile(`(?i)\bRELEASE_LOCK\s*\(`), "RELEASE_LOCK function"},
	{regexp.MustCompile(`(?i)\bIS_FREE_LOCK\s*\(`), "IS_FREE_LOCK function"},
	{regexp.MustCompile(`(?i)\bIS_USED_LOCK\s*\(`), "IS_USED_LOCK function"},

	// Comments can hide the tail of a statement.
	{regexp.MustCompile(`--`), "SQL comment"},
	{regexp.MustCompile(`/\*`), "SQL block comment"},
	{regexp.MustCompile(`#`), "SQL comment"},
}

// ValidatePatterns rejects stacked statements and the constructs above.
// It works on raw text, so a literal containing a blocked word is refused
// too.
func ValidatePatterns(sqlText string) error {
	s := strings.TrimSpace(sqlText)
	if s == "" {
		return &RejectionError{Reason: "empty query"}
	}

	// A single trailing semicolon is fine.
	if strings.Contains(strings.TrimRight(s, "; \t\n\r"), ";") {
		return &RejectionError{Reason: "multi-statement queries are not allowed", Detail: ";"}
	}

	for _, p := range blockedPatterns {
		if p.re.MatchString(s) {
			return &RejectionError{Reason: "query contains blocked pattern", Detail: p.reason}
		}
	}
	return nil
}
