// internal/mysql/output.go
package mysql

import (
	"regexp"
	"strings"
)

// QueryResult is the parsed batch output of one statement.
type QueryResult struct {
	Success  bool     `json:"success"`
	Output   string   `json:"output"`
	Rows     []string `json:"rows"`
	Header   string   `json:"header"`
	RowCount int      `json:"rowCount"`
	HasTabs  bool     `json:"hasTabs"`
	Error    string   `json:"error,omitempty"`
}

// Failed builds an unsuccessful result carrying msg.
func Failed(msg string) QueryResult {
	return QueryResult{Success: false, Rows: []string{}, Error: msg}
}

var clientErrorPattern = regexp.MustCompile(`(?i)ERROR\s+\d+\s+\([^)]+\)(?:\s+at\s+line\s+\d+)?\s*:(.+)`)

var batchEscapes = strings.NewReplacer(`\n`, "\n", `\t`, "\t")

// ClientError returns the message of the first
// "ERROR <code> (<state>): <message>" line in out.
func ClientError(out string) (string, bool) {
	m := clientErrorPattern.FindStringSubmatch(out)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// ParseBatchOutput turns mysql -b output into a QueryResult. The first
// non-empty line is always the header; everything after it is a data row.
func ParseBatchOutput(out string) QueryResult {
	if msg, ok := ClientError(out); ok {
		return Failed(msg)
	}

	decoded := batchEscapes.Replace(out)

	var lines []string
	// Only line breaks are trimmed at the end: a trailing tab is an empty
	// last column.
	body := strings.TrimRight(strings.TrimLeft(decoded, " \t\r\n"), "\r\n")
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		// "mysql: [Warning] Using a password on the command line ..."
		if strings.Contains(trimmed, "Warning") && strings.Contains(trimmed, "mysql") {
			continue
		}
		lines = append(lines, strings.TrimRight(line, "\r"))
	}

	return resultFromLines(lines)
}

func resultFromLines(lines []string) QueryResult {
	res := QueryResult{Success: true, Rows: []string{}}
	if len(lines) > 0 {
		for _, l := range lines {
			if strings.Contains(l, "\t") {
				res.HasTabs = true
				break
			}
		}
		res.Header = lines[0]
		res.Rows = append(res.Rows, lines[1:]...)
	}
	res.RowCount = len(res.Rows)

	switch {
	case len(res.Rows) > 0:
		res.Output = strings.Join(res.Rows, "\n")
	case res.Header != "":
		res.Output = res.Header
	default:
		res.Output = "(0 rows)"
	}
	return res
}
