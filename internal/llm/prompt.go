package llm

import (
	"regexp"
	"strings"
)

const sqlPromptTemplate = `You are a MySQL expert. Based on the following database schema, write a MySQL query for the request.

Database Schema:
%SCHEMA%

Request: %REQUEST%

Write only the SQL query, nothing else. Do not include markdown code blocks.`

// BuildSQLPrompt wraps request with schema context. Without a schema the
// request is sent as is.
func BuildSQLPrompt(request, schema string) string {
	if schema == "" {
		return request
	}
	r := strings.NewReplacer("%SCHEMA%", schema, "%REQUEST%", request)
	return r.Replace(sqlPromptTemplate)
}

var (
	fenceOpenRe  = regexp.MustCompile("(?i)```sql?")
	leadingSQLRe = regexp.MustCompile(`(?i)^sql\s*`)
)

// StripCodeFences removes markdown fences and a leading "sql" language tag
// from model output.
func StripCodeFences(s string) string {
	s = fenceOpenRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(strings.ReplaceAll(s, "```", ""))
	return strings.TrimSpace(leadingSQLRe.ReplaceAllString(s, ""))
}
