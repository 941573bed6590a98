// internal/schema/ddl.go
package schema

import (
	"regexp"
	"strings"
)

var (
	createTableRe = regexp.MustCompile("(?i)CREATE\\s+(?:TEMPORARY\\s+)?TABLE\\s+(?:IF\\s+NOT\\s+EXISTS\\s+)?(?:[`\"]?\\w+[`\"]?\\.)?[`\"]?(\\w+)[`\"]?\\s*\\(")
	constraintRe  = regexp.MustCompile("(?i)^CONSTRAINT\\s+(?:[`\"]?(\\w+)[`\"]?\\s+)?")
	primaryKeyRe  = regexp.MustCompile(`(?i)^PRIMARY\s+KEY`)
	foreignKeyRe  = regexp.MustCompile("(?i)^FOREIGN\\s+KEY\\s*(?:[`\"]?(\\w+)[`\"]?\\s*)?\\(([^)]+)\\)\\s*REFERENCES\\s+[`\"]?(\\w+)[`\"]?\\s*\\(([^)]+)\\)")
	indexRe       = regexp.MustCompile("(?i)^(UNIQUE\\s+|FULLTEXT\\s+|SPATIAL\\s+)?(?:KEY|INDEX)\\s+(?:[`\"]?(\\w+)[`\"]?\\s*)?\\(")
	uniqueRe      = regexp.MustCompile("(?i)^UNIQUE\\s*(?:[`\"]?(\\w+)[`\"]?\\s*)?\\(")
	columnRe      = regexp.MustCompile("^[`\"]?(\\w+)[`\"]?\\s+(\\w+)")
	typeWordRe    = regexp.MustCompile(`^\s*(\w+)`)
	defaultRe     = regexp.MustCompile(`(?i)\bDEFAULT\s+('(?:[^']|'')*'|\S+)`)
	skipLineRe    = regexp.MustCompile(`(?i)^(CHECK|PERIOD)\b`)
)

// ParseDDL extracts tables from CREATE TABLE statements, for example the
// output of SHOW CREATE TABLE or a mysqldump --no-data file.
func ParseDDL(ddl string) []Table {
	tables := []Table{}

	for _, loc := range createTableRe.FindAllStringSubmatchIndex(ddl, -1) {
		name := ddl[loc[2]:loc[3]]
		body, ok := balancedBody(ddl, loc[1]-1)
		if !ok {
			continue
		}
		tables = append(tables, parseTableBody(name, body))
	}

	return tables
}

// balancedBody returns the text between the parenthesis at open and its
// matching close, skipping quoted strings.
func balancedBody(s string, open int) (string, bool) {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[open+1 : i], true
			}
		}
	}
	return "", false
}

// splitDefinitions splits a table body on commas outside parentheses and
// quotes.
func splitDefinitions(body string) []string {
	var parts []string
	depth, start := 0, 0
	var quote byte
	for i := 0; i < len(body); i++ {
		c := body[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, body[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, body[start:])
}

func parseTableBody(name, body string) Table {
	t := newTable(name)
	var primaryKeys []string

	for _, def := range splitDefinitions(body) {
		line := strings.TrimSpace(def)
		if line == "" || skipLineRe.MatchString(line) {
			continue
		}

		constraintName := ""
		if m := constraintRe.FindStringSubmatch(line); m != nil {
			if isConstraintKeyword(m[1]) {
				line = strings.TrimSpace(line[len("CONSTRAINT"):])
			} else {
				constraintName = m[1]
				line = strings.TrimSpace(line[len(m[0]):])
			}
			if skipLineRe.MatchString(line) {
				continue
			}
		}

		switch {
		case primaryKeyRe.MatchString(line):
			if open := strings.IndexByte(line, '('); open >= 0 {
				if cols, ok := balancedBody(line, open); ok {
					primaryKeys = append(primaryKeys, identList(cols)...)
				}
			}

		case foreignKeyRe.MatchString(line):
			m := foreignKeyRe.FindStringSubmatch(line)
			idxName := constraintName
			if idxName == "" {
				idxName = m[1]
			}
			t.Indexes = append(t.Indexes, Index{
				Type:       "FOREIGN KEY",
				Name:       idxName,
				Columns:    identList(m[2]),
				References: m[3] + "(" + strings.Join(identList(m[4]), ", ") + ")",
			})

		case indexRe.MatchString(line):
			m := indexRe.FindStringSubmatch(line)
			cols, ok := balancedBody(line, len(m[0])-1)
			if !ok {
				continue
			}
			typ := "INDEX"
			if kind := strings.ToUpper(strings.TrimSpace(m[1])); kind != "" {
				typ = kind
			}
			t.Indexes = append(t.Indexes, Index{Type: typ, Name: m[2], Columns: identList(cols)})

		case uniqueRe.MatchString(line):
			m := uniqueRe.FindStringSubmatch(line)
			cols, ok := balancedBody(line, len(m[0])-1)
			if !ok {
				continue
			}
			idxName := m[1]
			if idxName == "" {
				idxName = constraintName
			}
			t.Indexes = append(t.Indexes, Index{Type: "UNIQUE", Name: idxName, Columns: identList(cols)})

		default:
			if c, inlinePK, ok := parseColumn(line); ok {
				t.Columns = append(t.Columns, c)
				if inlinePK {
					primaryKeys = append(primaryKeys, c.Name)
				}
			}
		}
	}

	// The key list may come after the columns it names.
	known := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		known[c.Name] = true
	}
	seen := make(map[string]bool)
	for _, pk := range primaryKeys {
		if known[pk] && !seen[pk] {
			seen[pk] = true
			t.PrimaryKeys = append(t.PrimaryKeys, pk)
		}
	}
	for i := range t.Columns {
		if seen[t.Columns[i].Name] {
			t.Columns[i].IsPrimaryKey = true
		}
	}

	return *t
}

func isConstraintKeyword(s string) bool {
	switch strings.ToUpper(s) {
	case "PRIMARY", "FOREIGN", "UNIQUE", "CHECK":
		return true
	}
	return false
}

// attributeWords end the type part of a column definition.
var attributeWords = map[string]bool{
	"NOT": true, "NULL": true, "DEFAULT": true, "AUTO_INCREMENT": true,
	"PRIMARY": true, "UNIQUE": true, "KEY": true, "COMMENT": true,
	"COLLATE": true, "CHARSET": true, "GENERATED": true, "AS": true,
	"ON": true, "REFERENCES": true, "CHECK": true, "VISIBLE": true,
	"INVISIBLE": true, "STORAGE": true, "COLUMN_FORMAT": true, "SRID": true,
}

// columnType reads the type words that follow the column name, such as
// "int unsigned" or "double precision", and the first parenthesized length
// among them. It returns the remaining attribute text.
func columnType(base, s string) (typ, length, rest string) {
	words := []string{strings.ToUpper(base)}
	for {
		trimmed := strings.TrimLeft(s, " \t\r\n")
		if strings.HasPrefix(trimmed, "(") && length == "" {
			body, ok := balancedBody(trimmed, 0)
			if !ok {
				break
			}
			length = strings.TrimSpace(body)
			s = trimmed[len(body)+2:]
			continue
		}
		m := typeWordRe.FindStringSubmatch(s)
		if m == nil {
			break
		}
		word := strings.ToUpper(m[1])
		// CHARACTER SET is an attribute; CHARACTER VARYING is a type.
		if attributeWords[word] || word == "CHARACTER" {
			break
		}
		words = append(words, word)
		s = s[len(m[0]):]
	}
	return strings.Join(words, " "), length, s
}

func parseColumn(line string) (Column, bool, bool) {
	m := columnRe.FindStringSubmatch(line)
	if m == nil {
		return Column{}, false, false
	}
	typ, length, rest := columnType(m[2], line[len(m[0]):])
	upper := strings.ToUpper(rest)

	c := Column{
		Name:     m[1],
		Type:     typ,
		Length:   length,
		Nullable: !strings.Contains(upper, "NOT NULL"),
	}
	if strings.Contains(upper, "AUTO_INCREMENT") {
		c.Extra = "auto_increment"
	}
	if d := defaultRe.FindStringSubmatch(rest); d != nil && !strings.EqualFold(d[1], "NULL") {
		v := strings.Trim(d[1], "'")
		c.Default = &v
	}
	return c, strings.Contains(upper, "PRIMARY KEY"), true
}

func identList(s string) []string {
	parts := splitDefinitions(s)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		// KEY idx (name(10)) keeps only the column
		if i := strings.IndexByte(p, '('); i > 0 {
			p = p[:i]
		}
		if f := strings.Fields(p); len(f) > 0 {
			p = f[0]
		}
		p = strings.Trim(strings.TrimSpace(p), "`\"")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
