// internal/schema/formatter.go
package schema

import "strings"

// NoTablesMessage is the rendering of an empty table list.
const NoTablesMessage = "No tables found in database."

// Format renders tables as the text block embedded in SQL-generation
// prompts. Output depends only on its input.
func Format(tables []Table) string {
	if len(tables) == 0 {
		return NoTablesMessage
	}

	var b strings.Builder
	b.WriteString("Database Schema:\n\n")

	for _, t := range tables {
		b.WriteString("Table: " + t.Name + "\n")

		if len(t.PrimaryKeys) > 0 {
			b.WriteString("  Primary Key: " + strings.Join(t.PrimaryKeys, ", ") + "\n")
		}

		b.WriteString("  Columns:\n")
		for _, c := range t.Columns {
			b.WriteString("    - " + c.Name + " " + c.Type)
			if c.Length != "" {
				b.WriteString("(" + c.Length + ")")
			}
			if c.Nullable {
				b.WriteString(" NULL")
			} else {
				b.WriteString(" NOT NULL")
			}
			if c.IsPrimaryKey {
				b.WriteString(" (PRIMARY KEY)")
			}
			if c.Extra == "auto_increment" {
				b.WriteString(" (AUTO_INCREMENT)")
			}
			b.WriteString("\n")
		}

		if len(t.Indexes) > 0 {
			b.WriteString("  Indexes:\n")
			for _, idx := range t.Indexes {
				b.WriteString("    - " + idx.Type + " " + idx.Name + " (" + strings.Join(idx.Columns, ", ") + ")")
				if idx.References != "" {
					b.WriteString(" REFERENCES " + idx.References)
				}
				b.WriteString("\n")
			}
		}

		b.WriteString("\n")
	}

	return b.String()
}
