// Package schema extracts table and column metadata from a MySQL database
// and renders it as plain text for LLM prompts.
package schema

// Column describes one table column.
type Column struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Nullable     bool    `json:"nullable"`
	IsPrimaryKey bool    `json:"isPrimaryKey"`
	Extra        string  `json:"extra"`
	Default      *string `json:"default,omitempty"`
	Length       string  `json:"length,omitempty"`
}

// Index describes a secondary index or foreign key.
type Index struct {
	Type       string   `json:"type"`
	Name       string   `json:"name,omitempty"`
	Columns    []string `json:"columns"`
	References string   `json:"references,omitempty"`
}

// Table groups the columns, primary key and indexes of one table.
// PrimaryKeys only names columns present in Columns.
type Table struct {
	Name        string   `json:"name"`
	Columns     []Column `json:"columns"`
	PrimaryKeys []string `json:"primaryKeys"`
	Indexes     []Index  `json:"indexes"`
}

func newTable(name string) *Table {
	return &Table{
		Name:        name,
		Columns:     []Column{},
		PrimaryKeys: []string{},
		Indexes:     []Index{},
	}
}

func (t *Table) addColumn(c Column) {
	t.Columns = append(t.Columns, c)
	if c.IsPrimaryKey {
		t.PrimaryKeys = append(t.PrimaryKeys, c.Name)
	}
}

// Schema is the extracted model together with its text rendering.
type Schema struct {
	Tables    []Table `json:"tables"`
	Formatted string  `json:"formatted"`
}

// NewSchema renders tables and wraps them.
func NewSchema(tables []Table) *Schema {
	if tables == nil {
		tables = []Table{}
	}
	return &Schema{Tables: tables, Formatted: Format(tables)}
}
