package storage

import (
	"fmt"
	"strings"

	"csvimport/internal/schema"
)

// Dialect captures the per-engine differences in generated SQL.
type Dialect struct {
	// Name prefixes error messages ("sqlite", "postgres", ...).
	Name string

	// QuoteIdent quotes one identifier.
	QuoteIdent func(string) string

	// Placeholder returns the bind marker for the n-th (1-based) parameter.
	Placeholder func(n int) string

	// TypeName maps an inferred type to the engine's column type.
	TypeName func(schema.ColumnType) string
}

// QuoteDouble is ANSI identifier quoting ("name").
func QuoteDouble(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// QuestionMark is the positional "?" placeholder.
func QuestionMark(int) string { return "?" }

// DropTableSQL returns DROP TABLE IF EXISTS for table.
func (d Dialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdent(table)
}

// CreateTableSQL returns CREATE TABLE for t with columns in order.
func (d Dialect) CreateTableSQL(t schema.Table) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("%s: table name is empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: table %s has no columns", d.Name, t.Name)
	}

	parts := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		parts = append(parts, d.QuoteIdent(c.Name)+" "+d.TypeName(c.Type))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.QuoteIdent(t.Name), strings.Join(parts, ", ")), nil
}

// InsertSQL returns a single-row INSERT with one placeholder per column.
func (d Dialect) InsertSQL(table string, columns []string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.QuoteIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.QuoteIdent(c))
	}
	b.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.Placeholder(i + 1))
	}
	b.WriteString(")")
	return b.String()
}
