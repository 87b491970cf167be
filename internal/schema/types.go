// Package schema defines the column type lattice and the null-token set shared
// by type inference and value conversion.
package schema

import (
	"fmt"
	"strings"
)

// ColumnType is an inferred storage type. Values are ordered by permissiveness:
// Integer < Real < Text. The zero value is Integer, the lattice bottom.
type ColumnType int

const (
	Integer ColumnType = iota
	Real
	Text
)

// String returns the SQL type name used in generated DDL.
func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "INTEGER"
	case Real:
		return "REAL"
	case Text:
		return "TEXT"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// Join returns the least permissive type that accommodates both a and b.
// It is commutative, associative and idempotent, so folding it over a column
// only ever moves the type up the chain.
func Join(a, b ColumnType) ColumnType {
	if b > a {
		return b
	}
	return a
}

// ParseColumnType parses "integer", "real" or "text" (case-insensitive).
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INTEGER":
		return Integer, nil
	case "REAL":
		return Real, nil
	case "TEXT":
		return Text, nil
	}
	return Integer, fmt.Errorf("schema: unknown column type %q", s)
}

// Column is one target column: a sanitized name and its final inferred type.
type Column struct {
	Name string
	Type ColumnType
}

// Table is the full target definition, columns in header order.
type Table struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the column names in order.
func (t Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}
