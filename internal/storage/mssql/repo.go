// Package mssql registers the "mssql" backend on database/sql.
//
// The package does not import a driver itself; the "sqlserver" driver is
// registered by storage/all. Tests swap the driver name.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"csvimport/internal/schema"
	"csvimport/internal/storage"
)

func init() {
	storage.Register("mssql", New)
}

// driverName is the database/sql driver used by New.
var driverName = "sqlserver"

// Dialect is the SQL Server flavor of generated SQL.
var Dialect = storage.Dialect{
	Name:        "mssql",
	QuoteIdent:  quoteIdent,
	Placeholder: func(n int) string { return "@p" + strconv.Itoa(n) },
	TypeName:    typeName,
}

// quoteIdent returns a bracket-quoted identifier, escaping ']' as ']]'.
func quoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func typeName(t schema.ColumnType) string {
	switch t {
	case schema.Integer:
		return "BIGINT"
	case schema.Real:
		return "FLOAT"
	default:
		return "NVARCHAR(MAX)"
	}
}

// New opens cfg.DSN with the sqlserver driver and validates connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}
	return &storage.SQLRepository{DB: db, Dialect: Dialect}, nil
}
