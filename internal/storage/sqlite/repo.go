// Package sqlite registers the "sqlite" backend on the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "modernc.org/sqlite"

	"csvimport/internal/schema"
	"csvimport/internal/storage"
)

func init() {
	storage.Register("sqlite", New)
}

// Dialect is the SQLite flavor of generated SQL.
var Dialect = storage.Dialect{
	Name:        "sqlite",
	QuoteIdent:  storage.QuoteDouble,
	Placeholder: storage.QuestionMark,
	TypeName:    typeName,
}

func typeName(t schema.ColumnType) string {
	switch t {
	case schema.Integer:
		return "INTEGER"
	case schema.Real:
		return "REAL"
	default:
		return "TEXT"
	}
}

// pragmas applied to every connection.
var pragmas = []string{
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// DSN turns a database file path into a modernc DSN with the connection
// pragmas and an immediate write lock on BEGIN. The path is percent-escaped,
// so '#', '%' and '?' in file names name exactly that file.
//
// A value that already starts with "file:" is used as is.
func DSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	q.Set("_txlock", "immediate")
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?" + q.Encode()
}

// New opens (creating if needed) the SQLite file at cfg.DSN.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: empty database path")
	}

	db, err := sql.Open("sqlite", DSN(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// one writer; keeps the import tx and pragmas on the same connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &storage.SQLRepository{DB: db, Dialect: Dialect}, nil
}
