// Package storage defines the destination side of an import: a backend
// registry and the transactional operations the importer needs.
//
// A Repository hands out one transaction at a time. Inside it the importer
// replaces the target table (drop + create) and inserts batches; the whole
// sequence either commits or rolls back as a unit. Backends whose engine has
// transactional DDL (SQLite, Postgres, SQL Server) therefore leave the
// destination untouched when anything fails.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"csvimport/internal/schema"
)

// Config selects and configures a backend.
//
// Kind must match a registered backend ("sqlite", "postgres", "mssql").
// DSN is passed through to the backend; for sqlite it is a file path.
type Config struct {
	Kind string
	DSN  string
}

// Repository is a connection to one destination database.
type Repository interface {
	// Begin starts the import transaction.
	Begin(ctx context.Context) (Tx, error)

	// Close releases the connection. Call once.
	Close() error
}

// Tx is one import transaction.
//
// Rollback after a successful Commit must be a harmless no-op so callers can
// defer it unconditionally.
type Tx interface {
	// ReplaceTable drops t.Name if it exists and creates it with t.Columns in
	// order.
	ReplaceTable(ctx context.Context, t schema.Table) error

	// InsertRows inserts rows (each len(columns) wide) into table using
	// parameterized statements and returns the number of rows written.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	Commit() error
	Rollback() error
}

// Factory constructs a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers a backend under kind. Call it from a backend package's
// init function.
//
// Panics when kind is empty, f is nil, or kind is already registered.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New constructs a Repository using the backend registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("storage: unsupported kind=%s (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
