// Package postgres registers the "postgres" backend on pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"csvimport/internal/schema"
	"csvimport/internal/storage"
)

func init() {
	storage.Register("postgres", New)
}

// Dialect is the Postgres flavor of generated SQL.
var Dialect = storage.Dialect{
	Name:        "postgres",
	QuoteIdent:  quoteIdent,
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	TypeName:    typeName,
}

func quoteIdent(id string) string { return pgx.Identifier{id}.Sanitize() }

func typeName(t schema.ColumnType) string {
	switch t {
	case schema.Integer:
		return "BIGINT"
	case schema.Real:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

// Repo implements storage.Repository over a pgx pool.
type Repo struct {
	pool *pgxpool.Pool
}

// New connects to the Postgres DSN in cfg.DSN.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repo{pool: pool}, nil
}

// Begin implements storage.Repository.
func (r *Repo) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Close implements storage.Repository.
func (r *Repo) Close() error {
	r.pool.Close()
	return nil
}

// Tx is one import transaction. DDL is transactional in Postgres, so a
// rollback also restores a dropped table.
type Tx struct {
	tx pgx.Tx

	// ctx of the last call; Commit/Rollback in storage.Tx take none
	ctx context.Context
}

func (t *Tx) context() context.Context {
	if t.ctx == nil {
		return context.Background()
	}
	return t.ctx
}

// ReplaceTable implements storage.Tx.
func (t *Tx) ReplaceTable(ctx context.Context, tbl schema.Table) error {
	t.ctx = ctx

	create, err := Dialect.CreateTableSQL(tbl)
	if err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, Dialect.DropTableSQL(tbl.Name)); err != nil {
		return fmt.Errorf("postgres: drop table %s: %w", tbl.Name, err)
	}
	if _, err := t.tx.Exec(ctx, create); err != nil {
		return fmt.Errorf("postgres: create table %s: %w", tbl.Name, err)
	}
	return nil
}

// InsertRows implements storage.Tx. All rows go out in one pgx.Batch of
// single-row inserts, so the bind-parameter limit never depends on the
// batch size.
func (t *Tx) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	t.ctx = ctx
	if len(rows) == 0 {
		return 0, nil
	}

	b, err := buildBatch(table, columns, rows)
	if err != nil {
		return 0, err
	}

	br := t.tx.SendBatch(ctx, b)
	var n int64
	for range rows {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return n, fmt.Errorf("postgres: insert into %s: %w", table, err)
		}
		n += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return n, fmt.Errorf("postgres: insert into %s: %w", table, err)
	}
	return n, nil
}

// buildBatch queues one insert per row. It is pure so the statement and
// argument layout can be tested without a server.
func buildBatch(table string, columns []string, rows [][]any) (*pgx.Batch, error) {
	q := Dialect.InsertSQL(table, columns)
	b := &pgx.Batch{}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("postgres: row %d has %d values, want %d", i, len(row), len(columns))
		}
		b.Queue(q, row...)
	}
	return b, nil
}

// Commit implements storage.Tx.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(t.context()); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// Rollback implements storage.Tx. It is a no-op after Commit. It does not
// use the caller's context, which may already be canceled.
func (t *Tx) Rollback() error {
	err := t.tx.Rollback(context.Background())
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
