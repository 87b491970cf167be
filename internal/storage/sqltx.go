package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"csvimport/internal/schema"
)

// SQLRepository is a Repository over database/sql, shared by the backends
// whose driver plugs into database/sql (sqlite, mssql).
type SQLRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

// Begin implements Repository.
func (r *SQLRepository) Begin(ctx context.Context) (Tx, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin: %w", r.Dialect.Name, err)
	}
	return &sqlTx{tx: tx, d: r.Dialect}, nil
}

// Close implements Repository.
func (r *SQLRepository) Close() error { return r.DB.Close() }

type sqlTx struct {
	tx *sql.Tx
	d  Dialect

	// insert statement prepared on first use, keyed by its SQL text
	stmtSQL string
	stmt    *sql.Stmt
}

func (t *sqlTx) ReplaceTable(ctx context.Context, tbl schema.Table) error {
	create, err := t.d.CreateTableSQL(tbl)
	if err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, t.d.DropTableSQL(tbl.Name)); err != nil {
		return fmt.Errorf("%s: drop table %s: %w", t.d.Name, tbl.Name, err)
	}
	if _, err := t.tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("%s: create table %s: %w", t.d.Name, tbl.Name, err)
	}
	return nil
}

func (t *sqlTx) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	q := t.d.InsertSQL(table, columns)
	if t.stmt == nil || t.stmtSQL != q {
		if t.stmt != nil {
			_ = t.stmt.Close()
		}
		stmt, err := t.tx.PrepareContext(ctx, q)
		if err != nil {
			t.stmt = nil
			return 0, fmt.Errorf("%s: prepare insert into %s: %w", t.d.Name, table, err)
		}
		t.stmt, t.stmtSQL = stmt, q
	}

	var n int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return n, fmt.Errorf("%s: row has %d values, want %d", t.d.Name, len(row), len(columns))
		}
		if _, err := t.stmt.ExecContext(ctx, row...); err != nil {
			return n, fmt.Errorf("%s: insert into %s: %w", t.d.Name, table, err)
		}
		n++
	}
	return n, nil
}

func (t *sqlTx) Commit() error {
	t.closeStmt()
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", t.d.Name, err)
	}
	return nil
}

func (t *sqlTx) Rollback() error {
	t.closeStmt()
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (t *sqlTx) closeStmt() {
	if t.stmt != nil {
		_ = t.stmt.Close()
		t.stmt = nil
	}
}
