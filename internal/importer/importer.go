// Package importer loads one CSV file into one database table.
//
// An import runs in two passes over the file. Pass 1 reads the header,
// sanitizes column names and infers a type per column without touching the
// destination. Pass 2 opens the destination, replaces the table and inserts
// converted rows in batches, all inside a single transaction.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"csvimport/internal/ident"
	"csvimport/internal/metrics"
	csvparser "csvimport/internal/parser/csv"
	"csvimport/internal/probe"
	"csvimport/internal/schema"
	"csvimport/internal/storage"
	"csvimport/internal/transformer"
)

// DefaultBatchSize is the number of rows per insert batch when Engine.BatchSize
// is not set.
const DefaultBatchSize = 1000

// maxFallbackLogs caps per-cell fallback log lines per import; the total is
// always logged.
const maxFallbackLogs = 20

// Logger is the minimal logging interface used by the engine.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// RepositoryFactory opens a destination. storage.New is the default.
type RepositoryFactory func(ctx context.Context, cfg storage.Config) (storage.Repository, error)

// Engine runs imports. The zero value is usable.
type Engine struct {
	Logger    Logger
	BatchSize int

	// NewRepository is a seam for tests; nil uses storage.New.
	NewRepository RepositoryFactory
}

// Request names the input file and the destination.
type Request struct {
	InputPath string

	// Kind is the storage backend; empty means "sqlite".
	Kind string

	// OutputPath is the sqlite file path or the DSN of other backends.
	OutputPath string
}

// Plan is the outcome of pass 1.
type Plan struct {
	Headers []string // raw header cells, BOM stripped
	Table   schema.Table
	Rows    int // data records seen
}

// Result summarizes a committed import.
type Result struct {
	Table   string
	Rows    int
	Columns int
}

// Plan runs pass 1 only: header, sanitizing and type inference. It never
// opens a destination.
//
// Errors:
//   - filesystem errors (errors.Is with fs.ErrNotExist holds for a missing file).
//   - ErrNoHeader, ErrBlankHeader, ErrMalformedCSV (all match ErrValidation).
func (e *Engine) Plan(ctx context.Context, inputPath string) (Plan, error) {
	logf := e.logger()

	start := time.Now()
	headers, err := csvparser.ReadHeader(ctx, inputPath)
	if err != nil {
		err = classifyInputErr(err)
		metrics.RecordStep("header", start, err)
		return Plan{}, err
	}
	if blankHeader(headers) {
		metrics.RecordStep("header", start, ErrBlankHeader)
		return Plan{}, ErrBlankHeader
	}
	metrics.RecordStep("header", start, nil)

	names := ident.Headers(headers)

	inferStart := time.Now()
	res, err := probe.InferFile(ctx, inputPath, len(names))
	metrics.RecordStep("infer", inferStart, err)
	if err != nil {
		return Plan{}, classifyInputErr(err)
	}
	metrics.RecordRecords(metrics.KindInferred, res.Rows)

	tbl := schema.Table{Name: ident.TableName(inputPath)}
	for i, n := range names {
		tbl.Columns = append(tbl.Columns, schema.Column{Name: n, Type: res.Types[i]})
	}
	logf("stage=infer ok duration=%s table=%s columns=%d rows=%d",
		durMS(inferStart), tbl.Name, len(tbl.Columns), res.Rows)

	return Plan{Headers: headers, Table: tbl, Rows: res.Rows}, nil
}

// Import runs both passes and commits the table, or leaves the destination
// as it was.
func (e *Engine) Import(ctx context.Context, req Request) (Result, error) {
	plan, err := e.Plan(ctx, req.InputPath)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	rows, err := e.load(ctx, req, plan)
	metrics.RecordStep("load", start, err)
	if err != nil {
		return Result{}, err
	}
	e.logger()("stage=load ok duration=%s rows=%d", durMS(start), rows)

	return Result{Table: plan.Table.Name, Rows: rows, Columns: len(plan.Table.Columns)}, nil
}

func (e *Engine) load(ctx context.Context, req Request, plan Plan) (n int, err error) {
	logf := e.logger()

	kind := req.Kind
	if kind == "" {
		kind = "sqlite"
	}
	repo, err := e.newRepository()(ctx, storage.Config{Kind: kind, DSN: req.OutputPath})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	defer func() {
		if cerr := repo.Close(); cerr != nil {
			logf("close destination: %v", cerr)
		}
	}()

	tx, err := repo.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	// no-op after a successful Commit
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && err != nil {
			logf("rollback: %v", rerr)
		}
	}()

	if err := tx.ReplaceTable(ctx, plan.Table); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	rows, err := e.insertAll(ctx, tx, req.InputPath, plan.Table)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	return rows, nil
}

// insertAll streams the data records, converts them and inserts them in
// batches. Pooled rows are freed after a successful insert and dropped on
// error.
func (e *Engine) insertAll(ctx context.Context, tx storage.Tx, path string, tbl schema.Table) (int, error) {
	logf := e.logger()
	size := e.batchSize()
	cols := tbl.ColumnNames()

	types := make([]schema.ColumnType, len(tbl.Columns))
	for i, c := range tbl.Columns {
		types[i] = c.Type
	}

	var (
		cur       *transformer.Row // row being converted
		fallbacks int
		inserted  int
	)
	conv := transformer.Converter{
		Types: types,
		OnFallback: func(col int, t schema.ColumnType, raw string) {
			fallbacks++
			if fallbacks <= maxFallbackLogs {
				logf("null_fallback line=%d column=%s type=%s value=%q", cur.Line, cols[col], t, raw)
			}
		},
	}

	batch := make([]*transformer.Row, 0, size)
	vals := make([][]any, 0, size)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		vals = vals[:0]
		for _, r := range batch {
			vals = append(vals, r.V)
		}
		n, err := tx.InsertRows(ctx, tbl.Name, cols, vals)
		if err != nil {
			for _, r := range batch {
				r.Drop()
			}
			batch = batch[:0]
			return fmt.Errorf("%w: %w", ErrDatabase, err)
		}
		for _, r := range batch {
			r.Free()
		}
		metrics.RecordBatch(len(batch))
		batch = batch[:0]
		inserted += int(n)
		return nil
	}

	_, err := csvparser.StreamRecords(ctx, path, len(cols), func(ln int, fields []string) error {
		r := transformer.GetRow(len(cols))
		r.Line = ln
		cur = r
		conv.ConvertRow(fields, r.V)
		batch = append(batch, r)
		if len(batch) >= size {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}

	for _, r := range batch {
		r.Drop()
	}

	if fallbacks > 0 {
		logf("null_fallback total=%d", fallbacks)
		metrics.RecordRecords(metrics.KindNullFallback, fallbacks)
	}
	if err != nil {
		if errors.Is(err, ErrDatabase) {
			return 0, err
		}
		return 0, classifyInputErr(err)
	}

	metrics.RecordRecords(metrics.KindInserted, inserted)
	return inserted, nil
}

func (e *Engine) newRepository() RepositoryFactory {
	if e.NewRepository != nil {
		return e.NewRepository
	}
	return storage.New
}

func (e *Engine) batchSize() int {
	if e.BatchSize > 0 {
		return e.BatchSize
	}
	return DefaultBatchSize
}

func (e *Engine) logger() func(format string, v ...any) {
	if e.Logger == nil {
		l := log.New(discardWriter{}, "", 0)
		return l.Printf
	}
	return e.Logger.Printf
}

// classifyInputErr maps reader errors onto the package's error kinds.
func classifyInputErr(err error) error {
	switch {
	case errors.Is(err, csvparser.ErrNoHeader):
		return ErrNoHeader
	case errors.Is(err, csvparser.ErrBlankHeader):
		return ErrBlankHeader
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("CSV file not found: %w", err)
	case csvparser.IsParseError(err):
		return fmt.Errorf("%w: %w", ErrMalformedCSV, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("read CSV: %w", err)
	}
}

func blankHeader(headers []string) bool {
	for _, h := range headers {
		if strings.TrimSpace(h) != "" {
			return false
		}
	}
	return true
}

func durMS(start time.Time) time.Duration { return time.Since(start).Truncate(time.Millisecond) }

type discardWriter struct{}

func (discardWriter) Write(p []byte) (n int, err error) { return len(p), nil }
