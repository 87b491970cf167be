// Package probe implements pass 1 of an import: a full, read-only scan of the
// CSV data rows that infers one storage type per column.
//
// Every column starts at schema.Integer and is joined with the type observed
// in each non-null cell, so a column only ever moves up
// Integer < Real < Text. A column with no non-null cells stays Integer.
//
// Inference holds one record in memory at a time.
package probe

import (
	"context"
	"fmt"
	"math"
	"strconv"

	csvparser "csvimport/internal/parser/csv"
	"csvimport/internal/schema"
)

// ClassifyCell returns the type implied by a single cell. ok is false for null
// tokens, which never influence a column's type.
//
//   - optional sign followed by ASCII digits only -> Integer
//   - otherwise a finite float per strconv.ParseFloat -> Real
//   - anything else -> Text
func ClassifyCell(cell string) (t schema.ColumnType, ok bool) {
	v, ok := schema.NonNull(cell)
	if !ok {
		return schema.Integer, false
	}
	if isIntegerLiteral(v) {
		return schema.Integer, true
	}
	if isFiniteFloat(v) {
		return schema.Real, true
	}
	return schema.Text, true
}

// isIntegerLiteral matches ^[+-]?[0-9]+$. It is pattern based on purpose:
// a 30-digit value still classifies as Integer even though it overflows int64.
func isIntegerLiteral(s string) bool {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isFiniteFloat(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Inferrer accumulates per-column types over normalized records.
// The zero value is not usable; call NewInferrer.
type Inferrer struct {
	types []schema.ColumnType
	rows  int
}

// NewInferrer returns an Inferrer for width columns, all at schema.Integer.
func NewInferrer(width int) *Inferrer {
	return &Inferrer{types: make([]schema.ColumnType, width)}
}

// Observe folds one record into the running types. fields must already be
// normalized to the inferrer's width; extra fields are ignored.
func (in *Inferrer) Observe(fields []string) {
	in.rows++
	for i := range in.types {
		if i >= len(fields) {
			break
		}
		if t, ok := ClassifyCell(fields[i]); ok {
			in.types[i] = schema.Join(in.types[i], t)
		}
	}
}

// Types returns a copy of the current per-column types.
func (in *Inferrer) Types() []schema.ColumnType {
	return append([]schema.ColumnType(nil), in.types...)
}

// Rows returns the number of records observed.
func (in *Inferrer) Rows() int { return in.rows }

// Result is the outcome of a full inference pass.
type Result struct {
	Types []schema.ColumnType
	Rows  int
}

// InferFile scans every data record of path (header skipped) and returns the
// final per-column types.
//
// Errors:
//   - filesystem errors opening path.
//   - CSV parse errors, wrapped with "infer:".
func InferFile(ctx context.Context, path string, width int) (Result, error) {
	in := NewInferrer(width)
	_, err := csvparser.StreamRecords(ctx, path, width, func(_ int, fields []string) error {
		in.Observe(fields)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("infer: %w", err)
	}
	return Result{Types: in.Types(), Rows: in.Rows()}, nil
}
