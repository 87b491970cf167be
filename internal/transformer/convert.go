// Package transformer converts raw CSV cells into bind values for pass 2 of
// an import, once every column's final type is fixed.
package transformer

import (
	"math"
	"strconv"

	"csvimport/internal/schema"
)

// FallbackFunc observes a non-null cell that could not be converted to its
// column's type and was stored as NULL instead. col is the 0-based column.
type FallbackFunc func(col int, t schema.ColumnType, raw string)

// ConvertCell converts one cell to a value compatible with t.
//
//   - null token          -> nil
//   - schema.Integer      -> int64, or nil when ParseInt fails
//   - schema.Real         -> finite float64, or nil otherwise
//   - schema.Text         -> the trimmed text
//
// fellBack reports a non-null cell that degraded to nil. This happens only when
// conversion disagrees with inference, e.g. an integer literal beyond int64.
func ConvertCell(cell string, t schema.ColumnType) (v any, fellBack bool) {
	s, ok := schema.NonNull(cell)
	if !ok {
		return nil, false
	}

	switch t {
	case schema.Integer:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, true
		}
		return n, false

	case schema.Real:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, true
		}
		return f, false

	default:
		return s, false
	}
}

// Converter converts whole records using a fixed per-column type list.
type Converter struct {
	Types []schema.ColumnType

	// OnFallback, when set, is called for every cell that degraded to NULL.
	OnFallback FallbackFunc
}

// ConvertRow converts fields (normalized to len(c.Types)) into dst, which must
// have the same length, and returns dst.
func (c *Converter) ConvertRow(fields []string, dst []any) []any {
	for i, t := range c.Types {
		var raw string
		if i < len(fields) {
			raw = fields[i]
		}
		v, fellBack := ConvertCell(raw, t)
		if fellBack && c.OnFallback != nil {
			c.OnFallback(i, t, raw)
		}
		dst[i] = v
	}
	return dst
}
