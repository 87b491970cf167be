package transformer

import "sync"

// Row is a pooled container holding one converted record as bind values.
//
// Ownership contract:
//   - The batch that holds a Row owns it until the batch is flushed.
//   - After the insert returns, the batch calls Free on every Row.
//   - On error paths rows are dropped, not re-pooled, because the failed
//     insert may still reference r.V in driver-side error values.
type Row struct {
	V    []any
	Line int // 1-based input line the record started on
}

var rowPool sync.Pool

// GetRow returns a pooled Row with length colCount. All elements are nil.
func GetRow(colCount int) *Row {
	if v := rowPool.Get(); v != nil {
		r := v.(*Row)
		if cap(r.V) < colCount {
			r.V = make([]any, colCount)
		}
		r.V = r.V[:colCount]
		for i := range r.V {
			r.V[i] = nil
		}
		r.Line = 0
		return r
	}
	return &Row{V: make([]any, colCount)}
}

// Free returns the Row to the pool.
// Call this only when nothing can still observe r or r.V.
func (r *Row) Free() {
	rowPool.Put(r)
}

// Drop discards the Row without returning it to the pool.
func (r *Row) Drop() {
	r.V = nil
	r.Line = 0
}
