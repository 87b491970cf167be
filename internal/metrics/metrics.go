// Package metrics is the backend-agnostic metrics facade used by the importer.
//
// Core code only calls the package-level helpers; a concrete backend (see
// metrics/datadog) is installed once at startup with SetBackend. Until then
// every call goes to a no-op backend.
package metrics

import (
	"sync"
	"time"
)

// Labels are metric dimensions, e.g. {"step": "insert", "status": "ok"}.
type Labels map[string]string

// Metric names emitted by the importer.
const (
	StepTotal           = "csvimport_step_total"
	StepDurationSeconds = "csvimport_step_duration_seconds"
	RecordsTotal        = "csvimport_records_total"
	BatchesTotal        = "csvimport_batches_total"
	BatchRows           = "csvimport_batch_rows"
)

// Record kinds used with RecordsTotal.
const (
	KindInferred     = "inferred"
	KindInserted     = "inserted"
	KindNullFallback = "null_fallback"
)

// Backend receives metric observations. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

// Flusher is implemented by backends that buffer observations.
type Flusher interface {
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b as the process-wide backend. A nil b restores the
// no-op backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		b = nopBackend{}
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter adds delta to the named counter.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram records one sample for the named histogram.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush flushes the installed backend if it buffers. It returns nil for
// backends that do not.
func Flush() error {
	if f, ok := current().(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// RecordStep counts one step outcome and observes its duration.
// status is "ok" when err is nil and "error" otherwise.
func RecordStep(step string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	l := Labels{"step": step, "status": status}
	IncCounter(StepTotal, 1, l)
	ObserveHistogram(StepDurationSeconds, time.Since(start).Seconds(), l)
}

// RecordRecords adds n to the records counter for kind.
func RecordRecords(kind string, n int) {
	if n <= 0 {
		return
	}
	IncCounter(RecordsTotal, float64(n), Labels{"kind": kind})
}

// RecordBatch counts one flushed insert batch of rows rows.
func RecordBatch(rows int) {
	IncCounter(BatchesTotal, 1, nil)
	ObserveHistogram(BatchRows, float64(rows), nil)
}
