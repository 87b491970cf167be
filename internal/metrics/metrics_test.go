package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type call struct {
	kind   string
	name   string
	value  float64
	labels Labels
}

type recorder struct {
	mu       sync.Mutex
	calls    []call
	flushErr error
	flushed  int
}

func (r *recorder) IncCounter(name string, delta float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{"counter", name, delta, labels})
}

func (r *recorder) ObserveHistogram(name string, value float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{"histogram", name, value, labels})
}

func (r *recorder) Flush() error {
	r.flushed++
	return r.flushErr
}

// These tests mutate the process-wide backend and therefore do not run in parallel.

func TestDefaultBackendIsNop(t *testing.T) {
	SetBackend(nil)
	IncCounter(RecordsTotal, 1, nil)
	ObserveHistogram(StepDurationSeconds, 1, nil)
	if err := Flush(); err != nil {
		t.Fatalf("Flush on nop backend: %v", err)
	}
}

func TestRecordStep(t *testing.T) {
	r := &recorder{}
	SetBackend(r)
	t.Cleanup(func() { SetBackend(nil) })

	RecordStep("insert", time.Now(), nil)
	RecordStep("insert", time.Now(), errors.New("boom"))

	if len(r.calls) != 4 {
		t.Fatalf("calls=%d, want 4", len(r.calls))
	}
	if r.calls[0].name != StepTotal || r.calls[0].labels["status"] != "ok" {
		t.Fatalf("first call=%+v", r.calls[0])
	}
	if r.calls[1].kind != "histogram" || r.calls[1].value < 0 {
		t.Fatalf("second call=%+v", r.calls[1])
	}
	if r.calls[2].labels["status"] != "error" {
		t.Fatalf("third call=%+v", r.calls[2])
	}
}

func TestRecordRecords_SkipsZero(t *testing.T) {
	r := &recorder{}
	SetBackend(r)
	t.Cleanup(func() { SetBackend(nil) })

	RecordRecords(KindInserted, 0)
	RecordRecords(KindNullFallback, 3)
	RecordBatch(250)

	if len(r.calls) != 3 {
		t.Fatalf("calls=%+v, want 3", r.calls)
	}
	if c := r.calls[0]; c.name != RecordsTotal || c.value != 3 || c.labels["kind"] != KindNullFallback {
		t.Fatalf("records call=%+v", c)
	}
	if c := r.calls[1]; c.name != BatchesTotal || c.value != 1 {
		t.Fatalf("batch call=%+v", c)
	}
	if c := r.calls[2]; c.name != BatchRows || c.value != 250 {
		t.Fatalf("batch rows call=%+v", c)
	}
}

func TestFlush_DelegatesToFlusher(t *testing.T) {
	boom := errors.New("submit failed")
	r := &recorder{flushErr: boom}
	SetBackend(r)
	t.Cleanup(func() { SetBackend(nil) })

	if err := Flush(); !errors.Is(err, boom) {
		t.Fatalf("Flush err=%v, want %v", err, boom)
	}
	if r.flushed != 1 {
		t.Fatalf("flushed=%d, want 1", r.flushed)
	}
}
