// Package metrics is a backend-agnostic facade for the run's operational
// metrics. The default backend is a no-op, so instrumented code never needs
// to check whether metrics are configured. Concrete backends live in
// subpackages (prompush, datadog) and are installed with SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Metric names shared by every backend.
const (
	StepTotal    = "etl_step_total"
	StepDuration = "etl_step_duration_seconds"
	RowsTotal    = "etl_rows_total"
	RunTotal     = "etl_run_total"
	RunDuration  = "etl_run_duration_seconds"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// Row kinds reported through RecordRow.
const (
	RowsEmployees   = "employees_read"
	RowsTimesheets  = "timesheets_read"
	RowsJoined      = "joined"
	RowsUnmatched   = "unmatched"
	RowsDropped     = "dropped_null_hours"
	RowsRejected    = "aggregate_rejected"
	RowsOutput      = "output"
	RowsWritten     = "written"
	CoercionSkipped = "coercion_skipped"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend receives counters and duration observations.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics (Pushgateway, DogStatsD).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b and returns the previous backend. nil restores the
// no-op backend.
func SetBackend(b Backend) Backend {
	if b == nil {
		b = nopBackend{}
	}
	mu.Lock()
	defer mu.Unlock()
	prev := backend
	backend = b
	return prev
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the installed backend.
func Flush() error { return current().Flush() }

func status(err error) string {
	if err != nil {
		return statusFailure
	}
	return statusSuccess
}

// RecordStep counts one execution of a pipeline step and observes its
// duration.
func RecordStep(job, step string, err error, d time.Duration) {
	lbls := Labels{"job": job, "step": step, "status": status(err)}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow adds n rows of the given kind. Non-positive n is ignored.
func RecordRow(job, kind string, n int64) {
	if n <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(n), Labels{"job": job, "kind": kind})
}

// RecordRun counts one finished run and observes its duration.
func RecordRun(job string, err error, d time.Duration) {
	lbls := Labels{"job": job, "status": status(err)}
	b := current()
	b.IncCounter(RunTotal, 1, lbls)
	b.ObserveHistogram(RunDuration, d.Seconds(), lbls)
}
