package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name   string
	value  float64
	labels Labels
}

// recorder is an in-memory Backend.
type recorder struct {
	mu       sync.Mutex
	counters []call
	hists    []call
	flushes  int
}

func (r *recorder) IncCounter(name string, delta float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters = append(r.counters, call{name, delta, labels})
}

func (r *recorder) ObserveHistogram(name string, value float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hists = append(r.hists, call{name, value, labels})
}

func (r *recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
	return nil
}

// install swaps in a recorder for the duration of the test. Tests using it
// must not run in parallel.
func install(t *testing.T) *recorder {
	t.Helper()
	r := &recorder{}
	prev := SetBackend(r)
	t.Cleanup(func() { SetBackend(prev) })
	return r
}

func TestRecordStep(t *testing.T) {
	r := install(t)

	RecordStep("salary_per_hour", "join", nil, 2*time.Second)
	RecordStep("salary_per_hour", "aggregate", errors.New("boom"), 1500*time.Millisecond)

	require.Len(t, r.counters, 2)
	require.Len(t, r.hists, 2)
	assert.Equal(t, call{StepTotal, 1, Labels{"job": "salary_per_hour", "step": "join", "status": "success"}}, r.counters[0])
	assert.Equal(t, "failure", r.counters[1].labels["status"])
	assert.Equal(t, StepDuration, r.hists[1].name)
	assert.InDelta(t, 1.5, r.hists[1].value, 1e-9)
}

func TestRecordRow(t *testing.T) {
	r := install(t)

	RecordRow("j", RowsWritten, 6)
	RecordRow("j", RowsDropped, 0)
	RecordRow("j", RowsRejected, -1)

	require.Len(t, r.counters, 1)
	assert.Equal(t, call{RowsTotal, 6, Labels{"job": "j", "kind": RowsWritten}}, r.counters[0])
}

func TestRecordRunAndFlush(t *testing.T) {
	r := install(t)

	RecordRun("j", nil, time.Second)
	require.NoError(t, Flush())

	require.Len(t, r.counters, 1)
	assert.Equal(t, RunTotal, r.counters[0].name)
	assert.Equal(t, RunDuration, r.hists[0].name)
	assert.Equal(t, 1, r.flushes)
}

func TestSetBackend_NilRestoresNop(t *testing.T) {
	r := install(t)

	prev := SetBackend(nil)
	assert.Same(t, r, prev)
	RecordRow("j", RowsOutput, 3)
	assert.Empty(t, r.counters)
	assert.NoError(t, Flush())
}
