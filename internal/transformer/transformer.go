// Package transformer holds the salary job's transform core: schema
// normalization, the employee/timesheet left join, calendar and worked-hour
// enrichment, the validity filter, the two-level aggregation and the output
// finalizer. Every stage is a pure function over *table.Table; none of them
// perform I/O.
package transformer

import (
	"fmt"
	"time"

	"salaryetl/internal/table"
)

// Step is a single-table transform stage.
type Step interface {
	Name() string
	Apply(in *table.Table) (*table.Table, error)
}

// StepFunc adapts a plain function to Step.
type StepFunc struct {
	StepName string
	Fn       func(*table.Table) (*table.Table, error)
}

// Name implements Step.
func (s StepFunc) Name() string { return s.StepName }

// Apply implements Step.
func (s StepFunc) Apply(in *table.Table) (*table.Table, error) { return s.Fn(in) }

// Chain is an ordered list of steps.
type Chain []Step

// StepHook observes every step after it ran.
type StepHook func(step string, out *table.Table, err error, d time.Duration)

// Apply runs the steps in order, stopping at the first error, which is
// prefixed with the step name. hook may be nil.
func (c Chain) Apply(in *table.Table, hook StepHook) (*table.Table, error) {
	out := in
	for _, s := range c {
		if s == nil {
			continue
		}
		start := time.Now()
		next, err := s.Apply(out)
		if hook != nil {
			hook(s.Name(), next, err, time.Since(start))
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name(), err)
		}
		out = next
	}
	return out, nil
}
