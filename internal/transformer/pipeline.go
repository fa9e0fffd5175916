package transformer

import (
	"fmt"
	"time"

	"salaryetl/internal/table"
)

// Step names reported to StepHook.
const (
	StepNormalize = "normalize"
	StepJoin      = "join"
	StepEnrich    = "enrich"
	StepFilter    = "drop_null_hours"
	StepAggregate = "aggregate"
	StepFinalize  = "finalize"
)

// Options configures a full transform.
type Options struct {
	Schema    Schema
	Enrich    EnrichOptions
	Aggregate AggregateOptions
	Finalize  FinalizeOptions
}

// DefaultOptions returns the default schema with the default policies.
func DefaultOptions() Options {
	return Options{
		Schema:    DefaultSchema(),
		Enrich:    EnrichOptions{Negative: NegativeKeep},
		Aggregate: AggregateOptions{ZeroHours: ZeroHoursNull},
	}
}

// Result is the finalized table plus what every stage observed.
type Result struct {
	Output      *table.Table
	Normalize   NormalizeReport
	Join        JoinStats
	Enrich      EnrichStats
	Dropped     int
	Aggregate   AggregateStats
	FinalCasts  []CastResult
	Fingerprint uint64
}

// Warnings returns every ErrCoercionSkipped warning of the run.
func (r *Result) Warnings() []error {
	out := r.Normalize.Warnings()
	for _, c := range r.FinalCasts {
		if err := c.Err(); err != nil {
			out = append(out, err)
		}
	}
	return out
}

// Run executes normalize, join, enrich, filter, aggregate and finalize over
// the two input tables. The inputs are not modified, so running twice over
// the same tables yields equal outputs and fingerprints. hook may be nil.
func Run(employees, timesheets *table.Table, opt Options, hook StepHook) (*Result, error) {
	res := &Result{}
	if opt.Finalize.Caster.DateLayouts == nil {
		opt.Finalize.Caster.DateLayouts = opt.Schema.DateLayouts
	}

	start := time.Now()
	emp, ts, rep, err := Normalize(employees, timesheets, opt.Schema)
	res.Normalize = rep
	if hook != nil {
		hook(StepNormalize, emp, err, time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StepNormalize, err)
	}

	start = time.Now()
	joined, js, err := LeftJoin(emp, ts, opt.Schema.Key)
	res.Join = js
	if hook != nil {
		hook(StepJoin, joined, err, time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StepJoin, err)
	}

	chain := Chain{
		StepFunc{StepName: StepEnrich, Fn: func(in *table.Table) (*table.Table, error) {
			out, st, err := Enrich(in, opt.Enrich)
			res.Enrich = st
			return out, err
		}},
		StepFunc{StepName: StepFilter, Fn: func(in *table.Table) (*table.Table, error) {
			out, n := DropNullHours(in)
			res.Dropped = n
			return out, nil
		}},
		StepFunc{StepName: StepAggregate, Fn: func(in *table.Table) (*table.Table, error) {
			out, st, err := Aggregate(in, opt.Aggregate)
			res.Aggregate = st
			return out, err
		}},
		StepFunc{StepName: StepFinalize, Fn: func(in *table.Table) (*table.Table, error) {
			out, casts, err := Finalize(in, opt.Finalize)
			res.FinalCasts = casts
			return out, err
		}},
	}
	out, err := chain.Apply(joined, hook)
	if err != nil {
		return nil, err
	}
	res.Output = out
	res.Fingerprint = Fingerprint(out)
	return res, nil
}
