// Package etl runs one salary-per-hour batch: extract both inputs, run the
// transform, preview and fingerprint the result, then write it to the sink
// exactly once.
package etl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"salaryetl/internal/config"
	"salaryetl/internal/datasource"
	"salaryetl/internal/datasource/httpds"
	"salaryetl/internal/metrics"
	"salaryetl/internal/parser/csv"
	"salaryetl/internal/storage"
	"salaryetl/internal/table"
	"salaryetl/internal/transformer"
)

// Step names reported to metrics besides the transform steps.
const (
	StepExtract = "extract"
	StepLoad    = "load"
)

// Job is one configured run.
type Job struct {
	Pipeline config.Pipeline
	Log      *zap.Logger

	// Sink receives the output. It may be nil only for a dry run.
	Sink storage.Sink

	// Resolve maps a location to a Source. Nil uses datasource.Resolve with
	// an HTTP client built from Pipeline.Sources.HTTP.
	Resolve func(location string) (datasource.Source, error)

	// DryRun stops after the preview; nothing is written.
	DryRun bool
}

// Report summarizes a finished run.
type Report struct {
	RunID    string
	Result   *transformer.Result
	Preview  string
	Written  int64
	DryRun   bool
	Duration time.Duration
}

// Run executes the job. Any extraction or transform failure returns before
// the sink is touched. A transform that rejects every aggregated row fails
// rather than appending an empty table.
func (j *Job) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	p := j.Pipeline
	rep := &Report{RunID: uuid.NewString(), DryRun: j.DryRun}

	log := j.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("job", p.Job), zap.String("run_id", rep.RunID))

	err := j.run(ctx, log, rep)
	rep.Duration = time.Since(start)
	metrics.RecordRun(p.Job, err, rep.Duration)
	if err != nil {
		log.Error("run: failed", zap.Error(err), zap.Duration("took", rep.Duration))
		return rep, err
	}
	log.Info("run: done",
		zap.Int64("written", rep.Written),
		zap.Bool("dry_run", rep.DryRun),
		zap.Duration("took", rep.Duration))
	return rep, nil
}

func (j *Job) run(ctx context.Context, log *zap.Logger, rep *Report) error {
	p := j.Pipeline

	opt, err := TransformOptions(p)
	if err != nil {
		return classify(ErrInvalidConfig, "configure", err)
	}
	mode, err := storage.ParseWriteMode(p.Sink.WriteMode)
	if err != nil {
		return classify(ErrInvalidConfig, "configure", fmt.Errorf("%w: %v", ErrInvalidConfig, err))
	}
	if j.Sink == nil && !j.DryRun {
		return classify(ErrInvalidConfig, "configure", fmt.Errorf("%w: no sink", ErrInvalidConfig))
	}

	if p.Runtime.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Runtime.Timeout)
		defer cancel()
	}

	log.Info("run: start",
		zap.String("employees", p.Sources.Employees.Location),
		zap.String("timesheets", p.Sources.Timesheets.Location),
		zap.String("sink", p.Sink.Kind),
		zap.String("target", p.Sink.Table),
		zap.String("write_mode", string(mode)))

	t0 := time.Now()
	emp, ts, err := j.extract(ctx, log)
	metrics.RecordStep(p.Job, StepExtract, err, time.Since(t0))
	if err != nil {
		return err
	}
	metrics.RecordRow(p.Job, metrics.RowsEmployees, int64(emp.Len()))
	metrics.RecordRow(p.Job, metrics.RowsTimesheets, int64(ts.Len()))

	hook := func(step string, out *table.Table, err error, d time.Duration) {
		metrics.RecordStep(p.Job, step, err, d)
		rows := 0
		if out != nil {
			rows = out.Len()
		}
		log.Debug("transform: step done", zap.String("step", step), zap.Int("rows", rows), zap.Duration("took", d))
	}
	res, err := transformer.Run(emp, ts, opt, hook)
	if err != nil {
		kind := ErrTransformFailed
		if errors.Is(err, transformer.ErrZeroHours) {
			kind = ErrZeroHours
		}
		return classify(kind, "transform", err)
	}
	rep.Result = res
	j.report(log, res)
	if st := res.Aggregate; st.Input > 0 && st.Rejected == st.Input {
		return classify(ErrTransformFailed, "transform", fmt.Errorf("%s: all %d rows rejected: %s",
			transformer.StepAggregate, st.Input, strings.Join(st.Reasons, "; ")))
	}

	rep.Preview = transformer.Preview(res.Output, p.Transform.PreviewRows)
	log.Info("transform: preview",
		zap.Int("rows", res.Output.Len()),
		zap.String("fingerprint", fmt.Sprintf("%016x", res.Fingerprint)),
		zap.String("head", rep.Preview))

	if j.DryRun {
		log.Info("load: skipped (dry run)")
		return nil
	}

	t0 = time.Now()
	n, err := j.Sink.Write(ctx, mode, p.Sink.Table, res.Output)
	metrics.RecordStep(p.Job, StepLoad, err, time.Since(t0))
	if err != nil {
		return classify(ErrSinkWriteFailed, "load "+p.Sink.Table, err)
	}
	rep.Written = n
	metrics.RecordRow(p.Job, metrics.RowsWritten, n)
	log.Info("load: write complete",
		zap.String("target", p.Sink.Table),
		zap.Int64("rows", n),
		zap.Duration("took", time.Since(t0)))
	return nil
}

// report logs the transform counters and warnings and exports them.
func (j *Job) report(log *zap.Logger, res *transformer.Result) {
	job := j.Pipeline.Job
	for _, w := range res.Warnings() {
		log.Warn("transform: coercion skipped", zap.Error(w))
	}
	for _, r := range res.Aggregate.Reasons {
		log.Warn("transform: row rejected", zap.String("reason", r))
	}
	log.Info("transform: done",
		zap.Int("joined", res.Join.OutputRows),
		zap.Int("unmatched", res.Join.Unmatched),
		zap.Int("negative_hours", res.Enrich.Negative),
		zap.Int("dropped_null_hours", res.Dropped),
		zap.Int("rejected", res.Aggregate.Rejected),
		zap.Int("groups", res.Aggregate.Groups))

	metrics.RecordRow(job, metrics.CoercionSkipped, int64(len(res.Warnings())))
	metrics.RecordRow(job, metrics.RowsJoined, int64(res.Join.OutputRows))
	metrics.RecordRow(job, metrics.RowsUnmatched, int64(res.Join.Unmatched))
	metrics.RecordRow(job, metrics.RowsDropped, int64(res.Dropped))
	metrics.RecordRow(job, metrics.RowsRejected, int64(res.Aggregate.Rejected))
	metrics.RecordRow(job, metrics.RowsOutput, int64(res.Output.Len()))
}

// extract loads both inputs, concurrently when runtime.parallel_extract is
// set. Both are fully read before it returns.
func (j *Job) extract(ctx context.Context, log *zap.Logger) (*table.Table, *table.Table, error) {
	resolve := j.Resolve
	if resolve == nil {
		client := httpds.NewClient(HTTPConfig(j.Pipeline.Sources.HTTP, log))
		resolve = func(loc string) (datasource.Source, error) { return datasource.Resolve(loc, client) }
	}
	src := j.Pipeline.Sources
	var emp, ts *table.Table

	if !j.Pipeline.Runtime.ParallelExtract {
		var err error
		if emp, err = load(ctx, log, resolve, "employees", src.Employees); err != nil {
			return nil, nil, err
		}
		if ts, err = load(ctx, log, resolve, "timesheets", src.Timesheets); err != nil {
			return nil, nil, err
		}
		return emp, ts, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		emp, err = load(gctx, log, resolve, "employees", src.Employees)
		return err
	})
	g.Go(func() (err error) {
		ts, err = load(gctx, log, resolve, "timesheets", src.Timesheets)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return emp, ts, nil
}

func load(ctx context.Context, log *zap.Logger, resolve func(string) (datasource.Source, error), name string, in config.Input) (*table.Table, error) {
	op := "extract " + name
	start := time.Now()
	src, err := resolve(in.Location)
	if err != nil {
		return nil, classify(ErrSourceUnavailable, op, err)
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, classify(ErrSourceUnavailable, op, err)
	}
	defer rc.Close()

	t, err := csv.ReadTable(ctx, rc, CSVOptions(in))
	if err != nil {
		return nil, classify(ErrSourceUnavailable, op, fmt.Errorf("%s: %w", in.Location, err))
	}
	log.Info("extract: loaded",
		zap.String("input", name),
		zap.String("location", in.Location),
		zap.Int("rows", t.Len()),
		zap.Strings("columns", t.Columns()),
		zap.Duration("took", time.Since(start)))
	return t, nil
}
