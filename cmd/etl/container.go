package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"salaryetl/internal/config"
	"salaryetl/internal/etl"
	"salaryetl/internal/log"
	"salaryetl/internal/metrics"
	"salaryetl/internal/metrics/datadog"
	"salaryetl/internal/metrics/prompush"
	"salaryetl/internal/storage"
)

// Seams replaced by tests.
var (
	loadConfigFn = config.Load
	readConfigFn = config.Read
	newLoggerFn  = log.NewLogger
	openSinkFn   = storage.New
	newMetricsFn = newMetrics
)

// runPipeline wires one run: config, logger, metrics backend and sink, then
// hands over to etl.Job. The sink is not opened for a dry run.
func runPipeline(ctx context.Context, opts options) (*etl.Report, error) {
	p, err := loadConfigFn(opts.configPath, opts.envFile)
	if err != nil {
		return nil, err
	}
	logger, err := newLoggerFn(p.Log)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	defer func() { _ = logger.Sync() }()

	backend, err := newMetricsFn(p)
	if err != nil {
		logger.Error("metrics: init failed", zap.String("backend", p.Metrics.Backend), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	if backend != nil {
		prev := metrics.SetBackend(backend)
		defer func() {
			if err := metrics.Flush(); err != nil {
				logger.Warn("metrics: flush failed", zap.Error(err))
			}
			if c, ok := backend.(io.Closer); ok {
				_ = c.Close()
			}
			metrics.SetBackend(prev)
		}()
	}

	job := &etl.Job{Pipeline: p, Log: logger, DryRun: opts.dryRun}
	if !opts.dryRun {
		sink, err := openSinkFn(ctx, etl.StorageConfig(p.Sink, logger))
		if err != nil {
			err = &etl.Error{Kind: etl.ErrSinkWriteFailed, Op: "open sink " + p.Sink.Kind, Err: err}
			logger.Error("run: failed", zap.Error(err))
			return nil, err
		}
		defer func() {
			if err := sink.Close(); err != nil {
				logger.Warn("load: close sink", zap.Error(err))
			}
		}()
		job.Sink = sink
	}
	return job.Run(ctx)
}

// newMetrics builds the configured backend, or nil for "none".
func newMetrics(p config.Pipeline) (metrics.Backend, error) {
	switch p.Metrics.Backend {
	case "prometheus":
		b, err := prompush.NewBackend(p.Job, p.Metrics.PushgatewayURL)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "datadog":
		tags := append([]string{"job:" + p.Job}, p.Metrics.Tags...)
		b, err := datadog.NewBackend(datadog.Config{Addr: p.Metrics.DatadogAddr, GlobalTags: tags})
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, nil
}
