package etl

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"salaryetl/internal/config"
	"salaryetl/internal/datasource/httpds"
	"salaryetl/internal/parser/csv"
	"salaryetl/internal/storage"
	"salaryetl/internal/transformer"
)

// TransformOptions maps the pipeline onto the transform options.
func TransformOptions(p config.Pipeline) (transformer.Options, error) {
	opt := transformer.DefaultOptions()
	if len(p.Normalize.EmployeeIDAliases) > 0 {
		opt.Schema.KeyAliases = p.Normalize.EmployeeIDAliases
	}
	if len(p.Normalize.DateLayouts) > 0 {
		opt.Schema.DateLayouts = p.Normalize.DateLayouts
	}
	neg, err := transformer.ParseNegativeHours(p.Transform.NegativeHours)
	if err != nil {
		return opt, fmt.Errorf("%w: transform.negative_hours: %v", ErrInvalidConfig, err)
	}
	zero, err := transformer.ParseZeroHours(p.Transform.ZeroHours)
	if err != nil {
		return opt, fmt.Errorf("%w: transform.zero_hours: %v", ErrInvalidConfig, err)
	}
	opt.Enrich.Negative = neg
	opt.Aggregate.ZeroHours = zero
	return opt, nil
}

// CSVOptions maps one input onto the reader options.
func CSVOptions(in config.Input) csv.Options {
	opt := csv.Options{Encoding: in.Encoding, LazyQuotes: in.LazyQuotes}
	if d := []rune(in.Delimiter); len(d) > 0 {
		opt.Comma = d[0]
	}
	return opt
}

// StorageConfig maps the sink section onto the backend configuration.
func StorageConfig(s config.Sink, log *zap.Logger) storage.Config {
	return storage.Config{
		Kind:            strings.ToLower(s.Kind),
		DSN:             s.DSN,
		Project:         s.Project,
		Dataset:         s.Dataset,
		Location:        s.Location,
		CredentialsFile: s.CredentialsFile,
		AutoCreateTable: s.AutoCreateTable,
		BatchSize:       s.BatchSize,
		Logger:          log,
	}
}

// HTTPConfig maps the HTTP section onto the client configuration.
func HTTPConfig(h config.HTTP, log *zap.Logger) httpds.Config {
	return httpds.Config{
		Timeout:            h.Timeout,
		MaxRetries:         h.MaxRetries,
		InsecureSkipVerify: h.InsecureSkipVerify,
		Logger:             log,
	}
}
