// Package config defines the pipeline configuration, loads it from a YAML or
// JSON file plus ETL_* environment overrides, and lints it.
//
// Example (trimmed):
//
//	job: salary_per_hour
//	sources:
//	  employees:  { location: data/employees.csv }
//	  timesheets: { location: data/timesheets.csv }
//	sink: { kind: sqlite, dsn: out.db, table: fact_detail_salary_temp }
package config

import (
	"time"

	"salaryetl/internal/log"
)

// DefaultTable is the target table when none is configured.
const DefaultTable = "fact_detail_salary_temp"

// Pipeline is the full run configuration.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job string `mapstructure:"job" validate:"required"`

	Sources   Sources    `mapstructure:"sources"`
	Normalize Normalize  `mapstructure:"normalize"`
	Transform Transform  `mapstructure:"transform"`
	Sink      Sink       `mapstructure:"sink"`
	Runtime   Runtime    `mapstructure:"runtime"`
	Log       log.Config `mapstructure:"log"`
	Metrics   Metrics    `mapstructure:"metrics"`
}

// Sources holds the two inputs and the HTTP client settings used for
// remote locations.
type Sources struct {
	Employees  Input `mapstructure:"employees"`
	Timesheets Input `mapstructure:"timesheets"`
	HTTP       HTTP  `mapstructure:"http"`
}

// Input describes one delimited file.
type Input struct {
	// Location is a path, file:// URL or http(s):// URL.
	Location   string `mapstructure:"location" validate:"required"`
	Delimiter  string `mapstructure:"delimiter"`
	Encoding   string `mapstructure:"encoding"`
	LazyQuotes bool   `mapstructure:"lazy_quotes"`
}

// HTTP configures the remote source client.
type HTTP struct {
	Timeout            time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxRetries         int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// Normalize overrides the canonical schema.
type Normalize struct {
	EmployeeIDAliases []string `mapstructure:"employee_id_aliases"`
	DateLayouts       []string `mapstructure:"date_layouts"`
}

// Transform holds the transform policies.
type Transform struct {
	NegativeHours string `mapstructure:"negative_hours" validate:"omitempty,oneof=keep drop overnight"`
	ZeroHours     string `mapstructure:"zero_hours" validate:"omitempty,oneof=null zero error"`
	PreviewRows   int    `mapstructure:"preview_rows" validate:"gte=0"`
}

// Sink selects and configures the destination.
type Sink struct {
	Kind            string `mapstructure:"kind" validate:"required"`
	WriteMode       string `mapstructure:"write_mode"`
	Table           string `mapstructure:"table" validate:"required"`
	DSN             string `mapstructure:"dsn"`
	Project         string `mapstructure:"project"`
	Dataset         string `mapstructure:"dataset"`
	Location        string `mapstructure:"location"`
	CredentialsFile string `mapstructure:"credentials_file"`
	AutoCreateTable bool   `mapstructure:"auto_create_table"`
	BatchSize       int    `mapstructure:"batch_size" validate:"gte=0"`
}

// Runtime controls extraction concurrency and the run deadline.
type Runtime struct {
	ParallelExtract bool          `mapstructure:"parallel_extract"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	Backend        string   `mapstructure:"backend" validate:"omitempty,oneof=none prometheus datadog"`
	PushgatewayURL string   `mapstructure:"pushgateway_url"`
	DatadogAddr    string   `mapstructure:"datadog_addr"`
	Tags           []string `mapstructure:"tags"`
}
