package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"salaryetl/internal/parser/csv"
	"salaryetl/internal/storage"
)

// IssueSeverity is the severity of a configuration finding.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is one lint finding. Path is the dotted key, e.g. "sink.dsn".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate returns an ErrInvalid error listing every error-severity issue,
// or nil.
func Validate(p Pipeline) error {
	var msgs []string
	for _, iss := range ValidatePipeline(p) {
		if iss.Severity == SeverityError {
			msgs = append(msgs, iss.Path+": "+iss.Message)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// ValidatePipeline lints p: struct tag rules first, then the cross-field
// checks. It never mutates p.
func ValidatePipeline(p Pipeline) []Issue {
	issues := tagIssues(p)
	issues = append(issues, validateInput("sources.employees", p.Sources.Employees)...)
	issues = append(issues, validateInput("sources.timesheets", p.Sources.Timesheets)...)
	if p.Sources.Employees.Location != "" && p.Sources.Employees.Location == p.Sources.Timesheets.Location {
		issues = append(issues, Issue{SeverityWarning, "sources.timesheets.location",
			"employees and timesheets point at the same location"})
	}
	issues = append(issues, validateSink(p.Sink)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	return issues
}

func tagIssues(p Pipeline) []Issue {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{SeverityError, "", err.Error()}}
	}
	out := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is "Pipeline.sink.kind"; drop the root type name.
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		out = append(out, Issue{SeverityError, path, describeTag(fe)})
	}
	return out
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	}
	return fmt.Sprintf("failed %q rule", fe.Tag())
}

func validateInput(path string, in Input) []Issue {
	var issues []Issue
	if in.Delimiter != "" && utf8.RuneCountInString(in.Delimiter) != 1 {
		issues = append(issues, Issue{SeverityError, path + ".delimiter",
			fmt.Sprintf("delimiter must be a single character, got %q", in.Delimiter)})
	}
	if !csv.SupportedEncoding(in.Encoding) {
		issues = append(issues, Issue{SeverityError, path + ".encoding",
			fmt.Sprintf("unsupported encoding %q", in.Encoding)})
	}
	return issues
}

func validateSink(s Sink) []Issue {
	var issues []Issue
	if _, err := storage.ParseWriteMode(s.WriteMode); err != nil {
		issues = append(issues, Issue{SeverityError, "sink.write_mode", err.Error()})
	}

	switch strings.ToLower(s.Kind) {
	case "":
		// reported by the tag rules
	case "bigquery":
		if s.Project == "" {
			issues = append(issues, Issue{SeverityError, "sink.project", "bigquery sink requires a project"})
		}
		if s.Dataset == "" && !strings.Contains(s.Table, ".") {
			issues = append(issues, Issue{SeverityError, "sink.dataset",
				"bigquery sink requires a dataset or a dataset-qualified table"})
		}
		if s.DSN != "" {
			issues = append(issues, Issue{SeverityWarning, "sink.dsn", "dsn is ignored by the bigquery sink"})
		}
	case "postgres", "mssql", "mysql", "sqlite":
		if s.DSN == "" {
			issues = append(issues, Issue{SeverityError, "sink.dsn", s.Kind + " sink requires a dsn"})
		}
	case "csv":
		if s.DSN == "" {
			issues = append(issues, Issue{SeverityError, "sink.dsn", "csv sink requires an output directory in dsn"})
		}
	case "xlsx":
		if s.DSN == "" {
			issues = append(issues, Issue{SeverityError, "sink.dsn", "xlsx sink requires a workbook path in dsn"})
		}
	default:
		issues = append(issues, Issue{SeverityError, "sink.kind", fmt.Sprintf("unknown sink kind %q", s.Kind)})
	}

	if mode, err := storage.ParseWriteMode(s.WriteMode); err == nil && mode == storage.WriteTruncate {
		issues = append(issues, Issue{SeverityWarning, "sink.write_mode", "truncate replaces every existing row of the target"})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "prometheus":
		if m.PushgatewayURL == "" {
			return []Issue{{SeverityError, "metrics.pushgateway_url", "prometheus backend requires pushgateway_url"}}
		}
	case "datadog":
		if m.DatadogAddr == "" {
			return []Issue{{SeverityError, "metrics.datadog_addr", "datadog backend requires datadog_addr"}}
		}
	}
	return nil
}
