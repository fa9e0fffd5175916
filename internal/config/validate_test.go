package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPipeline() Pipeline {
	return Pipeline{
		Job: "salary_per_hour",
		Sources: Sources{
			Employees:  Input{Location: "data/employees.csv", Delimiter: ","},
			Timesheets: Input{Location: "data/timesheets.csv"},
		},
		Transform: Transform{NegativeHours: "keep", ZeroHours: "null", PreviewRows: 5},
		Sink:      Sink{Kind: "sqlite", WriteMode: "append", DSN: "out.db", Table: DefaultTable},
	}
}

func hasIssue(issues []Issue, sev IssueSeverity, path, substr string) bool {
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidatePipeline_Valid(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ValidatePipeline(validPipeline()))
	assert.NoError(t, Validate(validPipeline()))
}

func TestValidatePipeline_Findings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(p *Pipeline)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"missing job", func(p *Pipeline) { p.Job = "" }, SeverityError, "job", "must not be empty"},
		{"missing location", func(p *Pipeline) { p.Sources.Timesheets.Location = "" }, SeverityError, "sources.timesheets.location", "must not be empty"},
		{"bad policy", func(p *Pipeline) { p.Transform.ZeroHours = "inf" }, SeverityError, "transform.zero_hours", "must be one of"},
		{"negative preview", func(p *Pipeline) { p.Transform.PreviewRows = -1 }, SeverityError, "transform.preview_rows", ">= 0"},
		{"wide delimiter", func(p *Pipeline) { p.Sources.Employees.Delimiter = ";;" }, SeverityError, "sources.employees.delimiter", "single character"},
		{"bad encoding", func(p *Pipeline) { p.Sources.Employees.Encoding = "ebcdic" }, SeverityError, "sources.employees.encoding", "unsupported encoding"},
		{"same location", func(p *Pipeline) { p.Sources.Timesheets.Location = p.Sources.Employees.Location }, SeverityWarning, "sources.timesheets.location", "same location"},
		{"bad write mode", func(p *Pipeline) { p.Sink.WriteMode = "merge" }, SeverityError, "sink.write_mode", "unknown write mode"},
		{"truncate warns", func(p *Pipeline) { p.Sink.WriteMode = "WRITE_TRUNCATE" }, SeverityWarning, "sink.write_mode", "replaces every existing row"},
		{"sql needs dsn", func(p *Pipeline) { p.Sink.DSN = "" }, SeverityError, "sink.dsn", "requires a dsn"},
		{"unknown sink", func(p *Pipeline) { p.Sink.Kind = "mongo" }, SeverityError, "sink.kind", "unknown sink kind"},
		{"bigquery project", func(p *Pipeline) { p.Sink.Kind = "bigquery"; p.Sink.DSN = "" }, SeverityError, "sink.project", "requires a project"},
		{"bigquery dataset", func(p *Pipeline) { p.Sink.Kind = "bigquery"; p.Sink.Project = "p" }, SeverityError, "sink.dataset", "requires a dataset"},
		{"bigquery dsn ignored", func(p *Pipeline) { p.Sink.Kind, p.Sink.Project, p.Sink.Dataset = "bigquery", "p", "d" }, SeverityWarning, "sink.dsn", "ignored"},
		{"prometheus url", func(p *Pipeline) { p.Metrics.Backend = "prometheus" }, SeverityError, "metrics.pushgateway_url", "requires pushgateway_url"},
		{"datadog addr", func(p *Pipeline) { p.Metrics.Backend = "datadog" }, SeverityError, "metrics.datadog_addr", "requires datadog_addr"},
		{"unknown metrics", func(p *Pipeline) { p.Metrics.Backend = "statsd" }, SeverityError, "metrics.backend", "must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validPipeline()
			tc.mutate(&p)
			issues := ValidatePipeline(p)
			assert.True(t, hasIssue(issues, tc.sev, tc.path, tc.msg), "issues: %+v", issues)

			err := Validate(p)
			if tc.sev == SeverityError {
				require.ErrorIs(t, err, ErrInvalid)
				assert.ErrorContains(t, err, tc.path)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIssue_Error(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityError, Path: "sink.dsn", Message: "sqlite sink requires a dsn"}
	assert.Equal(t, "error at sink.dsn: sqlite sink requires a dsn", iss.Error())
}
