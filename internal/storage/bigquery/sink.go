// Package bigquery implements the BigQuery sink. Each Write runs one load
// job: the table is encoded as newline-delimited JSON and loaded with the
// write disposition matching the WriteMode.
package bigquery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"salaryetl/internal/storage"
	"salaryetl/internal/table"
)

func init() {
	storage.Register("bigquery", func(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
		return New(ctx, cfg)
	})
}

// newClient is a test hook that points to bigquery.NewClient by default.
var newClient = bigquery.NewClient

// Sink loads tables into BigQuery.
type Sink struct {
	client   *bigquery.Client
	project  string
	dataset  string
	location string
	create   bool
	log      *zap.Logger

	// run executes a configured loader and returns the rows it wrote.
	run func(ctx context.Context, l *bigquery.Loader) (int64, error)
}

// New opens a client for cfg.Project. The project is required; credentials
// come from cfg.CredentialsFile or Application Default Credentials.
func New(ctx context.Context, cfg storage.Config) (*Sink, error) {
	if strings.TrimSpace(cfg.Project) == "" {
		return nil, errors.New("bigquery: project is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := newClient(ctx, cfg.Project, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery: client: %w", err)
	}
	if cfg.Location != "" {
		client.Location = cfg.Location
	}
	return &Sink{
		client:   client,
		project:  cfg.Project,
		dataset:  cfg.Dataset,
		location: cfg.Location,
		create:   cfg.AutoCreateTable,
		log:      cfg.Log(),
		run:      runLoader,
	}, nil
}

// Write implements storage.Sink. target is "table", "dataset.table" or
// "project.dataset.table"; a bare table uses the configured dataset.
func (s *Sink) Write(ctx context.Context, mode storage.WriteMode, target string, t *table.Table) (int64, error) {
	project, dataset, tbl, err := splitTarget(target, s.project, s.dataset)
	if err != nil {
		return 0, err
	}
	disp, err := disposition(mode)
	if err != nil {
		return 0, err
	}
	body, err := encodeNDJSON(t)
	if err != nil {
		return 0, err
	}

	src := bigquery.NewReaderSource(bytes.NewReader(body))
	src.SourceFormat = bigquery.JSON
	src.Schema = schemaFor(t)

	l := s.client.DatasetInProject(project, dataset).Table(tbl).LoaderFrom(src)
	l.WriteDisposition = disp
	l.CreateDisposition = bigquery.CreateNever
	if s.create {
		l.CreateDisposition = bigquery.CreateIfNeeded
	}
	l.JobID = JobID(tbl)
	l.Location = s.location

	start := time.Now()
	n, err := s.run(ctx, l)
	if err != nil {
		return 0, fmt.Errorf("bigquery: load %s.%s.%s (job %s): %w", project, dataset, tbl, l.JobID, err)
	}
	s.log.Info("load: bigquery job done",
		zap.String("job_id", l.JobID),
		zap.String("table", project+"."+dataset+"."+tbl),
		zap.String("disposition", string(disp)),
		zap.Int64("rows", n),
		zap.Duration("took", time.Since(start)))
	return n, nil
}

// Close implements storage.Sink.
func (s *Sink) Close() error { return s.client.Close() }

func runLoader(ctx context.Context, l *bigquery.Loader) (int64, error) {
	job, err := l.Run(ctx)
	if err != nil {
		return 0, err
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, err
	}
	if err := status.Err(); err != nil {
		return 0, err
	}
	if st, ok := status.Statistics.Details.(*bigquery.LoadStatistics); ok {
		return st.OutputRows, nil
	}
	return 0, nil
}

// JobID returns a unique load job id for table. Job ids allow letters,
// digits, dashes and underscores.
func JobID(tbl string) string {
	return "etl_" + sanitize(tbl) + "_" + uuid.NewString()
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, s)
}

func disposition(m storage.WriteMode) (bigquery.TableWriteDisposition, error) {
	switch m {
	case storage.WriteAppend, "":
		return bigquery.WriteAppend, nil
	case storage.WriteTruncate:
		return bigquery.WriteTruncate, nil
	case storage.WriteEmpty:
		return bigquery.WriteEmpty, nil
	}
	return "", fmt.Errorf("bigquery: unsupported write mode %q", m)
}

func splitTarget(target, project, dataset string) (string, string, string, error) {
	parts := strings.Split(strings.TrimSpace(target), ".")
	switch len(parts) {
	case 1:
	case 2:
		dataset = parts[0]
	case 3:
		project, dataset = parts[0], parts[1]
	default:
		return "", "", "", fmt.Errorf("bigquery: invalid target %q", target)
	}
	tbl := parts[len(parts)-1]
	if tbl == "" || dataset == "" || project == "" {
		return "", "", "", fmt.Errorf("bigquery: target %q needs project, dataset and table", target)
	}
	return project, dataset, tbl, nil
}

func schemaFor(t *table.Table) bigquery.Schema {
	var s bigquery.Schema
	for _, c := range t.Columns() {
		typ := bigquery.StringFieldType
		switch t.Kind(c) {
		case table.KindInt:
			typ = bigquery.IntegerFieldType
		case table.KindFloat:
			typ = bigquery.FloatFieldType
		case table.KindTime:
			typ = bigquery.TimestampFieldType
		}
		s = append(s, &bigquery.FieldSchema{Name: c, Type: typ})
	}
	return s
}

// encodeNDJSON writes one JSON object per row. Null cells are omitted.
func encodeNDJSON(t *table.Table) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	cols := t.Columns()
	for i, r := range t.Rows {
		obj := make(map[string]any, len(cols))
		for _, c := range cols {
			switch v := r[c].(type) {
			case nil:
			case time.Time:
				obj[c] = v.UTC().Format(time.RFC3339Nano)
			default:
				obj[c] = v
			}
		}
		if err := enc.Encode(obj); err != nil {
			return nil, fmt.Errorf("bigquery: encode row %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
