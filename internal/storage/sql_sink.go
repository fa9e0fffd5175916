package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"salaryetl/internal/ddl"
	"salaryetl/internal/table"
)

// Repository is the primitive surface a SQL backend exposes. Table names
// are dotted and unquoted; each backend quotes them in its own dialect.
type Repository interface {
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	Exec(ctx context.Context, sql string) error
	CountRows(ctx context.Context, table string) (int64, error)
	Close() error
}

// Dialect is what the SQL sink needs to know about a backend's SQL.
type Dialect struct {
	// DDL renders CREATE TABLE for auto-created targets.
	DDL ddl.Style

	// MapKind maps a column kind to the backend's column type.
	MapKind func(table.Kind) string

	// Truncate returns the statement that empties a table; the default is
	// TRUNCATE TABLE.
	Truncate func(quotedFQN string) string

	// Value converts a cell before it is handed to the driver; nil passes
	// cells through.
	Value func(any) any
}

// SQLSink implements Sink on top of a Repository.
type SQLSink struct {
	repo       Repository
	dialect    Dialect
	autoCreate bool
	batchSize  int
	log        *zap.Logger
}

// NewSQLSink wraps repo as a Sink.
func NewSQLSink(repo Repository, d Dialect, cfg Config) *SQLSink {
	bs := cfg.BatchSize
	if bs <= 0 {
		bs = DefaultBatchSize
	}
	return &SQLSink{repo: repo, dialect: d, autoCreate: cfg.AutoCreateTable, batchSize: bs, log: cfg.Log()}
}

// Write implements Sink. Truncate and the copy are separate statements, so a
// failed copy under WriteTruncate leaves the target empty.
func (s *SQLSink) Write(ctx context.Context, mode WriteMode, target string, t *table.Table) (int64, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return 0, fmt.Errorf("sql sink: target table must not be empty")
	}

	if s.autoCreate {
		stmt, err := ddl.BuildCreateTableSQL(ddl.FromTable(target, t, s.dialect.MapKind), s.dialect.DDL)
		if err != nil {
			return 0, err
		}
		if err := s.repo.Exec(ctx, stmt); err != nil {
			return 0, fmt.Errorf("create table %s: %w", target, err)
		}
	}

	switch mode {
	case WriteAppend, "":
	case WriteTruncate:
		if err := s.repo.Exec(ctx, s.truncateSQL(target)); err != nil {
			return 0, fmt.Errorf("truncate %s: %w", target, err)
		}
	case WriteEmpty:
		n, err := s.repo.CountRows(ctx, target)
		if err != nil {
			return 0, fmt.Errorf("count %s: %w", target, err)
		}
		if n > 0 {
			return 0, fmt.Errorf("%w: %s holds %d rows", ErrTargetNotEmpty, target, n)
		}
	default:
		return 0, fmt.Errorf("sql sink: unsupported write mode %q", mode)
	}

	cols := t.Columns()
	rows := t.Values(cols)
	if s.dialect.Value != nil {
		for _, r := range rows {
			for i, v := range r {
				r[i] = s.dialect.Value(v)
			}
		}
	}

	start := time.Now()
	n, err := LoadBatches(ctx, s.log, target, cols, rows, s.batchSize, s.repo.CopyFrom)
	if err != nil {
		return n, err
	}
	s.log.Info("load: rows copied",
		zap.String("table", target),
		zap.String("mode", string(mode)),
		zap.Int64("rows", n),
		zap.Duration("took", time.Since(start)))
	return n, nil
}

// Close implements Sink.
func (s *SQLSink) Close() error { return s.repo.Close() }

func (s *SQLSink) truncateSQL(target string) string {
	q := s.dialect.DDL.QuoteFQN(target)
	if s.dialect.Truncate != nil {
		return s.dialect.Truncate(q)
	}
	return "TRUNCATE TABLE " + q
}

// TimeAsText renders time cells as "2006-01-02 15:04:05" for drivers without a
// native timestamp type. Other cells pass through.
func TimeAsText(v any) any {
	if ts, ok := v.(time.Time); ok {
		return ts.Format("2006-01-02 15:04:05")
	}
	return v
}
