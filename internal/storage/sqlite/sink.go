package sqlite

import (
	"context"
	"strings"

	"salaryetl/internal/ddl"
	"salaryetl/internal/storage"
	"salaryetl/internal/table"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = func(ctx context.Context, dsn string) (storage.Repository, error) {
	return NewRepository(ctx, dsn)
}

var style = ddl.Style{Name: "sqlite", Quote: quoteIdent, IfNotExists: true}

// Dialect is the SQLite spelling used by the SQL sink. SQLite has no
// TRUNCATE and stores timestamps as ISO-8601 text.
var Dialect = storage.Dialect{
	DDL:      style,
	MapKind:  MapKind,
	Truncate: func(q string) string { return "DELETE FROM " + q },
	Value:    storage.TimeAsText,
}

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
		repo, err := newRepository(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return storage.NewSQLSink(repo, Dialect, cfg), nil
	})
}

// MapKind maps a column kind onto a SQLite type affinity.
func MapKind(k table.Kind) string {
	switch k {
	case table.KindInt:
		return "INTEGER"
	case table.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
