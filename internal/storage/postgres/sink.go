package postgres

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

var style = ddl.Style{Name: "postgres", Quote: quoteIdent, IfNotExists: true}

// Dialect is the Postgres spelling used by the SQL sink.
var Dialect = storage.Dialect{DDL: style, MapKind: MapKind}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
		repo, err := newRepository(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return storage.NewSQLSink(repo, Dialect, cfg), nil
	})
}

// MapKind maps a column kind onto a Postgres type.
func MapKind(k table.Kind) string {
	switch k {
	case table.KindInt:
		return "BIGINT"
	case table.KindFloat:
		return "DOUBLE PRECISION"
	case table.KindTime:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

// quoteIdent quotes one identifier segment, doubling embedded quotes.
func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
