package mysql

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

var style = ddl.Style{Name: "mysql", Quote: quoteIdent, IfNotExists: true}

// Dialect is the MySQL spelling used by the SQL sink.
var Dialect = storage.Dialect{DDL: style, MapKind: MapKind}

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
		repo, err := newRepository(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return storage.NewSQLSink(repo, Dialect, cfg), nil
	})
}

// MapKind maps a column kind onto a MySQL type.
func MapKind(k table.Kind) string {
	switch k {
	case table.KindInt:
		return "BIGINT"
	case table.KindFloat:
		return "DOUBLE"
	case table.KindTime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

// quoteIdent quotes an identifier with backticks, doubling embedded ones.
func quoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }
