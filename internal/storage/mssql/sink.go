package mssql

import (
	"context"
	"fmt"
	"strings"

	"salaryetl/internal/ddl"
	"salaryetl/internal/storage"
	"salaryetl/internal/table"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = func(ctx context.Context, dsn string) (storage.Repository, error) {
	return NewRepository(ctx, dsn)
}

// T-SQL has no CREATE TABLE IF NOT EXISTS; the statement is guarded with
// OBJECT_ID instead.
var style = ddl.Style{
	Name:  "mssql",
	Quote: quoteIdent,
	Guard: func(fqn, stmt string) string {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n%s\nEND",
			strings.ReplaceAll(styleFQN(fqn), "'", "''"), stmt)
	},
}

// Dialect is the SQL Server spelling used by the SQL sink.
var Dialect = storage.Dialect{DDL: style, MapKind: MapKind}

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
		repo, err := newRepository(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return storage.NewSQLSink(repo, Dialect, cfg), nil
	})
}

// MapKind maps a column kind onto a SQL Server type.
func MapKind(k table.Kind) string {
	switch k {
	case table.KindInt:
		return "BIGINT"
	case table.KindFloat:
		return "FLOAT"
	case table.KindTime:
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}

// quoteIdent quotes a SQL Server identifier using [brackets], escaping ].
func quoteIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

func styleFQN(fqn string) string { return ddl.Style{Quote: quoteIdent}.QuoteFQN(fqn) }
