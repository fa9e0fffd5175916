package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salaryetl/internal/ddl"
	"salaryetl/internal/storage"
	"salaryetl/internal/table"
)

func TestSplitFQN(t *testing.T) {
	t.Parallel()

	assert.Equal(t, pgx.Identifier{"public", "fact"}, splitFQN("public.fact"))
	assert.Equal(t, pgx.Identifier{"fact"}, splitFQN("fact"))
	assert.Equal(t, pgx.Identifier{"a", "b"}, splitFQN(" a..b "))
}

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	tb := table.New()
	tb.AddColumn("year", table.KindInt)
	tb.AddColumn("salary_per_hour", table.KindFloat)

	got, err := ddl.BuildCreateTableSQL(ddl.FromTable("analytics.fact", tb, MapKind), Dialect.DDL)
	require.NoError(t, err)
	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS \"analytics\".\"fact\" (\n  \"year\" BIGINT,\n  \"salary_per_hour\" DOUBLE PRECISION\n);",
		got)
}

func TestMapKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "TIMESTAMPTZ", MapKind(table.KindTime))
	assert.Equal(t, "TEXT", MapKind(table.KindUnknown))
}

func TestFactory_UsesRepositoryHook(t *testing.T) {
	orig := newRepository
	t.Cleanup(func() { newRepository = orig })

	var gotDSN string
	newRepository = func(_ context.Context, dsn string) (storage.Repository, error) {
		gotDSN = dsn
		return nil, errors.New("refused")
	}

	_, err := storage.New(context.Background(), storage.Config{Kind: "postgres", DSN: "postgres://u@h/db"})
	assert.ErrorContains(t, err, "refused")
	assert.Equal(t, "postgres://u@h/db", gotDSN)
}

// TestIntegration_Append runs against a live server when
// ETL_TEST_POSTGRES_DSN is set.
func TestIntegration_Append(t *testing.T) {
	dsn := os.Getenv("ETL_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ETL_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	s, err := storage.New(ctx, storage.Config{Kind: "postgres", DSN: dsn, AutoCreateTable: true})
	require.NoError(t, err)
	defer s.Close()

	tb := table.New()
	tb.AddColumn("year", table.KindInt)
	tb.Append(table.Row{"year": int64(2024)})

	_, err = s.Write(ctx, storage.WriteTruncate, "etl_it_fact", tb)
	require.NoError(t, err)
	n, err := s.Write(ctx, storage.WriteAppend, "etl_it_fact", tb)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
