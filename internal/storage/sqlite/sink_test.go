package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salaryetl/internal/storage"
	"salaryetl/internal/table"
)

func summary() *table.Table {
	tb := table.New()
	for _, c := range []string{"year", "month", "branch_id", "total_employee", "total_salary"} {
		tb.AddColumn(c, table.KindInt)
	}
	tb.AddColumn("salary_per_hour", table.KindFloat)
	tb.Append(table.Row{"year": int64(2024), "month": int64(1), "branch_id": int64(10),
		"total_employee": int64(3), "total_salary": int64(12000), "salary_per_hour": 666.67})
	tb.Append(table.Row{"year": int64(2024), "month": int64(2), "branch_id": int64(20),
		"total_employee": int64(1), "total_salary": int64(8000), "salary_per_hour": nil})
	return tb
}

func openSink(t *testing.T) (storage.Sink, *Repository) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "warehouse.db")
	s, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: dsn, AutoCreateTable: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	// Second handle for assertions.
	r, err := NewRepository(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return s, r
}

func TestSink_AppendTwiceDoublesRows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, r := openSink(t)

	for i := 0; i < 2; i++ {
		n, err := s.Write(ctx, storage.WriteAppend, "fact_detail_salary_temp", summary())
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	}

	got, err := r.CountRows(ctx, "fact_detail_salary_temp")
	require.NoError(t, err)
	assert.Equal(t, int64(4), got, "append is not idempotent")

	var sph float64
	require.NoError(t, r.db.QueryRowContext(ctx,
		`SELECT salary_per_hour FROM fact_detail_salary_temp WHERE month = 1 LIMIT 1`).Scan(&sph))
	assert.Equal(t, 666.67, sph)
}

func TestSink_TruncateAndEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, r := openSink(t)

	_, err := s.Write(ctx, storage.WriteEmpty, "fact", summary())
	require.NoError(t, err, "empty mode accepts a freshly created table")

	_, err = s.Write(ctx, storage.WriteEmpty, "fact", summary())
	assert.ErrorIs(t, err, storage.ErrTargetNotEmpty)

	_, err = s.Write(ctx, storage.WriteAppend, "fact", summary())
	require.NoError(t, err)
	_, err = s.Write(ctx, storage.WriteTruncate, "fact", summary())
	require.NoError(t, err)

	got, err := r.CountRows(ctx, "fact")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
}

func TestSink_MissingTableWithoutAutoCreate(t *testing.T) {
	t.Parallel()

	dsn := filepath.Join(t.TempDir(), "w.db")
	s, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: dsn})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Write(context.Background(), storage.WriteAppend, "fact", summary())
	assert.ErrorContains(t, err, "no such table")
}

func TestRepository_TimeAsText(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r, err := NewRepository(ctx, ":memory:")
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Exec(ctx, `CREATE TABLE ev (at TEXT)`))
	ts := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	_, err = r.CopyFrom(ctx, "ev", []string{"at"}, [][]any{{Dialect.Value(ts)}})
	require.NoError(t, err)

	var got string
	require.NoError(t, r.db.QueryRowContext(ctx, `SELECT at FROM ev`).Scan(&got))
	assert.Equal(t, "2024-01-02 08:00:00", got)

	_, err = r.CopyFrom(ctx, "ev", []string{"at"}, [][]any{{"a", "b"}})
	assert.ErrorContains(t, err, "has 2 values, want 1")
}

func TestFactory_UsesRepositoryHook(t *testing.T) {
	orig := newRepository
	t.Cleanup(func() { newRepository = orig })

	var gotDSN string
	newRepository = func(_ context.Context, dsn string) (storage.Repository, error) {
		gotDSN = dsn
		return nil, errors.New("boom")
	}

	_, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: "x.db"})
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, "x.db", gotDSN)
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := NewRepository(context.Background(), " ")
	assert.ErrorContains(t, err, "DSN must not be empty")
}
