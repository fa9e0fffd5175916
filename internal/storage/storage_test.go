package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salaryetl/internal/ddl"
	"salaryetl/internal/table"
)

func TestParseWriteMode(t *testing.T) {
	t.Parallel()

	tests := map[string]WriteMode{
		"":               WriteAppend,
		"append":         WriteAppend,
		"WRITE_APPEND":   WriteAppend,
		"truncate":       WriteTruncate,
		"WRITE_TRUNCATE": WriteTruncate,
		" Empty ":        WriteEmpty,
		"WRITE_EMPTY":    WriteEmpty,
	}
	for in, want := range tests {
		got, err := ParseWriteMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseWriteMode("upsert")
	assert.ErrorContains(t, err, "unknown write mode")
}

type fakeRepo struct {
	execs  []string
	copied [][]any
	count  int64
	err    error
	closed bool
}

func (f *fakeRepo) CopyFrom(_ context.Context, _ string, _ []string, rows [][]any) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.copied = append(f.copied, rows...)
	return int64(len(rows)), nil
}

func (f *fakeRepo) Exec(_ context.Context, sql string) error {
	f.execs = append(f.execs, sql)
	return nil
}

func (f *fakeRepo) CountRows(context.Context, string) (int64, error) { return f.count, nil }

func (f *fakeRepo) Close() error {
	f.closed = true
	return nil
}

func summaryTable() *table.Table {
	tb := table.New()
	tb.AddColumn("year", table.KindInt)
	tb.AddColumn("salary_per_hour", table.KindFloat)
	tb.Append(table.Row{"year": int64(2024), "salary_per_hour": 666.67})
	tb.Append(table.Row{"year": int64(2024), "salary_per_hour": nil})
	return tb
}

func testDialect() Dialect {
	return Dialect{
		DDL: ddl.Style{Name: "test", IfNotExists: true},
		MapKind: func(k table.Kind) string {
			return strings.ToUpper(string(k))
		},
	}
}

func TestSQLSink_Modes(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	s := NewSQLSink(repo, testDialect(), Config{AutoCreateTable: true, BatchSize: 1})

	n, err := s.Write(context.Background(), WriteAppend, "fact", summaryTable())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []string{"CREATE TABLE IF NOT EXISTS fact (\n  year INT,\n  salary_per_hour FLOAT\n);"}, repo.execs)
	assert.Equal(t, [][]any{{int64(2024), 666.67}, {int64(2024), nil}}, repo.copied)

	_, err = s.Write(context.Background(), WriteTruncate, "fact", summaryTable())
	require.NoError(t, err)
	assert.Equal(t, "TRUNCATE TABLE fact", repo.execs[len(repo.execs)-1])
	assert.Len(t, repo.copied, 4)

	repo.count = 4
	_, err = s.Write(context.Background(), WriteEmpty, "fact", summaryTable())
	assert.ErrorIs(t, err, ErrTargetNotEmpty)
	assert.Len(t, repo.copied, 4, "nothing copied into a non-empty target")

	require.NoError(t, s.Close())
	assert.True(t, repo.closed)
}

func TestSQLSink_Errors(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{err: errors.New("disk full")}
	d := testDialect()
	d.Truncate = func(q string) string { return "DELETE FROM " + q }
	d.Value = TimeAsText
	s := NewSQLSink(repo, d, Config{})

	_, err := s.Write(context.Background(), WriteAppend, "  ", summaryTable())
	assert.ErrorContains(t, err, "target table must not be empty")

	_, err = s.Write(context.Background(), WriteTruncate, "fact", summaryTable())
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, []string{"DELETE FROM fact"}, repo.execs)

	_, err = s.Write(context.Background(), "merge", "fact", summaryTable())
	assert.ErrorContains(t, err, "unsupported write mode")
}

func TestNew_UnknownKind(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Kind: "no-such-backend"})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestRegisterAndNew(t *testing.T) {
	t.Parallel()

	Register("Fake-Test", func(_ context.Context, cfg Config) (Sink, error) {
		if cfg.DSN == "" {
			return nil, errors.New("dsn required")
		}
		return NewSQLSink(&fakeRepo{}, testDialect(), cfg), nil
	})
	assert.Contains(t, Kinds(), "fake-test")

	s, err := New(context.Background(), Config{Kind: "fake-test", DSN: "x"})
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = New(context.Background(), Config{Kind: "FAKE-TEST"})
	assert.ErrorContains(t, err, "dsn required")
}
