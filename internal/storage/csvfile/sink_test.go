package csvfile

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salaryetl/internal/storage"
	"salaryetl/internal/table"
)

func summary() *table.Table {
	tb := table.New()
	tb.AddColumn("year", table.KindInt)
	tb.AddColumn("salary_per_hour", table.KindFloat)
	tb.Append(table.Row{"year": int64(2024), "salary_per_hour": 666.67})
	tb.Append(table.Row{"year": int64(2024), "salary_per_hour": nil})
	return tb
}

func TestSink_Modes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := storage.New(ctx, storage.Config{Kind: "csv", DSN: t.TempDir()})
	require.NoError(t, err)
	defer s.Close()
	path := s.(*Sink).Path("fact")

	_, err = s.Write(ctx, storage.WriteAppend, "fact", summary())
	require.NoError(t, err)
	n, err := s.Write(ctx, storage.WriteAppend, "fact", summary())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "year,salary_per_hour\n2024,666.67\n2024,\n2024,666.67\n2024,\n", string(b),
		"append writes the header once")

	_, err = s.Write(ctx, storage.WriteEmpty, "fact", summary())
	assert.ErrorIs(t, err, storage.ErrTargetNotEmpty)

	_, err = s.Write(ctx, storage.WriteTruncate, "fact", summary())
	require.NoError(t, err)
	got, err := countRows(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
}

func TestSink_InvalidTarget(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	_, err = s.Write(context.Background(), storage.WriteAppend, "../escape", summary())
	assert.ErrorContains(t, err, "invalid target")
}

func TestCountRows_Missing(t *testing.T) {
	t.Parallel()

	n, err := countRows(t.TempDir() + "/nope.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), n)
}
