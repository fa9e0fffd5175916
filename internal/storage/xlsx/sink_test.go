package xlsx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salaryetl/internal/storage"
	"salaryetl/internal/table"
)

func summary() *table.Table {
	tb := table.New()
	tb.AddColumn("year", table.KindInt)
	tb.AddColumn("salary_per_hour", table.KindFloat)
	tb.Append(table.Row{"year": int64(2024), "salary_per_hour": 666.67})
	tb.Append(table.Row{"year": int64(2025), "salary_per_hour": 421.05})
	return tb
}

func sheetRows(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestSink_Modes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "summary.xlsx")
	s, err := storage.New(ctx, storage.Config{Kind: "xlsx", DSN: path})
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 2; i++ {
		n, err := s.Write(ctx, storage.WriteAppend, "fact", summary())
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	}
	rows := sheetRows(t, path, "fact")
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"year", "salary_per_hour"}, rows[0])
	assert.Equal(t, []string{"2025", "421.05"}, rows[4])

	_, err = s.Write(ctx, storage.WriteEmpty, "fact", summary())
	assert.ErrorIs(t, err, storage.ErrTargetNotEmpty)

	_, err = s.Write(ctx, storage.WriteTruncate, "fact", summary())
	require.NoError(t, err)
	assert.Len(t, sheetRows(t, path, "fact"), 3)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"fact"}, f.GetSheetList(), "unused default sheet is dropped")
}

func TestNew_RequiresPath(t *testing.T) {
	t.Parallel()

	_, err := New(" ", nil)
	assert.ErrorContains(t, err, "workbook path")
}
