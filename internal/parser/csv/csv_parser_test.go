package csv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salaryetl/internal/table"
)

func TestReadTable_InfersKinds(t *testing.T) {
	t.Parallel()

	const in = "employe_id,branch_id,salary,join_date,resign_date,rate\n" +
		"1,10,5000,2021-01-01,,1.5\n" +
		"2,10,7000,2021-02-01,2023-01-01,2\n"

	tb, err := ReadTable(context.Background(), strings.NewReader(in), Options{})
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"employe_id", "branch_id", "salary", "join_date", "resign_date", "rate"},
		tb.Columns())
	assert.Equal(t, table.KindInt, tb.Kind("employe_id"))
	assert.Equal(t, table.KindInt, tb.Kind("salary"))
	assert.Equal(t, table.KindString, tb.Kind("join_date"))
	assert.Equal(t, table.KindFloat, tb.Kind("rate"), "mixed int/float cells widen to float")

	require.Equal(t, 2, tb.Len())
	assert.Equal(t, int64(5000), tb.Rows[0]["salary"])
	assert.Nil(t, tb.Rows[0]["resign_date"], "empty cell is null")
	assert.Equal(t, 2.0, tb.Rows[1]["rate"])
}

func TestReadTable_HeaderNormalization(t *testing.T) {
	t.Parallel()

	const in = "\uFEFF Employee ID ;Datum Od;Branch-Id;;salary;salary\n1;2024-01-01;3;x;4;5\n"

	tb, err := ReadTable(context.Background(), strings.NewReader(in), Options{
		Comma:     ';',
		HeaderMap: map[string]string{"employee_id": "emp"},
	})
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"emp", "datum_od", "branch_id", "col_4", "salary", "salary_2"},
		tb.Columns())
}

func TestReadTable_WhitespaceAndShortRows(t *testing.T) {
	t.Parallel()

	const in = "a,b,c\n  1 , x \n2,y,z\n"

	tb, err := ReadTable(context.Background(), strings.NewReader(in), Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), tb.Rows[0]["a"])
	assert.Equal(t, "x", tb.Rows[0]["b"])
	assert.Nil(t, tb.Rows[0]["c"], "missing trailing cell is null")

	kept, err := ReadTable(context.Background(), strings.NewReader(in), Options{KeepSpace: true})
	require.NoError(t, err)
	assert.Equal(t, table.KindString, kept.Kind("a"), "untrimmed ' 1 ' is not an int")
}

func TestReadTable_Encoding(t *testing.T) {
	t.Parallel()

	// "Pobočka" encoded as windows-1250 (č = 0xE8).
	in := []byte("id,pobo\xe8ka\n1,Brno\n")

	tb, err := ReadTable(context.Background(), strings.NewReader(string(in)), Options{Encoding: "windows-1250"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "pobocka"}, tb.Columns())

	_, err = ReadTable(context.Background(), strings.NewReader("a\n"), Options{Encoding: "ebcdic"})
	assert.ErrorContains(t, err, "unsupported encoding")
}

func TestReadTable_Errors(t *testing.T) {
	t.Parallel()

	_, err := ReadTable(context.Background(), strings.NewReader(""), Options{})
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = ReadTable(context.Background(), strings.NewReader("a,b\n\"1,2\n"), Options{})
	assert.Error(t, err, "unterminated quote must fail the read")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ReadTable(ctx, strings.NewReader("a\n1\n"), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadTable_Testdata(t *testing.T) {
	t.Parallel()

	f, err := os.Open(filepath.Join("..", "..", "..", "testdata", "timesheets.csv"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	tb, err := ReadTable(context.Background(), f, Options{})
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"timesheet_id", "employee_id", "date", "checkin", "checkout"},
		tb.Columns())
	assert.Equal(t, table.KindInt, tb.Kind("employee_id"))
	assert.Equal(t, table.KindString, tb.Kind("checkin"))
}
