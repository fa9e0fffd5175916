package bigquery

import (
	"context"
	"regexp"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salaryetl/internal/storage"
	"salaryetl/internal/table"
)

func TestDisposition(t *testing.T) {
	t.Parallel()

	for mode, want := range map[storage.WriteMode]bigquery.TableWriteDisposition{
		storage.WriteAppend:   bigquery.WriteAppend,
		storage.WriteTruncate: bigquery.WriteTruncate,
		storage.WriteEmpty:    bigquery.WriteEmpty,
	} {
		got, err := disposition(mode)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := disposition("merge")
	assert.Error(t, err)
}

func TestSplitTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target            string
		wantP, wantD, wtT string
		wantErr           bool
	}{
		{target: "fact_detail_salary_temp", wantP: "proj", wantD: "analytics", wtT: "fact_detail_salary_temp"},
		{target: "mart.fact", wantP: "proj", wantD: "mart", wtT: "fact"},
		{target: "other.mart.fact", wantP: "other", wantD: "mart", wtT: "fact"},
		{target: "a.b.c.d", wantErr: true},
		{target: "mart.", wantErr: true},
	}
	for _, tc := range tests {
		p, d, tb, err := splitTarget(tc.target, "proj", "analytics")
		if tc.wantErr {
			assert.Error(t, err, tc.target)
			continue
		}
		require.NoError(t, err, tc.target)
		assert.Equal(t, []string{tc.wantP, tc.wantD, tc.wtT}, []string{p, d, tb})
	}

	_, _, _, err := splitTarget("fact", "proj", "")
	assert.ErrorContains(t, err, "needs project, dataset and table")
}

func TestSchemaAndNDJSON(t *testing.T) {
	t.Parallel()

	tb := table.New()
	tb.AddColumn("year", table.KindInt)
	tb.AddColumn("salary_per_hour", table.KindFloat)
	tb.AddColumn("loaded_at", table.KindTime)
	tb.Append(table.Row{"year": int64(2024), "salary_per_hour": 666.67,
		"loaded_at": time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)})
	tb.Append(table.Row{"year": int64(2024), "salary_per_hour": nil, "loaded_at": nil})

	s := schemaFor(tb)
	require.Len(t, s, 3)
	assert.Equal(t, bigquery.IntegerFieldType, s[0].Type)
	assert.Equal(t, bigquery.FloatFieldType, s[1].Type)
	assert.Equal(t, bigquery.TimestampFieldType, s[2].Type)

	body, err := encodeNDJSON(tb)
	require.NoError(t, err)
	assert.Equal(t,
		`{"loaded_at":"2024-03-01T07:00:00Z","salary_per_hour":666.67,"year":2024}`+"\n"+
			`{"year":2024}`+"\n",
		string(body))
}

func TestJobID(t *testing.T) {
	t.Parallel()

	a, b := JobID("dataset.fact table"), JobID("dataset.fact table")
	assert.NotEqual(t, a, b)
	assert.Regexp(t, regexp.MustCompile(`^etl_dataset_fact_table_[0-9a-f-]{36}$`), a)
}

func TestNew_RequiresProject(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), storage.Config{Kind: "bigquery"})
	assert.ErrorContains(t, err, "project is required")
}
