package ddl

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salaryetl/internal/table"
)

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	dq := func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }

	tests := []struct {
		name        string
		def         TableDef
		style       Style
		wantSQL     string
		errContains string
	}{
		{
			name:        "empty FQN",
			def:         TableDef{Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}},
			style:       Style{Name: "sqlite"},
			errContains: "sqlite ddl: table FQN must not be empty",
		},
		{
			name:        "no columns",
			def:         TableDef{FQN: "t"},
			errContains: "at least one column is required",
		},
		{
			name:        "empty column name",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{SQLType: "INT"}}},
			errContains: "column with empty name",
		},
		{
			name:        "empty column type",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id"}}},
			errContains: "missing SQLType",
		},
		{
			name:    "plain nullable",
			def:     TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id", SQLType: "INT", Nullable: true}}},
			wantSQL: "CREATE TABLE t (\n  id INT\n);",
		},
		{
			name: "default and primary key",
			def: TableDef{FQN: "t", Columns: []ColumnDef{
				{Name: "id", SQLType: "INT", Nullable: true, PrimaryKey: true},
				{Name: "created_at", SQLType: "TIMESTAMP", Default: " CURRENT_TIMESTAMP "},
			}},
			wantSQL: "CREATE TABLE t (\n  id INT NOT NULL,\n  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,\n  PRIMARY KEY (id)\n);",
		},
		{
			name:    "quoted with if not exists",
			def:     TableDef{FQN: " analytics.fact ", Columns: []ColumnDef{{Name: `we"ird`, SQLType: "TEXT", Nullable: true}}},
			style:   Style{Quote: dq, IfNotExists: true},
			wantSQL: "CREATE TABLE IF NOT EXISTS \"analytics\".\"fact\" (\n  \"we\"\"ird\" TEXT\n);",
		},
		{
			name: "guard",
			def:  TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id", SQLType: "INT", Nullable: true}}},
			style: Style{Guard: func(fqn, stmt string) string {
				return "IF OBJECT_ID(N'" + fqn + "') IS NULL\n" + stmt
			}},
			wantSQL: "IF OBJECT_ID(N't') IS NULL\nCREATE TABLE t (\n  id INT\n);",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := BuildCreateTableSQL(tt.def, tt.style)
			if tt.errContains != "" {
				assert.ErrorContains(t, err, tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, got)
		})
	}
}

func TestFromTable(t *testing.T) {
	t.Parallel()

	tb := table.New()
	tb.AddColumn("year", table.KindInt)
	tb.AddColumn("salary_per_hour", table.KindFloat)

	def := FromTable("fact", tb, func(k table.Kind) string {
		if k == table.KindInt {
			return "BIGINT"
		}
		return "DOUBLE"
	})
	assert.Equal(t, TableDef{FQN: "fact", Columns: []ColumnDef{
		{Name: "year", SQLType: "BIGINT", Nullable: true},
		{Name: "salary_per_hour", SQLType: "DOUBLE", Nullable: true},
	}}, def)
}

var benchmarkSink string

func BenchmarkBuildCreateTableSQL(b *testing.B) {
	cols := make([]ColumnDef, 0, 64)
	for i := 0; i < 64; i++ {
		cols = append(cols, ColumnDef{Name: "col_" + strconv.Itoa(i), SQLType: "TEXT", Nullable: true})
	}
	def := TableDef{FQN: "wide", Columns: cols}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sql, err := BuildCreateTableSQL(def, Style{IfNotExists: true})
		if err != nil {
			b.Fatalf("BuildCreateTableSQL() error = %v", err)
		}
		benchmarkSink = sql
	}
}
