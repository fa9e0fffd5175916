package all_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"salaryetl/internal/storage"
	_ "salaryetl/internal/storage/all"
)

func TestAllKindsRegistered(t *testing.T) {
	t.Parallel()

	kinds := storage.Kinds()
	for _, k := range []string{"bigquery", "csv", "mssql", "mysql", "postgres", "sqlite", "xlsx"} {
		assert.Contains(t, kinds, k)
	}
}
