// Package all wires every built-in sink backend into the storage factory.
//
// Importing it for side effects makes these kinds available to storage.New:
//
//   - "bigquery" (salaryetl/internal/storage/bigquery)
//   - "csv"      (salaryetl/internal/storage/csvfile)
//   - "mssql"    (salaryetl/internal/storage/mssql)
//   - "mysql"    (salaryetl/internal/storage/mysql)
//   - "postgres" (salaryetl/internal/storage/postgres)
//   - "sqlite"   (salaryetl/internal/storage/sqlite)
//   - "xlsx"     (salaryetl/internal/storage/xlsx)
//
// A binary that needs only a subset can import the backends directly instead.
package all

import (
	_ "salaryetl/internal/storage/bigquery"
	_ "salaryetl/internal/storage/csvfile"
	_ "salaryetl/internal/storage/mssql"
	_ "salaryetl/internal/storage/mysql"
	_ "salaryetl/internal/storage/postgres"
	_ "salaryetl/internal/storage/sqlite"
	_ "salaryetl/internal/storage/xlsx"
)
