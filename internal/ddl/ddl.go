// Package ddl is a small, backend-agnostic model for CREATE TABLE statements.
//
// A TableDef is rendered through a Style, which carries the few things SQL
// dialects disagree on: identifier quoting, IF NOT EXISTS support and, for
// T-SQL, a guard wrapped around the statement. Storage backends declare their
// Style next to their repository; FromTable derives a TableDef from an
// in-memory table using the backend's kind-to-type mapping.
package ddl

import (
	"fmt"
	"strings"

	"salaryetl/internal/table"
)

// ColumnDef describes a single column.
//
// Name is unquoted; quoting happens at render time. Default is a raw SQL
// expression.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef is a dotted table name ("schema.table") plus ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Style is a dialect's DDL spelling. The zero Style emits plain, unquoted
// CREATE TABLE.
type Style struct {
	// Name prefixes error messages ("postgres ddl: ...").
	Name string

	// Quote quotes one identifier segment; nil leaves names as they are.
	Quote func(string) string

	// IfNotExists renders CREATE TABLE IF NOT EXISTS.
	IfNotExists bool

	// Guard wraps the finished statement, e.g. a T-SQL OBJECT_ID check. It
	// receives the unquoted FQN.
	Guard func(fqn, stmt string) string
}

func (s Style) prefix() string {
	if s.Name == "" {
		return "ddl"
	}
	return s.Name + " ddl"
}

func (s Style) ident(id string) string {
	if s.Quote == nil {
		return id
	}
	return s.Quote(id)
}

// QuoteFQN quotes each dot-separated segment of fqn. Empty segments are
// dropped.
func (s Style) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, s.ident(p))
	}
	return strings.Join(out, ".")
}

// BuildCreateTableSQL renders t as
//
//	CREATE TABLE [IF NOT EXISTS] <fqn> (
//	  <col> <type> [NOT NULL] [DEFAULT <expr>],
//	  ...
//	  [PRIMARY KEY (<pk>, ...)]
//	);
//
// Primary key columns are always NOT NULL. Names, types and defaults are
// trimmed.
func BuildCreateTableSQL(t TableDef, s Style) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", s.prefix())
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", s.prefix())
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", s.prefix(), fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing SQLType", s.prefix(), name)
		}

		var sb strings.Builder
		sb.WriteString(s.ident(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, s.ident(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	create := "CREATE TABLE "
	if s.IfNotExists {
		create += "IF NOT EXISTS "
	}
	stmt := fmt.Sprintf("%s%s (\n  %s\n);", create, s.QuoteFQN(fqn), strings.Join(cols, ",\n  "))
	if s.Guard != nil {
		stmt = s.Guard(fqn, stmt)
	}
	return stmt, nil
}

// FromTable derives a TableDef with one nullable column per column of t,
// typed by mapKind.
func FromTable(fqn string, t *table.Table, mapKind func(table.Kind) string) TableDef {
	def := TableDef{FQN: fqn}
	for _, c := range t.Columns() {
		def.Columns = append(def.Columns, ColumnDef{
			Name:     c,
			SQLType:  mapKind(t.Kind(c)),
			Nullable: true,
		})
	}
	return def
}
