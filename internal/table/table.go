// Package table is the in-memory tabular model shared by every stage of the
// salary job: the CSV loader produces tables, the transformer rewrites them,
// and storage backends consume them.
//
// A Table is column-ordered and row-major. Cells are one of int64, float64,
// string, time.Time or nil (null). Each column carries a Kind describing the
// type every non-null cell is known to have; KindUnknown means the column is
// mixed or has not been typed yet.
package table

import (
	"fmt"
	"slices"
	"time"
)

// Kind is the canonical type of a column.
type Kind string

const (
	KindUnknown Kind = ""
	KindInt     Kind = "int"
	KindFloat   Kind = "float"
	KindString  Kind = "string"
	KindTime    Kind = "time"
)

// ParseKind maps a config/type name onto a Kind. It accepts the usual
// database spellings so pipeline files can say "bigint" or "datetime".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "int", "int64", "integer", "bigint":
		return KindInt, nil
	case "float", "float64", "double", "real", "numeric":
		return KindFloat, nil
	case "string", "text", "varchar":
		return KindString, nil
	case "time", "date", "datetime", "datetime64", "timestamp":
		return KindTime, nil
	}
	return KindUnknown, fmt.Errorf("table: unknown kind %q", s)
}

// Row maps column name to cell value. A missing key reads as null.
type Row map[string]any

// Table is an ordered set of named columns plus rows.
type Table struct {
	columns []string
	kinds   map[string]Kind
	Rows    []Row
}

// New returns an empty table with the given column order.
func New(columns ...string) *Table {
	t := &Table{kinds: make(map[string]Kind, len(columns))}
	for _, c := range columns {
		t.AddColumn(c, KindUnknown)
	}
	return t
}

// Columns returns a copy of the column order.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Has reports whether the table has the named column.
func (t *Table) Has(col string) bool {
	_, ok := t.kinds[col]
	return ok
}

// Kind returns the recorded kind of col.
func (t *Table) Kind(col string) Kind { return t.kinds[col] }

// SetKind records the kind of an existing column.
func (t *Table) SetKind(col string, k Kind) {
	if t.Has(col) {
		t.kinds[col] = k
	}
}

// AddColumn appends a column. Adding an existing column only updates its kind.
func (t *Table) AddColumn(col string, k Kind) {
	if t.kinds == nil {
		t.kinds = map[string]Kind{}
	}
	if !t.Has(col) {
		t.columns = append(t.columns, col)
	}
	t.kinds[col] = k
}

// Rename renames a column in place, including every row's key. Renaming onto
// an existing column is refused.
func (t *Table) Rename(from, to string) error {
	if from == to || !t.Has(from) {
		return nil
	}
	if t.Has(to) {
		return fmt.Errorf("table: rename %q: column %q already exists", from, to)
	}
	i := slices.Index(t.columns, from)
	t.columns[i] = to
	t.kinds[to] = t.kinds[from]
	delete(t.kinds, from)
	for _, r := range t.Rows {
		if v, ok := r[from]; ok {
			r[to] = v
			delete(r, from)
		}
	}
	return nil
}

// Append adds a row. Keys outside the column set are ignored by consumers.
func (t *Table) Append(r Row) { t.Rows = append(t.Rows, r) }

// Select returns a new table containing only cols, in that order. Cell values
// are shared; rows are not.
func (t *Table) Select(cols ...string) (*Table, error) {
	out := New()
	for _, c := range cols {
		if !t.Has(c) {
			return nil, fmt.Errorf("table: select: no column %q", c)
		}
		out.AddColumn(c, t.kinds[c])
	}
	out.Rows = make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		nr := make(Row, len(cols))
		for _, c := range cols {
			nr[c] = r[c]
		}
		out.Rows = append(out.Rows, nr)
	}
	return out, nil
}

// Filter returns a new table with the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := t.emptyLike()
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Clone deep-copies the row maps. Cell values are immutable so they are shared.
func (t *Table) Clone() *Table {
	out := t.emptyLike()
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[k] = v
		}
		out.Rows[i] = nr
	}
	return out
}

// Values returns rows as positional slices aligned to cols, the shape bulk
// loaders expect.
func (t *Table) Values(cols []string) [][]any {
	out := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		vals := make([]any, len(cols))
		for j, c := range cols {
			vals[j] = r[c]
		}
		out[i] = vals
	}
	return out
}

func (t *Table) emptyLike() *Table {
	out := New()
	for _, c := range t.columns {
		out.AddColumn(c, t.kinds[c])
	}
	return out
}

// KindOf reports the Kind of a single cell value; nil reports KindUnknown.
func KindOf(v any) Kind {
	switch v.(type) {
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case time.Time:
		return KindTime
	}
	return KindUnknown
}
