package transformer

import "salaryetl/internal/table"

// DropNullHours removes every row whose hour_diff is null and reports how
// many were removed. Zero and negative hours are kept.
func DropNullHours(t *table.Table) (*table.Table, int) {
	out := t.Filter(func(r table.Row) bool { return r[ColHourDiff] != nil })
	return out, t.Len() - out.Len()
}
