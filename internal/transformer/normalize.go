package transformer

import (
	"errors"
	"fmt"

	"salaryetl/internal/table"
)

// ErrMissingColumn is returned when an input lacks a column the transform
// cannot do without (the join key).
var ErrMissingColumn = errors.New("missing column")

// Canonical column names.
const (
	ColEmployeeID  = "employee_id"
	ColBranchID    = "branch_id"
	ColSalary      = "salary"
	ColJoinDate    = "join_date"
	ColResignDate  = "resign_date"
	ColTimesheetID = "timesheet_id"
	ColDate        = "date"
	ColCheckin     = "checkin"
	ColCheckout    = "checkout"

	ColYear     = "year"
	ColMonth    = "month"
	ColHourDiff = "hour_diff"
)

// Schema is the canonical column-to-kind mapping plus the join key aliases.
type Schema struct {
	// Key is the canonical join column.
	Key string

	// KeyAliases are alternate spellings renamed to Key.
	KeyAliases []string

	// Types maps column name to canonical kind. Columns not listed are left
	// untouched.
	Types map[string]table.Kind

	// DateLayouts override DefaultDateLayouts for time columns.
	DateLayouts []string
}

// DefaultSchema returns the employee/timesheet canonical schema.
func DefaultSchema() Schema {
	return Schema{
		Key:        ColEmployeeID,
		KeyAliases: []string{"employe_id", "emp_id", "employeeid"},
		Types: map[string]table.Kind{
			ColEmployeeID:  table.KindInt,
			ColBranchID:    table.KindInt,
			ColSalary:      table.KindInt,
			ColJoinDate:    table.KindTime,
			ColResignDate:  table.KindTime,
			ColTimesheetID: table.KindString,
			ColDate:        table.KindTime,
			ColCheckin:     table.KindString,
			ColCheckout:    table.KindString,
		},
	}
}

// NormalizeReport describes what Normalize changed.
type NormalizeReport struct {
	// Renamed lists "table.from→to" renames that happened.
	Renamed []string

	// Casts holds one result per (table, column) cast attempt, employees first.
	Casts []CastResult
}

// Warnings returns the ErrCoercionSkipped errors of every refused cast.
func (r NormalizeReport) Warnings() []error {
	var out []error
	for _, c := range r.Casts {
		if err := c.Err(); err != nil {
			out = append(out, err)
		}
	}
	return out
}

// Normalize renames join key aliases to the canonical key and applies the
// canonical type mapping to both tables. The inputs are not modified.
//
// Casting is best effort; a refused cast is reported, never returned as an
// error. The only error is a table that has no join key at all.
func Normalize(employees, timesheets *table.Table, s Schema) (*table.Table, *table.Table, NormalizeReport, error) {
	var rep NormalizeReport
	emp, ts := employees.Clone(), timesheets.Clone()

	for _, nt := range []struct {
		name string
		t    *table.Table
	}{{"employees", emp}, {"timesheets", ts}} {
		from, err := renameKey(nt.t, s)
		if err != nil {
			return nil, nil, rep, fmt.Errorf("%s: %w", nt.name, err)
		}
		if from != "" {
			rep.Renamed = append(rep.Renamed, fmt.Sprintf("%s.%s→%s", nt.name, from, s.Key))
		}
		if !nt.t.Has(s.Key) {
			return nil, nil, rep, fmt.Errorf("%s: %w %q", nt.name, ErrMissingColumn, s.Key)
		}
	}

	c := Caster{DateLayouts: s.DateLayouts}
	for _, t := range []*table.Table{emp, ts} {
		for _, col := range t.Columns() {
			k, ok := s.Types[col]
			if !ok {
				continue
			}
			rep.Casts = append(rep.Casts, c.Cast(t, col, k))
		}
	}
	return emp, ts, rep, nil
}

// renameKey renames the first alias present to s.Key and returns it.
func renameKey(t *table.Table, s Schema) (string, error) {
	if t.Has(s.Key) {
		return "", nil
	}
	for _, a := range s.KeyAliases {
		if !t.Has(a) {
			continue
		}
		if err := t.Rename(a, s.Key); err != nil {
			return "", err
		}
		return a, nil
	}
	return "", nil
}
