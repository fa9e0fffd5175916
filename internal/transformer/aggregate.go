package transformer

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"salaryetl/internal/table"
)

// Aggregate output columns not already named by the input.
const (
	ColTotalEmployee = "total_employee"
	ColTotalSalary   = "total_salary"
	ColTotalHour     = "total_hour"
	ColSalaryPerHour = "salary_per_hour"
)

// ErrZeroHours is returned under ZeroHoursError when a group worked zero hours.
var ErrZeroHours = errors.New("zero total hours")

// ZeroHours selects the salary_per_hour of a group whose total_hour is 0.
type ZeroHours string

const (
	ZeroHoursNull  ZeroHours = "null"
	ZeroHoursZero  ZeroHours = "zero"
	ZeroHoursError ZeroHours = "error"
)

// ParseZeroHours parses a policy name; "" means ZeroHoursNull.
func ParseZeroHours(s string) (ZeroHours, error) {
	switch p := ZeroHours(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ZeroHoursNull, nil
	case ZeroHoursNull, ZeroHoursZero, ZeroHoursError:
		return p, nil
	}
	return "", fmt.Errorf("unknown zero_hours policy %q", s)
}

const maxReasons = 5

// AggregateOptions configures Aggregate.
type AggregateOptions struct {
	ZeroHours ZeroHours
}

// AggregateStats summarizes both aggregation levels.
type AggregateStats struct {
	Input    int
	Rejected int
	Buckets  int
	Groups   int
	// Reasons holds the first few rejection reasons.
	Reasons []string
}

// BucketKey identifies a stage-1 bucket.
type BucketKey struct {
	Year, Month, BranchID, Salary int64
}

// Bucket is one (year, month, branch, salary) group.
type Bucket struct {
	BucketKey
	TotalHour     float64
	TotalEmployee int64
}

// GroupKey identifies a stage-2 group.
type GroupKey struct {
	Year, Month, BranchID int64
}

// Summary is one (year, month, branch) output row. SalaryPerHour is nil
// when the null policy met a zero total_hour.
type Summary struct {
	GroupKey
	TotalEmployee int64
	TotalSalary   int64
	TotalHour     float64
	SalaryPerHour *float64
}

// AggregateBuckets groups rows by (year, month, branch_id, salary), summing
// hour_diff and counting distinct employee_id values. Rows whose grouping or
// measure cells are null or not of the expected type are rejected. Buckets
// are returned sorted by key.
func AggregateBuckets(t *table.Table, st *AggregateStats) []Bucket {
	type acc struct {
		hours float64
		seen  map[any]struct{}
	}
	groups := make(map[BucketKey]*acc)
	for i, r := range t.Rows {
		st.Input++
		k, emp, h, err := bucketRow(r)
		if err != nil {
			st.Rejected++
			if len(st.Reasons) < maxReasons {
				st.Reasons = append(st.Reasons, fmt.Sprintf("row %d: %v", i, err))
			}
			continue
		}
		a := groups[k]
		if a == nil {
			a = &acc{seen: make(map[any]struct{})}
			groups[k] = a
		}
		a.hours += h
		a.seen[emp] = struct{}{}
	}

	out := make([]Bucket, 0, len(groups))
	for k, a := range groups {
		out = append(out, Bucket{BucketKey: k, TotalHour: a.hours, TotalEmployee: int64(len(a.seen))})
	}
	slices.SortFunc(out, func(a, b Bucket) int {
		return cmp.Or(
			cmp.Compare(a.Year, b.Year),
			cmp.Compare(a.Month, b.Month),
			cmp.Compare(a.BranchID, b.BranchID),
			cmp.Compare(a.Salary, b.Salary),
		)
	})
	st.Buckets = len(out)
	return out
}

func bucketRow(r table.Row) (BucketKey, any, float64, error) {
	var k BucketKey
	for _, f := range []struct {
		col string
		dst *int64
	}{
		{ColYear, &k.Year},
		{ColMonth, &k.Month},
		{ColBranchID, &k.BranchID},
		{ColSalary, &k.Salary},
	} {
		v, ok := r[f.col].(int64)
		if !ok {
			return k, nil, 0, fmt.Errorf("%s is %s, want int", f.col, describe(r[f.col]))
		}
		*f.dst = v
	}

	emp := r[ColEmployeeID]
	switch emp.(type) {
	case int64, string:
	default:
		return k, nil, 0, fmt.Errorf("%s is %s, want int or string", ColEmployeeID, describe(emp))
	}

	var h float64
	switch x := r[ColHourDiff].(type) {
	case float64:
		h = x
	case int64:
		h = float64(x)
	default:
		return k, nil, 0, fmt.Errorf("%s is %s, want number", ColHourDiff, describe(r[ColHourDiff]))
	}
	return k, emp, h, nil
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T(%v)", v, v)
}

// Summarize groups buckets by (year, month, branch_id). Each bucket's salary
// is added to total_salary once; hours and employee counts are summed.
func Summarize(buckets []Bucket, opt AggregateOptions) ([]Summary, error) {
	policy := opt.ZeroHours
	if policy == "" {
		policy = ZeroHoursNull
	}
	if _, err := ParseZeroHours(string(policy)); err != nil {
		return nil, err
	}

	idx := make(map[GroupKey]int)
	var out []Summary
	for _, b := range buckets {
		gk := GroupKey{Year: b.Year, Month: b.Month, BranchID: b.BranchID}
		i, ok := idx[gk]
		if !ok {
			i = len(out)
			idx[gk] = i
			out = append(out, Summary{GroupKey: gk})
		}
		s := &out[i]
		s.TotalSalary += b.Salary
		s.TotalHour += b.TotalHour
		s.TotalEmployee += b.TotalEmployee
	}

	for i := range out {
		s := &out[i]
		if s.TotalHour != 0 {
			v := float64(s.TotalSalary) / s.TotalHour
			s.SalaryPerHour = &v
			continue
		}
		switch policy {
		case ZeroHoursZero:
			v := 0.0
			s.SalaryPerHour = &v
		case ZeroHoursError:
			return nil, fmt.Errorf("%w: year=%d month=%d branch_id=%d", ErrZeroHours, s.Year, s.Month, s.BranchID)
		}
	}

	slices.SortFunc(out, func(a, b Summary) int {
		return cmp.Or(
			cmp.Compare(a.Year, b.Year),
			cmp.Compare(a.Month, b.Month),
			cmp.Compare(a.BranchID, b.BranchID),
		)
	})
	return out, nil
}

// Aggregate runs both aggregation levels and returns the summary table with
// columns year, month, branch_id, total_employee, total_salary, total_hour
// and salary_per_hour, sorted by (year, month, branch_id).
func Aggregate(t *table.Table, opt AggregateOptions) (*table.Table, AggregateStats, error) {
	var st AggregateStats
	buckets := AggregateBuckets(t, &st)
	sums, err := Summarize(buckets, opt)
	if err != nil {
		return nil, st, err
	}
	st.Groups = len(sums)

	out := table.New()
	for _, c := range []string{ColYear, ColMonth, ColBranchID, ColTotalEmployee, ColTotalSalary} {
		out.AddColumn(c, table.KindInt)
	}
	out.AddColumn(ColTotalHour, table.KindFloat)
	out.AddColumn(ColSalaryPerHour, table.KindFloat)

	out.Rows = make([]table.Row, 0, len(sums))
	for _, s := range sums {
		var sph any
		if s.SalaryPerHour != nil {
			sph = *s.SalaryPerHour
		}
		out.Rows = append(out.Rows, table.Row{
			ColYear:          s.Year,
			ColMonth:         s.Month,
			ColBranchID:      s.BranchID,
			ColTotalEmployee: s.TotalEmployee,
			ColTotalSalary:   s.TotalSalary,
			ColTotalHour:     s.TotalHour,
			ColSalaryPerHour: sph,
		})
	}
	return out, st, nil
}
