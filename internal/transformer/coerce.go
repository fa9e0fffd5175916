package transformer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"salaryetl/internal/table"
)

// ErrCoercionSkipped classifies a column cast that was refused because at
// least one cell could not be converted. It is a warning: the column keeps
// its original values and the run continues.
var ErrCoercionSkipped = errors.New("coercion skipped")

// DefaultDateLayouts are tried in order when casting text to time.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02/01/2006",
}

// CastFailure records one cell that refused a cast.
type CastFailure struct {
	Row   int
	Value any
	Err   error
}

// CastResult is the outcome of casting one column. A column is cast all or
// nothing: when any cell fails, Applied is false and the column is left as it
// was, so downstream stages can tell a typed column from a dirty one by its
// table.Kind.
type CastResult struct {
	Column   string
	Target   table.Kind
	Applied  bool
	Failures []CastFailure
}

// Err returns nil for an applied cast and an ErrCoercionSkipped-wrapped
// error describing the first failure otherwise.
func (r CastResult) Err() error {
	if r.Applied {
		return nil
	}
	if len(r.Failures) == 0 {
		return fmt.Errorf("%w: column %s to %s", ErrCoercionSkipped, r.Column, r.Target)
	}
	f := r.Failures[0]
	return fmt.Errorf("%w: column %s to %s: %d cell(s) failed, first at row %d (%v): %v",
		ErrCoercionSkipped, r.Column, r.Target, len(r.Failures), f.Row, f.Value, f.Err)
}

// Caster converts table columns to canonical kinds.
type Caster struct {
	// DateLayouts used for text → time; DefaultDateLayouts when empty.
	DateLayouts []string
}

// Cast converts col in place when every non-null cell converts to k.
// Missing columns yield an applied, empty result.
func (c Caster) Cast(t *table.Table, col string, k table.Kind) CastResult {
	res := CastResult{Column: col, Target: k}
	if !t.Has(col) {
		res.Applied = true
		return res
	}

	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		v := r[col]
		if v == nil {
			continue
		}
		cv, err := c.castValue(v, k)
		if err != nil {
			res.Failures = append(res.Failures, CastFailure{Row: i, Value: v, Err: err})
			continue
		}
		out[i] = cv
	}
	if len(res.Failures) > 0 {
		return res
	}

	for i, r := range t.Rows {
		r[col] = out[i]
	}
	t.SetKind(col, k)
	res.Applied = true
	return res
}

func (c Caster) castValue(v any, k table.Kind) (any, error) {
	switch k {
	case table.KindInt:
		return toInt(v)
	case table.KindFloat:
		return toFloat(v)
	case table.KindString:
		return toString(v), nil
	case table.KindTime:
		return c.toTime(v)
	}
	return nil, fmt.Errorf("unsupported target kind %q", k)
}

// toInt accepts integral floats ("42.0" style) but never truncates.
func toInt(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x != math.Trunc(x) ||
			x > math.MaxInt64 || x < math.MinInt64 {
			return 0, fmt.Errorf("%v is not an integer", x)
		}
		return int64(x), nil
	case string:
		s := strings.TrimSpace(x)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		if strings.IndexByte(s, '.') >= 0 {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return toInt(f)
			}
		}
		return 0, fmt.Errorf("%q is not an integer", x)
	}
	return 0, fmt.Errorf("cannot convert %T to int", v)
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", x)
		}
		return f, nil
	}
	return 0, fmt.Errorf("cannot convert %T to float", v)
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprint(v)
}

func (c Caster) toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		layouts := c.DateLayouts
		if len(layouts) == 0 {
			layouts = DefaultDateLayouts
		}
		s := strings.TrimSpace(x)
		for _, l := range layouts {
			if ts, err := time.Parse(l, s); err == nil {
				return ts, nil
			}
		}
		return time.Time{}, fmt.Errorf("%q matches no date layout", x)
	}
	return time.Time{}, fmt.Errorf("cannot convert %T to time", v)
}
