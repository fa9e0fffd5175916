package transformer

import (
	"fmt"
	"math"
	"strings"
	"time"

	"salaryetl/internal/table"
)

// NegativeHours selects what Enrich does when checkout precedes checkin.
type NegativeHours string

const (
	// NegativeKeep keeps the floored negative difference.
	NegativeKeep NegativeHours = "keep"
	// NegativeDrop nulls hour_diff so DropNullHours removes the row.
	NegativeDrop NegativeHours = "drop"
	// NegativeOvernight adds 24h to time-of-day pairs that cross midnight.
	NegativeOvernight NegativeHours = "overnight"
)

// ParseNegativeHours parses a policy name; "" means NegativeKeep.
func ParseNegativeHours(s string) (NegativeHours, error) {
	switch p := NegativeHours(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return NegativeKeep, nil
	case NegativeKeep, NegativeDrop, NegativeOvernight:
		return p, nil
	}
	return "", fmt.Errorf("unknown negative_hours policy %q", s)
}

var (
	clockLayouts     = []string{"15:04:05", "15:04"}
	timestampLayouts = []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04"}
)

// EnrichOptions configures Enrich.
type EnrichOptions struct {
	Negative NegativeHours
}

// EnrichStats counts what Enrich derived.
type EnrichStats struct {
	Rows         int
	NullDate     int // rows whose date is not a time value
	NullHours    int // rows whose checkin or checkout did not parse
	Negative     int // rows whose raw difference was negative
	NegativeFix  int // negative rows rewritten by the overnight policy
	NegativeDrop int // negative rows nulled by the drop policy
}

// Enrich returns a copy of t with year, month and hour_diff appended.
//
// year and month come from the date column and are null when date is not a
// time.Time. hour_diff is floor((checkout - checkin) in hours). Both sides
// may be a time of day ("08:00", "08:00:00"), a timestamp or a time.Time;
// times of day are anchored on the same day. An unparseable or missing side,
// or a time of day paired with a timestamp, yields null.
func Enrich(t *table.Table, opt EnrichOptions) (*table.Table, EnrichStats, error) {
	st := EnrichStats{Rows: t.Len()}
	policy := opt.Negative
	if policy == "" {
		policy = NegativeKeep
	}
	if _, err := ParseNegativeHours(string(policy)); err != nil {
		return nil, st, err
	}
	for _, c := range []string{ColDate, ColCheckin, ColCheckout} {
		if !t.Has(c) {
			return nil, st, fmt.Errorf("enrich: %w %q", ErrMissingColumn, c)
		}
	}

	out := t.Clone()
	out.AddColumn(ColYear, table.KindInt)
	out.AddColumn(ColMonth, table.KindInt)
	out.AddColumn(ColHourDiff, table.KindFloat)

	for _, r := range out.Rows {
		if d, ok := r[ColDate].(time.Time); ok {
			r[ColYear] = int64(d.Year())
			r[ColMonth] = int64(d.Month())
		} else {
			r[ColYear], r[ColMonth] = nil, nil
			st.NullDate++
		}

		diff, clock, ok := workedDuration(r[ColCheckin], r[ColCheckout])
		if !ok {
			r[ColHourDiff] = nil
			st.NullHours++
			continue
		}
		if diff < 0 {
			st.Negative++
			switch {
			case policy == NegativeDrop:
				r[ColHourDiff] = nil
				st.NegativeDrop++
				continue
			case policy == NegativeOvernight && clock:
				diff += 24 * time.Hour
				st.NegativeFix++
			}
		}
		r[ColHourDiff] = math.Floor(diff.Hours())
	}
	return out, st, nil
}

// HoursBetween is the hour_diff rule applied to a single pair of values.
func HoursBetween(checkin, checkout any) (float64, bool) {
	d, _, ok := workedDuration(checkin, checkout)
	if !ok {
		return 0, false
	}
	return math.Floor(d.Hours()), true
}

// workedDuration reports checkout - checkin and whether both sides were
// plain times of day.
func workedDuration(in, out any) (time.Duration, bool, bool) {
	a, aClock, ok := parseInstant(in)
	if !ok {
		return 0, false, false
	}
	b, bClock, ok := parseInstant(out)
	if !ok || aClock != bClock {
		return 0, false, false
	}
	return b.Sub(a), aClock, true
}

func parseInstant(v any) (time.Time, bool, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, false, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false, false
		}
		for _, l := range clockLayouts {
			if ts, err := time.Parse(l, s); err == nil {
				return ts, true, true
			}
		}
		for _, l := range timestampLayouts {
			if ts, err := time.Parse(l, s); err == nil {
				return ts, false, true
			}
		}
	}
	return time.Time{}, false, false
}
