package transformer

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"salaryetl/internal/table"
)

// OutputColumns is the column order of the destination table.
var OutputColumns = []string{
	ColYear, ColMonth, ColBranchID, ColTotalEmployee, ColTotalSalary, ColSalaryPerHour,
}

// OutputKinds is the final kind of every output column.
var OutputKinds = map[string]table.Kind{
	ColYear:          table.KindInt,
	ColMonth:         table.KindInt,
	ColBranchID:      table.KindInt,
	ColTotalEmployee: table.KindInt,
	ColTotalSalary:   table.KindInt,
	ColSalaryPerHour: table.KindFloat,
}

// FinalizeOptions configures Finalize.
type FinalizeOptions struct {
	// Places is the rounding precision; 2 when zero.
	Places int32
	// Caster re-casts the output columns.
	Caster Caster
}

// Finalize projects t onto OutputColumns, rounds float cells half-to-even
// and re-casts each column to its OutputKinds kind. Casts are best effort;
// their results are returned for logging.
func Finalize(t *table.Table, opt FinalizeOptions) (*table.Table, []CastResult, error) {
	places := opt.Places
	if places == 0 {
		places = 2
	}
	out, err := t.Select(OutputColumns...)
	if err != nil {
		return nil, nil, fmt.Errorf("finalize: %w", err)
	}
	for _, r := range out.Rows {
		for _, c := range OutputColumns {
			if f, ok := r[c].(float64); ok {
				r[c] = RoundHalfEven(f, places)
			}
		}
	}

	casts := make([]CastResult, 0, len(OutputColumns))
	for _, c := range OutputColumns {
		casts = append(casts, opt.Caster.Cast(out, c, OutputKinds[c]))
	}
	return out, casts, nil
}

// RoundHalfEven rounds f to places decimals with banker's rounding.
func RoundHalfEven(f float64, places int32) float64 {
	v, _ := decimal.NewFromFloat(f).RoundBank(places).Float64()
	return v
}

// Preview renders the first n rows of t as an aligned text block. Nulls print
// as <nil>.
func Preview(t *table.Table, n int) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	cols := t.Columns()
	fmt.Fprintln(w, strings.Join(cols, "\t")+"\t")
	for i, r := range t.Rows {
		if i >= n {
			break
		}
		cells := make([]string, len(cols))
		for j, c := range cols {
			if r[c] == nil {
				cells[j] = "<nil>"
				continue
			}
			cells[j] = toString(r[c])
		}
		fmt.Fprintln(w, strings.Join(cells, "\t")+"\t")
	}
	_ = w.Flush()
	return buf.String()
}
