package transformer

import (
	"fmt"

	"salaryetl/internal/table"
)

// Suffixes applied to non-key columns present on both sides of a join.
const (
	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

// JoinStats summarizes a LeftJoin.
type JoinStats struct {
	LeftRows      int
	RightRows     int
	OutputRows    int
	Unmatched     int // left rows with no right match
	RightNullKeys int // right rows whose key is null; they can never match
}

// LeftJoin attaches every right row whose key equals a left row's key.
//
// Every left row is preserved: a left row with k matches produces k output
// rows (in right-table order), a left row with none produces one row with
// null right columns. Keys compare by exact equality of the cell values, so
// an int64 key never matches a string key. Null keys never match.
func LeftJoin(left, right *table.Table, key string) (*table.Table, JoinStats, error) {
	st := JoinStats{LeftRows: left.Len(), RightRows: right.Len()}
	if !left.Has(key) {
		return nil, st, fmt.Errorf("left join: left %w %q", ErrMissingColumn, key)
	}
	if !right.Has(key) {
		return nil, st, fmt.Errorf("left join: right %w %q", ErrMissingColumn, key)
	}

	out := table.New()
	leftName := make(map[string]string)
	rightName := make(map[string]string)
	for _, c := range left.Columns() {
		n := c
		if c != key && right.Has(c) {
			n = c + LeftSuffix
		}
		leftName[c] = n
		out.AddColumn(n, left.Kind(c))
	}
	for _, c := range right.Columns() {
		if c == key {
			continue
		}
		n := c
		if left.Has(c) {
			n = c + RightSuffix
		}
		rightName[c] = n
		out.AddColumn(n, right.Kind(c))
	}

	index := make(map[any][]int, right.Len())
	for i, r := range right.Rows {
		k := r[key]
		if k == nil {
			st.RightNullKeys++
			continue
		}
		index[k] = append(index[k], i)
	}

	out.Rows = make([]table.Row, 0, left.Len())
	for _, lr := range left.Rows {
		var matches []int
		if k := lr[key]; k != nil {
			matches = index[k]
		}
		if len(matches) == 0 {
			st.Unmatched++
			row := make(table.Row, len(leftName)+len(rightName))
			for c, n := range leftName {
				row[n] = lr[c]
			}
			for _, n := range rightName {
				row[n] = nil
			}
			out.Rows = append(out.Rows, row)
			continue
		}
		for _, ri := range matches {
			rr := right.Rows[ri]
			row := make(table.Row, len(leftName)+len(rightName))
			for c, n := range leftName {
				row[n] = lr[c]
			}
			for c, n := range rightName {
				row[n] = rr[c]
			}
			out.Rows = append(out.Rows, row)
		}
	}
	st.OutputRows = out.Len()
	return out, st, nil
}
