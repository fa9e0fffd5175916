// Package csv reads delimited text into an in-memory table.Table.
//
// The reader is deliberately whole-file: the salary job joins and aggregates
// both inputs, so every row has to be resident anyway. Column types are
// inferred after the read, the same way a dataframe loader would: a column is
// int when every non-empty cell parses as a base-10 integer, float when every
// non-empty cell parses as a float, and string otherwise. Empty cells are null
// and never influence inference.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"salaryetl/internal/table"
)

// ErrEmptyInput is returned when the stream has no header row.
var ErrEmptyInput = errors.New("csv: empty input")

// Options configures ReadTable. The zero value reads comma-separated UTF-8
// with a header row and trims cell whitespace.
type Options struct {
	// Comma is the field delimiter; 0 means ','.
	Comma rune

	// KeepSpace disables trimming of leading/trailing whitespace in cells.
	KeepSpace bool

	// LazyQuotes relaxes quote handling (csv.Reader.LazyQuotes).
	LazyQuotes bool

	// Encoding names the source charset (see decoderFor). Empty means UTF-8.
	Encoding string

	// HeaderMap maps a normalized source header onto a canonical name before
	// the table is built.
	HeaderMap map[string]string
}

// ReadTable parses the whole stream into a typed table.
//
// Rows that fail to parse (e.g. unbalanced quotes) abort the read: a
// half-read source would silently skew the aggregates.
func ReadTable(ctx context.Context, r io.Reader, opt Options) (*table.Table, error) {
	dec, err := decoderFor(opt.Encoding)
	if err != nil {
		return nil, err
	}
	if dec != nil {
		r = dec.Reader(r)
	}

	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1

	hdr, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	hdr = StripHeaderBOM(hdr)

	names := make([]string, len(hdr))
	seen := make(map[string]int, len(hdr))
	for i, h := range hdr {
		n := normalizeHeader(h)
		if mapped, ok := opt.HeaderMap[n]; ok {
			n = mapped
		}
		if n == "" {
			n = fmt.Sprintf("col_%d", i+1)
		}
		if c := seen[n]; c > 0 {
			seen[n] = c + 1
			n = fmt.Sprintf("%s_%d", n, c+1)
		} else {
			seen[n] = 1
		}
		names[i] = n
	}

	raw := make([][]string, 0, 1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		cells := make([]string, len(names))
		for i := range names {
			if i >= len(rec) {
				continue
			}
			v := rec[i]
			if !opt.KeepSpace {
				v = strings.TrimSpace(v)
			}
			cells[i] = v
		}
		raw = append(raw, cells)
	}

	return build(names, raw), nil
}

// build infers a kind per column and converts the raw cells accordingly.
func build(names []string, raw [][]string) *table.Table {
	t := table.New()
	kinds := make([]table.Kind, len(names))
	for i, n := range names {
		kinds[i] = inferKind(raw, i)
		t.AddColumn(n, kinds[i])
	}

	t.Rows = make([]table.Row, len(raw))
	for ri, cells := range raw {
		row := make(table.Row, len(names))
		for i, n := range names {
			row[n] = convert(cells[i], kinds[i])
		}
		t.Rows[ri] = row
	}
	return t
}

func inferKind(raw [][]string, col int) table.Kind {
	isInt, isFloat, nonNull := true, true, false
	for _, cells := range raw {
		s := cells[col]
		if s == "" {
			continue
		}
		nonNull = true
		if isInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				isInt = false
			}
		}
		if !isInt && isFloat {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				isFloat = false
			}
		}
		if !isInt && !isFloat {
			return table.KindString
		}
	}
	switch {
	case !nonNull:
		// All-null column: nothing to infer from, keep it textual.
		return table.KindString
	case isInt:
		return table.KindInt
	default:
		return table.KindFloat
	}
}

func convert(s string, k table.Kind) any {
	if s == "" {
		return nil
	}
	switch k {
	case table.KindInt:
		n, _ := strconv.ParseInt(s, 10, 64)
		return n
	case table.KindFloat:
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	return s
}
