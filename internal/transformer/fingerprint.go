package transformer

import (
	"math"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"

	"salaryetl/internal/table"
)

// Fingerprint returns an xxh3 digest over the column names, kinds and every
// cell of t in row order. Equal tables produce equal fingerprints.
func Fingerprint(t *table.Table) uint64 {
	h := xxh3.New()
	buf := make([]byte, 0, 64)
	cols := t.Columns()
	for _, c := range cols {
		buf = append(buf[:0], c...)
		buf = append(buf, 0x1f)
		buf = append(buf, t.Kind(c)...)
		buf = append(buf, 0x1e)
		_, _ = h.Write(buf)
	}
	for _, r := range t.Rows {
		buf = buf[:0]
		for _, c := range cols {
			buf = appendCell(buf, r[c])
			buf = append(buf, 0x1f)
		}
		buf = append(buf, 0x1e)
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}

func appendCell(b []byte, v any) []byte {
	switch x := v.(type) {
	case nil:
		return append(b, 'N')
	case int64:
		return strconv.AppendInt(append(b, 'i'), x, 10)
	case float64:
		return strconv.AppendUint(append(b, 'f'), math.Float64bits(x), 16)
	case string:
		return append(append(b, 's'), x...)
	case time.Time:
		return x.UTC().AppendFormat(append(b, 't'), time.RFC3339Nano)
	}
	return append(b, '?')
}
