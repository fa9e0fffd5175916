// Package csvfile implements a sink that writes each target to
// <dir>/<target>.csv. Appending to an existing file adds rows below its
// header; a new or truncated file gets the header first.
package csvfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"salaryetl/internal/storage"
	"salaryetl/internal/table"
)

func init() {
	storage.Register("csv", func(_ context.Context, cfg storage.Config) (storage.Sink, error) {
		return New(cfg.DSN, cfg.Log())
	})
}

// Sink writes tables as CSV files under Dir.
type Sink struct {
	Dir string
	log *zap.Logger
}

// New returns a Sink rooted at dir ("." when empty), creating it if needed.
func New(dir string, log *zap.Logger) (*Sink, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("csv sink: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{Dir: dir, log: log}, nil
}

// Path returns the file a target is written to.
func (s *Sink) Path(target string) string {
	return filepath.Join(s.Dir, target+".csv")
}

// Write implements storage.Sink.
func (s *Sink) Write(ctx context.Context, mode storage.WriteMode, target string, t *table.Table) (int64, error) {
	if strings.TrimSpace(target) == "" || strings.ContainsAny(target, `/\`) {
		return 0, fmt.Errorf("csv sink: invalid target %q", target)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	path := s.Path(target)

	existing, err := countRows(path)
	if err != nil {
		return 0, err
	}

	flags := os.O_CREATE | os.O_WRONLY
	header := existing < 0
	switch mode {
	case storage.WriteAppend, "":
		flags |= os.O_APPEND
	case storage.WriteTruncate:
		flags |= os.O_TRUNC
		header = true
	case storage.WriteEmpty:
		if existing > 0 {
			return 0, fmt.Errorf("%w: %s holds %d rows", storage.ErrTargetNotEmpty, path, existing)
		}
		flags |= os.O_TRUNC
		header = true
	default:
		return 0, fmt.Errorf("csv sink: unsupported write mode %q", mode)
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return 0, fmt.Errorf("csv sink: %w", err)
	}
	defer f.Close()

	w := gocsv.DefaultCSVWriter(f)
	cols := t.Columns()
	if header {
		if err := w.Write(cols); err != nil {
			return 0, fmt.Errorf("csv sink: header: %w", err)
		}
	}
	for _, vals := range t.Values(cols) {
		rec := make([]string, len(vals))
		for i, v := range vals {
			rec[i] = formatCell(v)
		}
		if err := w.Write(rec); err != nil {
			return 0, fmt.Errorf("csv sink: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("csv sink: flush: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("csv sink: close: %w", err)
	}

	s.log.Info("load: csv written", zap.String("path", path), zap.Int("rows", t.Len()))
	return int64(t.Len()), nil
}

// Close implements storage.Sink.
func (s *Sink) Close() error { return nil }

// countRows returns the number of data rows in path, or -1 when the file is
// missing or empty (no header yet).
func countRows(path string) (int64, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return -1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("csv sink: %w", err)
	}
	defer f.Close()

	r := gocsv.LazyCSVReader(f)
	var n int64 = -1
	for {
		_, err := r.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, fmt.Errorf("csv sink: read %s: %w", path, err)
		}
		n++
	}
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}
