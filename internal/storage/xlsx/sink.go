// Package xlsx implements a sink that writes each target to a sheet of one
// Excel workbook. Row 1 of every sheet holds the column names.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"salaryetl/internal/storage"
	"salaryetl/internal/table"
)

func init() {
	storage.Register("xlsx", func(_ context.Context, cfg storage.Config) (storage.Sink, error) {
		return New(cfg.DSN, cfg.Log())
	})
}

// Sink writes tables into the workbook at Path.
type Sink struct {
	Path string
	log  *zap.Logger
	mu   sync.Mutex
}

// New returns a Sink for the workbook at path. The workbook is created on
// first write.
func New(path string, log *zap.Logger) (*Sink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("xlsx sink: workbook path (dsn) is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{Path: path, log: log}, nil
}

// Write implements storage.Sink. The target names the sheet.
func (s *Sink) Write(ctx context.Context, mode storage.WriteMode, target string, t *table.Table) (int64, error) {
	if strings.TrimSpace(target) == "" {
		return 0, errors.New("xlsx sink: target sheet must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return 0, err
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(target)
	if err != nil {
		return 0, fmt.Errorf("xlsx sink: %w", err)
	}
	var rows [][]string
	if idx >= 0 {
		if rows, err = f.GetRows(target); err != nil {
			return 0, fmt.Errorf("xlsx sink: read %s: %w", target, err)
		}
	}
	existing := max(len(rows)-1, 0)

	switch mode {
	case storage.WriteAppend, "":
	case storage.WriteTruncate:
		for r := len(rows); r >= 2; r-- {
			if err := f.RemoveRow(target, r); err != nil {
				return 0, fmt.Errorf("xlsx sink: truncate: %w", err)
			}
		}
		existing = 0
	case storage.WriteEmpty:
		if existing > 0 {
			return 0, fmt.Errorf("%w: sheet %s holds %d rows", storage.ErrTargetNotEmpty, target, existing)
		}
	default:
		return 0, fmt.Errorf("xlsx sink: unsupported write mode %q", mode)
	}

	if idx < 0 {
		if _, err := f.NewSheet(target); err != nil {
			return 0, fmt.Errorf("xlsx sink: %w", err)
		}
	}
	cols := t.Columns()
	if len(rows) == 0 {
		header := make([]any, len(cols))
		for i, c := range cols {
			header[i] = c
		}
		if err := f.SetSheetRow(target, "A1", &header); err != nil {
			return 0, fmt.Errorf("xlsx sink: header: %w", err)
		}
	}
	next := existing + 2
	for i, vals := range t.Values(cols) {
		cell, err := excelize.CoordinatesToCellName(1, next+i)
		if err != nil {
			return 0, fmt.Errorf("xlsx sink: %w", err)
		}
		if err := f.SetSheetRow(target, cell, &vals); err != nil {
			return 0, fmt.Errorf("xlsx sink: row %d: %w", i, err)
		}
	}
	// A fresh workbook starts with an unused default sheet.
	if def := "Sheet1"; target != def {
		if i, _ := f.GetSheetIndex(def); i >= 0 {
			if rows, _ := f.GetRows(def); len(rows) == 0 {
				_ = f.DeleteSheet(def)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return 0, fmt.Errorf("xlsx sink: %w", err)
	}
	if err := f.SaveAs(s.Path); err != nil {
		return 0, fmt.Errorf("xlsx sink: save: %w", err)
	}
	s.log.Info("load: sheet written", zap.String("path", s.Path), zap.String("sheet", target), zap.Int("rows", t.Len()))
	return int64(t.Len()), nil
}

// Close implements storage.Sink.
func (s *Sink) Close() error { return nil }

func (s *Sink) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("xlsx sink: open %s: %w", s.Path, err)
	}
	return f, nil
}
