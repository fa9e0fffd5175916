// Package storage defines the warehouse sink contract and the backend
// registry.
//
// A Sink receives the finalized summary table exactly once per run and writes
// it to a named target under a WriteMode. Concrete backends (bigquery,
// postgres, mssql, mysql, sqlite, csv, xlsx) live in subpackages and register
// a Factory from init; importing salaryetl/internal/storage/all enables all
// of them. Callers build a sink with New and stay backend-agnostic:
//
//	sink, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: "out.db"})
//	if err != nil { ... }
//	defer sink.Close()
//	n, err := sink.Write(ctx, storage.WriteAppend, "fact_detail_salary_temp", tbl)
//
// Sinks never retry. Append is a pure append: writing the same table twice
// stores its rows twice.
package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"salaryetl/internal/table"
)

var (
	// ErrUnknownKind is returned by New for an unregistered backend kind.
	ErrUnknownKind = errors.New("unknown storage kind")

	// ErrTargetNotEmpty is returned under WriteEmpty when the target already
	// holds rows.
	ErrTargetNotEmpty = errors.New("target is not empty")
)

// WriteMode selects how a write treats rows already in the target.
type WriteMode string

const (
	WriteAppend   WriteMode = "append"
	WriteTruncate WriteMode = "truncate"
	WriteEmpty    WriteMode = "empty"
)

// ParseWriteMode accepts the mode names and their BigQuery spellings
// (WRITE_APPEND, WRITE_TRUNCATE, WRITE_EMPTY). "" means WriteAppend.
func ParseWriteMode(s string) (WriteMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "append", "write_append":
		return WriteAppend, nil
	case "truncate", "write_truncate":
		return WriteTruncate, nil
	case "empty", "write_empty":
		return WriteEmpty, nil
	}
	return "", fmt.Errorf("storage: unknown write mode %q", s)
}

// Sink writes a table to a target.
type Sink interface {
	// Write stores every row of t in target and returns the number of rows
	// the backend reported as written.
	Write(ctx context.Context, mode WriteMode, target string, t *table.Table) (int64, error)
	Close() error
}

// Config is the backend-agnostic sink configuration. Each backend reads the
// fields it needs.
type Config struct {
	Kind string

	// DSN is the connection string for SQL backends, the output directory
	// for csv and the workbook path for xlsx.
	DSN string

	// Project, Dataset, Location and CredentialsFile configure bigquery.
	Project         string
	Dataset         string
	Location        string
	CredentialsFile string

	// AutoCreateTable creates the target when it does not exist.
	AutoCreateTable bool

	// BatchSize bounds rows per bulk call for SQL backends; 0 means default.
	BatchSize int

	Logger *zap.Logger
}

// Log returns the configured logger or a no-op one.
func (c Config) Log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Factory builds a Sink from Config.
type Factory func(ctx context.Context, cfg Config) (Sink, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the Factory for kind. Backends call it
// from init.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[strings.ToLower(kind)] = f
}

// Kinds lists registered backend kinds in sorted order.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// New builds the sink registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Sink, error) {
	regMu.RLock()
	f, ok := factories[strings.ToLower(cfg.Kind)]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: %w %q (registered: %s)", ErrUnknownKind, cfg.Kind, strings.Join(Kinds(), ", "))
	}
	s, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", cfg.Kind, err)
	}
	return s, nil
}
