package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultBatchSize is used when Config.BatchSize is 0.
const DefaultBatchSize = 1000

// CopyFn abstracts a backend's bulk insert. It inserts rows aligned to
// columns into table and returns the number of rows reported as inserted.
type CopyFn func(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

// LoadBatches splits rows into batches of batchSize and calls copyFn for each.
// It returns the total reported by copyFn and stops at the first error.
// A progress line is logged per flushed batch.
func LoadBatches(
	ctx context.Context,
	log *zap.Logger,
	table string,
	columns []string,
	rows [][]any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	var (
		total   int64
		batches int
		start   = time.Now()
	)
	for lo := 0; lo < len(rows); lo += batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		hi := min(lo+batchSize, len(rows))
		n, err := copyFn(ctx, table, columns, rows[lo:hi])
		total += n
		if err != nil {
			log.Error("loader: copy failed",
				zap.String("table", table),
				zap.Int("batch", batches+1),
				zap.Int64("total_inserted", total),
				zap.Error(err))
			return total, err
		}
		batches++
		log.Debug("loader: batch flushed",
			zap.String("table", table),
			zap.Int("batch", batches),
			zap.Int64("inserted", n),
			zap.Int64("total_inserted", total),
			zap.Duration("elapsed", time.Since(start)))
	}
	return total, nil
}
