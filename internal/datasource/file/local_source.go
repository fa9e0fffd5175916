// Package file implements the local filesystem source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Local opens one file from the local disk.
type Local struct{ path string }

// NewLocal returns a Local for path. A "file://" prefix is stripped.
func NewLocal(path string) *Local {
	return &Local{path: strings.TrimPrefix(path, "file://")}
}

// Path returns the resolved filesystem path.
func (l *Local) Path() string { return l.path }

// Open opens the file for reading. A canceled ctx short-circuits before the
// filesystem is touched. Errors keep the os error chain, so
// errors.Is(err, os.ErrNotExist) works.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	// The whole file is read front to back right away.
	adviseSequential(f)
	return f, nil
}
