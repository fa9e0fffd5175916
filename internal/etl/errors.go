package etl

import (
	"errors"

	"salaryetl/internal/config"
	"salaryetl/internal/transformer"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrSourceUnavailable: an input could not be opened, fetched or parsed.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrCoercionSkipped classifies cast warnings. Run never returns it.
	ErrCoercionSkipped = transformer.ErrCoercionSkipped

	// ErrTransformFailed: the inputs cannot be transformed, e.g. the join
	// key is missing.
	ErrTransformFailed = errors.New("transform failed")

	// ErrZeroHours: a group has zero total hours under the "error" policy.
	ErrZeroHours = transformer.ErrZeroHours

	// ErrSinkWriteFailed: the destination rejected the write.
	ErrSinkWriteFailed = errors.New("sink write failed")

	// ErrInvalidConfig: the configuration is unusable. Raised before any I/O.
	ErrInvalidConfig = config.ErrInvalid
)

// Error is a classified failure of one run operation.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if errors.Is(e.Err, e.Kind) {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the error's kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

func classify(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	var ee *Error
	if errors.As(err, &ee) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
