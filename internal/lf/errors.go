package lf

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error kinds. Every error returned by LFService carries exactly one of
// these marks; test with errors.Is or classify with KindOf.
var (
	// ErrConfiguration indicates a storage backend is unreachable or misconfigured.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound indicates the referenced item or snapshot does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidFormat indicates a snapshot file is malformed or incomplete.
	ErrInvalidFormat = errors.New("invalid snapshot format")

	// ErrWriteFailure indicates a durable write did not complete.
	ErrWriteFailure = errors.New("write failure")

	// ErrValidation indicates the caller supplied invalid input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates a uniqueness violation (duplicate lp, snapshot name taken).
	ErrConflict = errors.New("conflict")

	// ErrTimeout indicates the operation exceeded its time bound.
	ErrTimeout = errors.New("operation timed out")
)

var kinds = []error{
	ErrTimeout,
	ErrNotFound,
	ErrInvalidFormat,
	ErrValidation,
	ErrConflict,
	ErrWriteFailure,
	ErrConfiguration,
}

// KindOf returns the kind sentinel carried by err, or nil if err has none.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// RestoreError reports the snapshot record whose insert failed during a restore.
type RestoreError struct {
	Index  int
	ItemID int64
	LP     string
	Err    error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("restoring record %d (id=%d, lp=%q): %v", e.Index, e.ItemID, e.LP, e.Err)
}

func (e *RestoreError) Unwrap() error { return e.Err }

// classify marks err with kind unless it already carries one.
// Context deadline errors always become ErrTimeout.
func classify(err error, kind error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Mark(err, ErrTimeout)
	}
	if KindOf(err) != nil {
		return err
	}
	return errors.Mark(err, kind)
}

func validationf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

func notFoundf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrNotFound)
}
