package lf

import (
	"context"
	"time"
)

// DefaultHistoryLimit is used when GetHistory is called with a non-positive limit.
const DefaultHistoryLimit = 50

// GetHistory returns the most recent backup operations, ordered newest first.
func (s *LFService) GetHistory(ctx context.Context, limit int) ([]*Operation, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	ops, err := s.store.ListBackupOperations(ctx, limit)
	if err != nil {
		return nil, classify(err, ErrConfiguration)
	}
	return ops, nil
}

// trackedOperation is an in-flight backup operation. Tracking is best-effort:
// a store that cannot record history never blocks the operation itself.
type trackedOperation struct {
	id    int64
	ref   string
	name  string
	start time.Time
}

func (s *LFService) beginOperation(ctx context.Context, name, parameters string) *trackedOperation {
	op := &trackedOperation{ref: s.idgen.New(), name: name, start: s.now()}
	s.logger.Debug("operation started", "operation", name, "ref", op.ref, "parameters", parameters)

	rec, err := s.store.CreateBackupOperation(ctx, name, parameters, op.start)
	if err != nil {
		s.logger.Warn("recording operation start failed", "operation", name, "ref", op.ref, "error", err)
		return op
	}
	op.id = rec.ID
	return op
}

func (s *LFService) finishOperation(op *trackedOperation, opErr error) {
	status := OperationSuccess
	if opErr != nil {
		status = OperationError
	}
	finished := s.now()
	s.logger.Debug("operation finished", "operation", op.name, "ref", op.ref, "status", status, "duration", finished.Sub(op.start))

	if op.id == 0 {
		return
	}
	// The operation context may already be done; history is written regardless.
	if err := s.store.FinishBackupOperation(context.Background(), op.id, status, finished); err != nil {
		s.logger.Warn("recording operation finish failed", "operation", op.name, "id", op.id, "error", err)
	}
}
