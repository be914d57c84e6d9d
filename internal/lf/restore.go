package lf

import (
	"bytes"
	"context"
	"reflect"

	"github.com/cockroachdb/errors"

	"lostfound/internal/model"
)

// RestoreResult summarizes a completed restore.
type RestoreResult struct {
	Filename    string
	RecordCount int
}

// RestoreSnapshot replaces the entire item store with the contents of the
// named snapshot. Items keep the ids, lps and timestamps recorded in the
// snapshot. Either every record is restored or the store keeps its previous
// contents.
func (s *LFService) RestoreSnapshot(ctx context.Context, filename string) (result *RestoreResult, err error) {
	if err := checkSnapshotName(filename, s.loc); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	op := s.beginOperation(ctx, "RestoreSnapshot", filename)
	defer func() { s.finishOperation(op, err) }()

	var buf bytes.Buffer
	if err := s.vault.GetSnapshot(ctx, filename, &buf); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errors.Wrapf(err, "snapshot %s", filename)
		}
		return nil, classify(errors.Wrapf(err, "reading snapshot %s", filename), ErrConfiguration)
	}

	_, items, err := decodeSnapshot(buf.Bytes())
	if err != nil {
		s.logger.Error("snapshot rejected", "filename", filename, "error", err)
		return nil, errors.Wrapf(err, "snapshot %s", filename)
	}

	release, err := s.acquireExclusive(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	previous, err := s.store.FetchAllOrderedByID(ctx)
	if err != nil {
		return nil, classify(errors.Wrap(err, "capturing current items"), ErrConfiguration)
	}

	if err := s.store.ReplaceAll(ctx, items); err != nil {
		s.logger.Error("restore failed", "filename", filename, "error", err)
		s.compensate(previous)
		return nil, classify(errors.Wrapf(err, "restoring snapshot %s", filename), ErrWriteFailure)
	}

	s.logger.Info("snapshot restored", "filename", filename, "records", len(items), "replaced", len(previous))
	return &RestoreResult{Filename: filename, RecordCount: len(items)}, nil
}

// compensate puts the pre-restore items back if a failed replace left the
// store in any other state. Stores with transactional ReplaceAll never need it.
func (s *LFService) compensate(previous []*model.Item) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	current, err := s.store.FetchAllOrderedByID(ctx)
	if err == nil && sameItems(current, previous) {
		return
	}

	s.logger.Warn("store changed by failed restore, reinstating previous items", "count", len(previous))
	if err := s.store.ReplaceAll(ctx, previous); err != nil {
		s.logger.Error("reinstating previous items failed", "error", err)
	}
}

func sameItems(a, b []*model.Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameItem(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameItem(a, b *model.Item) bool {
	return a.ID == b.ID &&
		a.LP == b.LP &&
		a.Category == b.Category &&
		a.Description == b.Description &&
		a.ReceivedBy == b.ReceivedBy &&
		a.Status == b.Status &&
		reflect.DeepEqual(a.OwnerName, b.OwnerName) &&
		reflect.DeepEqual(a.DocumentType, b.DocumentType) &&
		reflect.DeepEqual(a.Brand, b.Brand) &&
		reflect.DeepEqual(a.Address, b.Address) &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.ModifiedAt.Equal(b.ModifiedAt)
}
