package lf

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// SnapshotMetadata describes a snapshot as seen by callers.
type SnapshotMetadata struct {
	Filename   string
	Kind       SnapshotKind
	CreatedAt  time.Time // encoded in the filename
	ModifiedAt time.Time // reported by the vault
	Size       int64

	// RecordCount is only populated by CreateSnapshot.
	RecordCount int

	// Created is false when an automatic snapshot for the current minute
	// already existed and CreateSnapshot was a no-op.
	Created bool
}

// CreateSnapshot captures the entire item store into a new snapshot.
//
// Automatic snapshots are named by minute: if one already exists for the
// current minute, the call succeeds without writing anything. A successful
// automatic snapshot triggers pruning of expired automatic snapshots.
func (s *LFService) CreateSnapshot(ctx context.Context, kind SnapshotKind) (meta *SnapshotMetadata, err error) {
	if !kind.Valid() {
		return nil, validationf("unknown snapshot kind %q", kind)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	op := s.beginOperation(ctx, "CreateSnapshot", string(kind))
	defer func() { s.finishOperation(op, err) }()

	meta, err = s.createSnapshot(ctx, kind)
	if err != nil {
		s.logger.Error("snapshot failed", "kind", kind, "error", err)
		return nil, err
	}

	if !meta.Created {
		s.logger.Debug("automatic snapshot already exists", "filename", meta.Filename)
		return meta, nil
	}

	s.logger.Info("snapshot created", "filename", meta.Filename, "records", meta.RecordCount, "size", meta.Size)

	if kind == KindAutomatic {
		s.pruneExpired(ctx)
	}
	return meta, nil
}

func (s *LFService) createSnapshot(ctx context.Context, kind SnapshotKind) (*SnapshotMetadata, error) {
	release, err := s.acquireExclusive(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.now()
	name := SnapshotName(kind, now)

	if kind == KindAutomatic {
		info, err := s.vault.StatSnapshot(ctx, name)
		switch {
		case err == nil:
			return existingMetadata(kind, now, info), nil
		case !errors.Is(err, ErrNotFound):
			return nil, classify(errors.Wrap(err, "checking for existing snapshot"), ErrConfiguration)
		}
	}

	items, err := s.store.FetchAllOrderedByID(ctx)
	if err != nil {
		return nil, classify(errors.Wrap(err, "reading item store"), ErrConfiguration)
	}

	data, err := encodeSnapshot(kind, now, s.databaseName, items)
	if err != nil {
		return nil, errors.Mark(err, ErrWriteFailure)
	}

	if err := s.vault.PutSnapshot(ctx, name, bytes.NewReader(data), int64(len(data))); err != nil {
		if errors.Is(err, ErrConflict) && kind == KindAutomatic {
			// Lost a race with another writer for this minute.
			info, statErr := s.vault.StatSnapshot(ctx, name)
			if statErr == nil {
				return existingMetadata(kind, now, info), nil
			}
		}
		return nil, classify(errors.Wrapf(err, "writing snapshot %s", name), ErrWriteFailure)
	}

	return &SnapshotMetadata{
		Filename:    name,
		Kind:        kind,
		CreatedAt:   now.Truncate(time.Second),
		ModifiedAt:  now,
		Size:        int64(len(data)),
		RecordCount: len(items),
		Created:     true,
	}, nil
}

func existingMetadata(kind SnapshotKind, now time.Time, info *SnapshotInfo) *SnapshotMetadata {
	return &SnapshotMetadata{
		Filename:   info.Name,
		Kind:       kind,
		CreatedAt:  now.Truncate(time.Minute),
		ModifiedAt: info.ModifiedAt,
		Size:       info.Size,
		Created:    false,
	}
}

// ListSnapshots returns all manual and automatic snapshots, newest first.
// Files in the vault that do not follow the snapshot naming scheme are skipped.
func (s *LFService) ListSnapshots(ctx context.Context) ([]*SnapshotMetadata, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	infos, err := s.vault.ListSnapshots(ctx)
	if err != nil {
		return nil, classify(errors.Wrap(err, "listing snapshots"), ErrConfiguration)
	}

	result := make([]*SnapshotMetadata, 0, len(infos))
	for _, info := range infos {
		kind, createdAt, err := ParseSnapshotName(info.Name, s.loc)
		if err != nil {
			continue
		}
		result = append(result, &SnapshotMetadata{
			Filename:   info.Name,
			Kind:       kind,
			CreatedAt:  createdAt,
			ModifiedAt: info.ModifiedAt,
			Size:       info.Size,
		})
	}

	slices.SortFunc(result, func(a, b *SnapshotMetadata) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.Filename, a.Filename)
	})

	return result, nil
}

// DeleteSnapshot removes the named snapshot. Deleting is irreversible.
func (s *LFService) DeleteSnapshot(ctx context.Context, filename string) (err error) {
	if err := checkSnapshotName(filename, s.loc); err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	op := s.beginOperation(ctx, "DeleteSnapshot", filename)
	defer func() { s.finishOperation(op, err) }()

	if err := s.vault.DeleteSnapshot(ctx, filename); err != nil {
		return classify(errors.Wrapf(err, "deleting snapshot %s", filename), ErrWriteFailure)
	}

	s.logger.Info("snapshot deleted", "filename", filename)
	return nil
}

// PruneAutomaticSnapshots deletes automatic snapshots older than the retention
// window. Manual snapshots are never touched. Individual delete failures are
// logged and skipped; the returned count covers successful deletions only.
func (s *LFService) PruneAutomaticSnapshots(ctx context.Context) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	op := s.beginOperation(ctx, "PruneSnapshots", s.retention.String())
	n := s.pruneExpired(ctx)
	s.finishOperation(op, nil)
	return n, nil
}

func (s *LFService) pruneExpired(ctx context.Context) int {
	infos, err := s.vault.ListSnapshots(ctx)
	if err != nil {
		s.logger.Warn("listing snapshots for pruning failed", "error", err)
		return 0
	}

	cutoff := s.now().Add(-s.retention)
	deleted := 0
	for _, info := range infos {
		kind, createdAt, err := ParseSnapshotName(info.Name, s.loc)
		if err != nil || kind != KindAutomatic {
			continue
		}
		if !createdAt.Before(cutoff) {
			continue
		}
		if err := s.vault.DeleteSnapshot(ctx, info.Name); err != nil {
			s.logger.Warn("pruning snapshot failed", "filename", info.Name, "error", err)
			continue
		}
		deleted++
		s.logger.Info("expired snapshot pruned", "filename", info.Name)
	}
	return deleted
}
