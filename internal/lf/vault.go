package lf

import (
	"context"
	"io"
	"time"
)

// SnapshotInfo describes a stored snapshot file.
type SnapshotInfo struct {
	Name       string
	Size       int64
	ModifiedAt time.Time
}

// SnapshotVault stores snapshot documents by name.
// Reads and writes stream through io.Reader/io.Writer.
//
// Implementations wrap ErrNotFound when a name does not exist and ErrConflict
// when PutSnapshot targets a name that is already taken.
type SnapshotVault interface {
	// PutSnapshot publishes a snapshot atomically and exclusively: readers never
	// observe a partial file, and an existing snapshot is never overwritten.
	// size is the number of bytes that will be read from r.
	PutSnapshot(ctx context.Context, name string, r io.Reader, size int64) error

	// GetSnapshot writes the snapshot contents to w.
	GetSnapshot(ctx context.Context, name string, w io.Writer) error

	// StatSnapshot returns metadata for a single snapshot.
	StatSnapshot(ctx context.Context, name string) (*SnapshotInfo, error)

	// ListSnapshots returns every stored snapshot in no particular order.
	ListSnapshots(ctx context.Context) ([]*SnapshotInfo, error)

	// DeleteSnapshot removes a snapshot.
	DeleteSnapshot(ctx context.Context, name string) error

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup(ctx context.Context) error
}
