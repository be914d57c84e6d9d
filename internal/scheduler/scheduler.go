// Package scheduler runs periodic automatic snapshots inside the server process.
package scheduler

import (
	"context"
	"time"

	"lostfound/internal/lf"
)

// Snapshotter is the part of LFService the scheduler drives.
type Snapshotter interface {
	CreateSnapshot(ctx context.Context, kind lf.SnapshotKind) (*lf.SnapshotMetadata, error)
}

// AutoBackup takes an automatic snapshot at start and then every Interval.
type AutoBackup struct {
	Snapshots Snapshotter
	Interval  time.Duration
	Logger    lf.Logger
}

// Run blocks until ctx is cancelled. Snapshot failures are logged and the
// loop carries on.
func (a *AutoBackup) Run(ctx context.Context) {
	a.Logger.Info("automatic backups enabled", "interval", a.Interval.String())
	a.tick(ctx)

	ticker := time.NewTicker(a.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.Logger.Info("automatic backups stopped")
			return
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

func (a *AutoBackup) tick(ctx context.Context) {
	meta, err := a.Snapshots.CreateSnapshot(ctx, lf.KindAutomatic)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		a.Logger.Error("automatic backup failed", "error", err)
		return
	}
	if meta.Created {
		a.Logger.Debug("automatic backup written", "filename", meta.Filename, "records", meta.RecordCount)
	}
}
