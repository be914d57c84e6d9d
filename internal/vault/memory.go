package vault

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"lostfound/internal/lf"
)

type memorySnapshot struct {
	data    []byte
	modTime time.Time
}

// MemoryVault keeps snapshots in memory. It is safe for concurrent use and
// intended for tests and throwaway instances.
type MemoryVault struct {
	name      string
	clock     lf.Clock
	mu        sync.RWMutex
	snapshots map[string]memorySnapshot
}

// NewMemoryVault creates a new in-memory vault. Modification times come from clock.
func NewMemoryVault(name string, clock lf.Clock) *MemoryVault {
	if clock == nil {
		clock = lf.RealClock{}
	}
	return &MemoryVault{
		name:      name,
		clock:     clock,
		snapshots: make(map[string]memorySnapshot),
	}
}

// Name returns the configured vault name.
func (m *MemoryVault) Name() string {
	return m.name
}

// PutSnapshot stores the snapshot unless the name is already taken.
func (m *MemoryVault) PutSnapshot(ctx context.Context, name string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "reading snapshot data")
	}
	if int64(len(data)) != size {
		return errors.Newf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.snapshots[name]; ok {
		return errors.Mark(errors.Newf("snapshot %s already exists", name), lf.ErrConflict)
	}
	m.snapshots[name] = memorySnapshot{data: data, modTime: m.clock.Now()}
	return nil
}

// GetSnapshot writes the named snapshot to w.
func (m *MemoryVault) GetSnapshot(ctx context.Context, name string, w io.Writer) error {
	m.mu.RLock()
	snap, ok := m.snapshots[name]
	m.mu.RUnlock()

	if !ok {
		return errors.Mark(errors.Newf("snapshot not found: %s", name), lf.ErrNotFound)
	}
	if _, err := io.Copy(w, bytes.NewReader(snap.data)); err != nil {
		return errors.Wrap(err, "writing snapshot")
	}
	return nil
}

// StatSnapshot returns metadata for the named snapshot.
func (m *MemoryVault) StatSnapshot(ctx context.Context, name string) (*lf.SnapshotInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[name]
	if !ok {
		return nil, errors.Mark(errors.Newf("snapshot not found: %s", name), lf.ErrNotFound)
	}
	return &lf.SnapshotInfo{Name: name, Size: int64(len(snap.data)), ModifiedAt: snap.modTime}, nil
}

// ListSnapshots returns all stored snapshots.
func (m *MemoryVault) ListSnapshots(ctx context.Context) ([]*lf.SnapshotInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*lf.SnapshotInfo, 0, len(m.snapshots))
	for name, snap := range m.snapshots {
		result = append(result, &lf.SnapshotInfo{Name: name, Size: int64(len(snap.data)), ModifiedAt: snap.modTime})
	}
	return result, nil
}

// DeleteSnapshot removes the named snapshot.
func (m *MemoryVault) DeleteSnapshot(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.snapshots[name]; !ok {
		return errors.Mark(errors.Newf("snapshot not found: %s", name), lf.ErrNotFound)
	}
	delete(m.snapshots, name)
	return nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup(ctx context.Context) error {
	return nil
}

var _ lf.SnapshotVault = (*MemoryVault)(nil)
