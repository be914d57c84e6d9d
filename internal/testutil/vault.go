package testutil

import (
	"context"
	"sync"

	"lostfound/internal/lf"
	"lostfound/internal/vault"
)

// NewTestVault creates a new in-memory vault whose modification times come from clock.
func NewTestVault(clock lf.Clock) *vault.MemoryVault {
	return vault.NewMemoryVault("test-vault", clock)
}

// FaultyVault wraps an lf.SnapshotVault and fails deletes of selected snapshots.
type FaultyVault struct {
	lf.SnapshotVault

	mu         sync.Mutex
	failDelete map[string]bool
}

// NewFaultyVault wraps v.
func NewFaultyVault(v lf.SnapshotVault) *FaultyVault {
	return &FaultyVault{SnapshotVault: v, failDelete: make(map[string]bool)}
}

// FailDelete makes DeleteSnapshot return ErrInjected for each of names.
func (v *FaultyVault) FailDelete(names ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, name := range names {
		v.failDelete[name] = true
	}
}

func (v *FaultyVault) DeleteSnapshot(ctx context.Context, name string) error {
	v.mu.Lock()
	fail := v.failDelete[name]
	v.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return v.SnapshotVault.DeleteSnapshot(ctx, name)
}
