package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"lostfound/internal/lf"
	"lostfound/internal/model"
)

// ErrInjected is returned by FaultyStore when a fault is armed.
var ErrInjected = errors.New("injected fault")

// FaultyStore wraps an lf.ItemStore and fails selected calls on demand.
type FaultyStore struct {
	lf.ItemStore

	mu sync.Mutex

	// FailFetch makes FetchAllOrderedByID fail.
	FailFetch bool

	// FailReplace makes ReplaceAll fail without touching the store.
	FailReplace bool

	// PartialReplace makes ReplaceAll clear the store and insert only the
	// first PartialReplaceAfter items before failing, imitating a store
	// without transactions. It applies to the next ReplaceAll call only.
	PartialReplace      bool
	PartialReplaceAfter int

	// FailHistory makes backup operation tracking fail.
	FailHistory bool

	// FailPing makes Ping fail.
	FailPing bool
}

// NewFaultyStore wraps store.
func NewFaultyStore(store lf.ItemStore) *FaultyStore {
	return &FaultyStore{ItemStore: store}
}

func (s *FaultyStore) FetchAllOrderedByID(ctx context.Context) ([]*model.Item, error) {
	s.mu.Lock()
	fail := s.FailFetch
	s.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return s.ItemStore.FetchAllOrderedByID(ctx)
}

func (s *FaultyStore) ReplaceAll(ctx context.Context, items []*model.Item) error {
	s.mu.Lock()
	fail, partial, after := s.FailReplace, s.PartialReplace, s.PartialReplaceAfter
	s.PartialReplace = false
	s.mu.Unlock()

	switch {
	case fail:
		return ErrInjected
	case partial:
		if after > len(items) {
			after = len(items)
		}
		if err := s.ItemStore.ReplaceAll(ctx, items[:after]); err != nil {
			return err
		}
		return &lf.RestoreError{Index: after, Err: ErrInjected}
	}
	return s.ItemStore.ReplaceAll(ctx, items)
}

func (s *FaultyStore) CreateBackupOperation(ctx context.Context, operation, parameters string, startedAt time.Time) (*lf.Operation, error) {
	s.mu.Lock()
	fail := s.FailHistory
	s.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return s.ItemStore.CreateBackupOperation(ctx, operation, parameters, startedAt)
}

func (s *FaultyStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	fail := s.FailPing
	s.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return s.ItemStore.Ping(ctx)
}
