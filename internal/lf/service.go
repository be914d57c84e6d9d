package lf

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// gateCapacity bounds concurrent shared holders of the store gate.
// Exclusive holders acquire the full capacity.
const gateCapacity = 1 << 20

// Default service settings.
const (
	DefaultRetention        = 24 * time.Hour
	DefaultOperationTimeout = 2 * time.Minute
)

// Options tunes an LFService. Zero values take the defaults.
type Options struct {
	DatabaseName     string
	Retention        time.Duration
	OperationTimeout time.Duration
	Location         *time.Location
}

// LFService is the orchestration layer over the item store and the snapshot
// vault. It is the only component that bulk-replaces the store, and it
// serializes snapshot capture and restore against every other store access.
type LFService struct {
	store  ItemStore
	vault  SnapshotVault
	logger Logger
	clock  Clock
	idgen  IDGenerator

	databaseName string
	retention    time.Duration
	opTimeout    time.Duration
	loc          *time.Location

	// gate is held shared by item reads and writes and exclusively by
	// snapshot capture and restore.
	gate *semaphore.Weighted
}

// NewLFService creates a new LFService with the provided dependencies.
func NewLFService(store ItemStore, vault SnapshotVault, logger Logger, clock Clock, idgen IDGenerator, opts Options) *LFService {
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.OperationTimeout <= 0 {
		opts.OperationTimeout = DefaultOperationTimeout
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &LFService{
		store:        store,
		vault:        vault,
		logger:       logger,
		clock:        clock,
		idgen:        idgen,
		databaseName: opts.DatabaseName,
		retention:    opts.Retention,
		opTimeout:    opts.OperationTimeout,
		loc:          opts.Location,
		gate:         semaphore.NewWeighted(gateCapacity),
	}
}

func (s *LFService) now() time.Time {
	return s.clock.Now().In(s.loc)
}

func (s *LFService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// acquireShared takes the store gate for a regular read or write.
func (s *LFService) acquireShared(ctx context.Context) (func(), error) {
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return nil, classify(err, ErrTimeout)
	}
	return func() { s.gate.Release(1) }, nil
}

// acquireExclusive takes the store gate for snapshot capture or restore.
func (s *LFService) acquireExclusive(ctx context.Context) (func(), error) {
	if err := s.gate.Acquire(ctx, gateCapacity); err != nil {
		return nil, classify(err, ErrTimeout)
	}
	return func() { s.gate.Release(gateCapacity) }, nil
}

// Ping verifies that both the store and the vault are reachable.
func (s *LFService) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return classify(err, ErrConfiguration)
	}
	if err := s.vault.ValidateSetup(ctx); err != nil {
		return classify(err, ErrConfiguration)
	}
	return nil
}
