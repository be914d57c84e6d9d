package lf

import (
	"context"
	"time"

	"lostfound/internal/model"
)

// ItemStore provides persistence for found items and the backup operation log.
// Lookups return (nil, nil) when the row does not exist.
type ItemStore interface {
	// Item operations

	// FetchAllOrderedByID returns every item in ascending id order.
	FetchAllOrderedByID(ctx context.Context) ([]*model.Item, error)

	// ReplaceAll discards every item and inserts items with their ids, lps and
	// timestamps exactly as given. It must be atomic: on error the previous
	// contents remain. A failing insert is reported as a *RestoreError.
	ReplaceAll(ctx context.Context, items []*model.Item) error

	// InsertItem inserts item, assigning its id.
	InsertItem(ctx context.Context, item *model.Item) (*model.Item, error)

	// UpdateItem overwrites the mutable columns of the item with item.ID.
	UpdateItem(ctx context.Context, item *model.Item) (*model.Item, error)

	// DeleteItem removes the item and reports whether a row existed.
	DeleteItem(ctx context.Context, id int64) (bool, error)

	// FindItemByID returns the item with the given id.
	FindItemByID(ctx context.Context, id int64) (*model.Item, error)

	// FindItemByLP returns the item with the given catalog number.
	FindItemByLP(ctx context.Context, lp string) (*model.Item, error)

	// SearchItems returns items matching filter, newest first.
	SearchItems(ctx context.Context, filter model.ItemFilter) ([]*model.Item, error)

	// ListItemsForExport returns all items ordered by category, then lp.
	ListItemsForExport(ctx context.Context) ([]*model.Item, error)

	// Backup operation tracking

	// CreateBackupOperation records the start of a backup operation.
	CreateBackupOperation(ctx context.Context, operation, parameters string, startedAt time.Time) (*Operation, error)

	// FinishBackupOperation records the outcome of a backup operation.
	FinishBackupOperation(ctx context.Context, id int64, status string, finishedAt time.Time) error

	// ListBackupOperations returns up to limit operations, newest first.
	ListBackupOperations(ctx context.Context, limit int) ([]*Operation, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close closes the underlying connection.
	Close() error
}

// Operation is a recorded backup operation.
type Operation struct {
	ID         int64      `json:"id"`
	Operation  string     `json:"operation"`
	Parameters string     `json:"parameters"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
}

// Operation statuses.
const (
	OperationRunning = "running"
	OperationSuccess = "success"
	OperationError   = "error"
)
