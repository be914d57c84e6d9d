package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"

	"lostfound/internal/database/migrations"
	"lostfound/internal/lf"
	"lostfound/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const itemsTable = "items"

var itemColumns = []string{
	"id",
	"lp",
	"kategoria",
	"imie_nazwisko",
	"opis",
	"typ_dokumentu",
	"marka",
	"adres",
	"osoba_przyjmujaca",
	"status",
	"data_utworzenia",
	"data_modyfikacji",
}

// SQLiteStore implements lf.ItemStore on SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens the database at path, applies pending migrations and
// returns a ready store. path can be a file path or ":memory:".
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrating database")
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing connection. The caller is responsible
// for configuring and migrating it.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenConnection opens and configures a SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	// SQLite has a single writer, and each connection to :memory: is its own
	// database, so the pool is limited to one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "setting busy timeout")
	}
	return db, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	var item model.Item
	var owner, docType, brand, address sql.NullString
	err := row.Scan(
		&item.ID,
		&item.LP,
		&item.Category,
		&owner,
		&item.Description,
		&docType,
		&brand,
		&address,
		&item.ReceivedBy,
		&item.Status,
		&item.CreatedAt,
		&item.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	item.OwnerName = nullString(owner)
	item.DocumentType = nullString(docType)
	item.Brand = nullString(brand)
	item.Address = nullString(address)
	return &item, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func (s *SQLiteStore) queryItems(ctx context.Context, b sq.SelectBuilder) ([]*model.Item, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying items")
	}
	defer rows.Close()

	items := []*model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning item")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating items")
	}
	return items, nil
}

func (s *SQLiteStore) findItem(ctx context.Context, where sq.Eq) (*model.Item, error) {
	items, err := s.queryItems(ctx, sq.Select(itemColumns...).From(itemsTable).Where(where).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// Item operations

func (s *SQLiteStore) FetchAllOrderedByID(ctx context.Context) ([]*model.Item, error) {
	return s.queryItems(ctx, sq.Select(itemColumns...).From(itemsTable).OrderBy("id ASC"))
}

func (s *SQLiteStore) FindItemByID(ctx context.Context, id int64) (*model.Item, error) {
	item, err := s.findItem(ctx, sq.Eq{"id": id})
	if err != nil {
		return nil, errors.Wrapf(err, "finding item %d", id)
	}
	return item, nil
}

func (s *SQLiteStore) FindItemByLP(ctx context.Context, lp string) (*model.Item, error) {
	item, err := s.findItem(ctx, sq.Eq{"lp": lp})
	if err != nil {
		return nil, errors.Wrapf(err, "finding item %q", lp)
	}
	return item, nil
}

func (s *SQLiteStore) SearchItems(ctx context.Context, filter model.ItemFilter) ([]*model.Item, error) {
	b := sq.Select(itemColumns...).From(itemsTable)
	if filter.LP != "" {
		b = b.Where(sq.Like{"lp": "%" + filter.LP + "%"})
	}
	if filter.Name != "" {
		b = b.Where(sq.Like{"imie_nazwisko": "%" + filter.Name + "%"})
	}
	if filter.Brand != "" {
		b = b.Where(sq.Like{"marka": "%" + filter.Brand + "%"})
	}
	if filter.Category != "" {
		b = b.Where(sq.Eq{"kategoria": filter.Category})
	}
	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": filter.Status})
	}
	return s.queryItems(ctx, b.OrderBy("data_utworzenia DESC", "id DESC"))
}

func (s *SQLiteStore) ListItemsForExport(ctx context.Context) ([]*model.Item, error) {
	return s.queryItems(ctx, sq.Select(itemColumns...).From(itemsTable).OrderBy("kategoria ASC", "lp ASC"))
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func itemValues(item *model.Item) []any {
	return []any{
		item.LP,
		string(item.Category),
		nullable(item.OwnerName),
		item.Description,
		nullable(item.DocumentType),
		nullable(item.Brand),
		nullable(item.Address),
		item.ReceivedBy,
		string(item.Status),
		item.CreatedAt,
		item.ModifiedAt,
	}
}

func (s *SQLiteStore) InsertItem(ctx context.Context, item *model.Item) (*model.Item, error) {
	query, args, err := sq.Insert(itemsTable).
		Columns(itemColumns[1:]...).
		Values(itemValues(item)...).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building insert")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "inserting item %q", item.LP)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "reading inserted id")
	}

	created := *item
	created.ID = id
	return &created, nil
}

func (s *SQLiteStore) UpdateItem(ctx context.Context, item *model.Item) (*model.Item, error) {
	query, args, err := sq.Update(itemsTable).
		SetMap(map[string]any{
			"kategoria":         string(item.Category),
			"imie_nazwisko":     nullable(item.OwnerName),
			"opis":              item.Description,
			"typ_dokumentu":     nullable(item.DocumentType),
			"marka":             nullable(item.Brand),
			"adres":             nullable(item.Address),
			"osoba_przyjmujaca": item.ReceivedBy,
			"status":            string(item.Status),
			"data_modyfikacji":  item.ModifiedAt,
		}).
		Where(sq.Eq{"id": item.ID}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building update")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "updating item %d", item.ID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, errors.Mark(errors.Newf("item %d not found", item.ID), lf.ErrNotFound)
	}
	return s.FindItemByID(ctx, item.ID)
}

func (s *SQLiteStore) DeleteItem(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return false, errors.Wrapf(err, "deleting item %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "reading affected rows")
	}
	return n > 0, nil
}

// ReplaceAll deletes every item and inserts items with their original ids in
// one transaction. Nothing is committed unless every insert succeeds.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, items []*model.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM items"); err != nil {
		return errors.Wrap(err, "clearing items")
	}

	query, _, err := sq.Insert(itemsTable).
		Columns(itemColumns...).
		Values(make([]any, len(itemColumns))...).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building insert")
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return errors.Wrap(err, "preparing insert")
	}
	defer stmt.Close()

	for i, item := range items {
		args := append([]any{item.ID}, itemValues(item)...)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return &lf.RestoreError{Index: i, ItemID: item.ID, LP: item.LP, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing restore")
	}
	return nil
}

// Backup operation tracking

func (s *SQLiteStore) CreateBackupOperation(ctx context.Context, operation, parameters string, startedAt time.Time) (*lf.Operation, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO backup_operations (operation, parameters, started_at, status) VALUES (?, ?, ?, ?)",
		operation, parameters, startedAt, lf.OperationRunning)
	if err != nil {
		return nil, errors.Wrap(err, "creating backup operation")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "reading operation id")
	}
	return &lf.Operation{
		ID:         id,
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  startedAt,
		Status:     lf.OperationRunning,
	}, nil
}

func (s *SQLiteStore) FinishBackupOperation(ctx context.Context, id int64, status string, finishedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE backup_operations SET status = ?, finished_at = ? WHERE id = ?",
		status, finishedAt, id)
	if err != nil {
		return errors.Wrapf(err, "finishing backup operation %d", id)
	}
	return nil
}

func (s *SQLiteStore) ListBackupOperations(ctx context.Context, limit int) ([]*lf.Operation, error) {
	query, args, err := sq.Select("id", "operation", "parameters", "started_at", "finished_at", "status").
		From("backup_operations").
		OrderBy("id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "listing backup operations")
	}
	defer rows.Close()

	ops := []*lf.Operation{}
	for rows.Next() {
		var (
			op       lf.Operation
			finished sql.NullTime
		)
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &op.StartedAt, &finished, &op.Status); err != nil {
			return nil, errors.Wrap(err, "scanning backup operation")
		}
		if finished.Valid {
			op.FinishedAt = &finished.Time
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating backup operations")
	}
	return ops, nil
}

// Path returns the database file path, or "" for a wrapped connection.
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations verifies the schema is up to date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ lf.ItemStore = (*SQLiteStore)(nil)
