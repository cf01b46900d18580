package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/leaftrack/leaftrack/pkg/types"
)

// SQLiteStore implements Store on a SQLite database.
//
// Referential integrity between collections and customers is enforced by the
// database. Each mutating call runs in its own transaction with a single
// commit, so a failed write never leaves a half-written record.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (or creates) the database at dbPath and initializes
// the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", types.ErrStorage, err)
	}
	// Single writer; the app is single-process and synchronous.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS customers (
		customer_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		contact     TEXT,
		address     TEXT
	);

	CREATE TABLE IF NOT EXISTS collections (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		date        TEXT NOT NULL,
		customer_id INTEGER NOT NULL REFERENCES customers(customer_id),
		weight      REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_collections_customer ON collections(customer_id);
	CREATE INDEX IF NOT EXISTS idx_collections_date ON collections(date);

	CREATE TABLE IF NOT EXISTS migration_keys (
		dedup_key     TEXT PRIMARY KEY,
		collection_id INTEGER NOT NULL
	);`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: initialize schema: %v", types.ErrStorage, err)
	}
	return nil
}

// ListCustomers returns all customers ordered by id.
func (s *SQLiteStore) ListCustomers(ctx context.Context) ([]types.Customer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT customer_id, name, COALESCE(contact, ''), COALESCE(address, '')
		 FROM customers ORDER BY customer_id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list customers: %v", types.ErrStorage, err)
	}
	defer rows.Close()

	customers := make([]types.Customer, 0)
	for rows.Next() {
		var c types.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Contact, &c.Address); err != nil {
			return nil, fmt.Errorf("%w: scan customer: %v", types.ErrStorage, err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list customers: %v", types.ErrStorage, err)
	}
	return customers, nil
}

// ListCollections returns all collections ordered by id, with the customer
// name resolved through the relation.
func (s *SQLiteStore) ListCollections(ctx context.Context) ([]types.Collection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.date, c.customer_id, cu.name, c.weight
		 FROM collections c
		 JOIN customers cu ON cu.customer_id = c.customer_id
		 ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list collections: %v", types.ErrStorage, err)
	}
	defer rows.Close()

	collections := make([]types.Collection, 0)
	for rows.Next() {
		var (
			rec     types.Collection
			dateStr string
		)
		if err := rows.Scan(&rec.ID, &dateStr, &rec.CustomerID, &rec.CustomerName, &rec.Weight); err != nil {
			return nil, fmt.Errorf("%w: scan collection: %v", types.ErrStorage, err)
		}
		rec.Date, err = types.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("%w: corrupt date %q for collection %d", types.ErrStorage, dateStr, rec.ID)
		}
		collections = append(collections, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list collections: %v", types.ErrStorage, err)
	}
	return collections, nil
}

// AddCustomer creates a customer and returns it with its assigned id.
func (s *SQLiteStore) AddCustomer(ctx context.Context, name, contact, address string) (*types.Customer, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: customer name is required", types.ErrValidation)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (name, contact, address) VALUES (?, ?, ?)`,
		name, contact, address)
	if err != nil {
		return nil, fmt.Errorf("%w: insert customer: %v", types.ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: customer id: %v", types.ErrStorage, err)
	}

	return &types.Customer{ID: id, Name: name, Contact: contact, Address: address}, nil
}

// AddCollection creates a collection and returns it with its assigned id and
// resolved customer name.
func (s *SQLiteStore) AddCollection(ctx context.Context, date types.Date, customerID int64, weight float64) (*types.Collection, error) {
	if weight <= 0 {
		return nil, fmt.Errorf("%w: weight must be greater than zero, got %g", types.ErrValidation, weight)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %v", types.ErrStorage, err)
	}
	defer tx.Rollback()

	var customerName string
	err = tx.QueryRowContext(ctx,
		`SELECT name FROM customers WHERE customer_id = ?`, customerID).Scan(&customerName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: customer %d", types.ErrNotFound, customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: resolve customer %d: %v", types.ErrStorage, customerID, err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO collections (date, customer_id, weight) VALUES (?, ?, ?)`,
		date.String(), customerID, weight)
	if err != nil {
		return nil, fmt.Errorf("%w: insert collection: %v", types.ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: collection id: %v", types.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", types.ErrStorage, err)
	}

	return &types.Collection{
		ID:           id,
		Date:         date,
		CustomerID:   customerID,
		CustomerName: customerName,
		Weight:       weight,
	}, nil
}

// UpdateCollection overwrites the date and weight of the collection with the
// given id and returns the updated record.
func (s *SQLiteStore) UpdateCollection(ctx context.Context, id int64, date types.Date, weight float64) (*types.Collection, error) {
	if weight <= 0 {
		return nil, fmt.Errorf("%w: weight must be greater than zero, got %g", types.ErrValidation, weight)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %v", types.ErrStorage, err)
	}
	defer tx.Rollback()

	var (
		customerID   int64
		customerName string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT c.customer_id, cu.name
		 FROM collections c JOIN customers cu ON cu.customer_id = c.customer_id
		 WHERE c.id = ?`, id).Scan(&customerID, &customerName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: collection %d", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load collection %d: %v", types.ErrStorage, id, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE collections SET date = ?, weight = ? WHERE id = ?`,
		date.String(), weight, id); err != nil {
		return nil, fmt.Errorf("%w: update collection %d: %v", types.ErrStorage, id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", types.ErrStorage, err)
	}

	return &types.Collection{
		ID:           id,
		Date:         date,
		CustomerID:   customerID,
		CustomerName: customerName,
		Weight:       weight,
	}, nil
}

// DeleteCollection removes the collection with the given id and reports
// whether a record was removed.
func (s *SQLiteStore) DeleteCollection(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("%w: delete collection %d: %v", types.ErrStorage, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: delete collection %d: %v", types.ErrStorage, id, err)
	}
	return n > 0, nil
}

// UpsertCustomer inserts or overwrites a customer with an explicit id.
// Used by the legacy-file migration, where ids come from the source rows;
// a re-run overwrites rather than duplicates.
func (s *SQLiteStore) UpsertCustomer(ctx context.Context, c types.Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: customer name is required", types.ErrValidation)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (customer_id, name, contact, address) VALUES (?, ?, ?, ?)
		 ON CONFLICT(customer_id) DO UPDATE SET name=excluded.name,
		 contact=excluded.contact, address=excluded.address`,
		c.ID, c.Name, c.Contact, c.Address)
	if err != nil {
		return fmt.Errorf("%w: upsert customer %d: %v", types.ErrStorage, c.ID, err)
	}
	return nil
}

// InsertCollectionIfNew inserts a collection unless its dedup key has been
// seen before. Returns whether a row was inserted. Used by the legacy-file
// migration to make re-runs idempotent: the key and the insert commit in the
// same transaction, so a key never exists without its row.
func (s *SQLiteStore) InsertCollectionIfNew(ctx context.Context, dedupKey string, date types.Date, customerID int64, weight float64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%w: begin transaction: %v", types.ErrStorage, err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRowContext(ctx,
		`SELECT collection_id FROM migration_keys WHERE dedup_key = ?`, dedupKey).Scan(&existing)
	if err == nil {
		return false, nil // already migrated
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%w: check dedup key: %v", types.ErrStorage, err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO collections (date, customer_id, weight) VALUES (?, ?, ?)`,
		date.String(), customerID, weight)
	if err != nil {
		return false, fmt.Errorf("%w: insert migrated collection: %v", types.ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("%w: migrated collection id: %v", types.ErrStorage, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO migration_keys (dedup_key, collection_id) VALUES (?, ?)`,
		dedupKey, id); err != nil {
		return false, fmt.Errorf("%w: record dedup key: %v", types.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: commit: %v", types.ErrStorage, err)
	}
	return true, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
