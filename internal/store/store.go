// Package store provides durable CRUD for customers and collections.
//
// Two interchangeable backends satisfy the Store contract: SQLiteStore
// (relational, preferred) and CSVStore (flat tabular files, the legacy
// layout). Every mutating operation persists before returning, so a read
// immediately following a write observes that write.
package store

import (
	"context"

	"github.com/leaftrack/leaftrack/pkg/types"
)

// Store is the record store contract consumed by the application shell.
type Store interface {
	// ListCustomers returns all customers in insertion order.
	ListCustomers(ctx context.Context) ([]types.Customer, error)

	// ListCollections returns all collections in insertion order, with
	// CustomerName resolved.
	ListCollections(ctx context.Context) ([]types.Collection, error)

	// AddCustomer creates a customer with a fresh id. The name is required;
	// a blank name fails with ErrValidation. Contact and address may be empty.
	AddCustomer(ctx context.Context, name, contact, address string) (*types.Customer, error)

	// AddCollection creates a collection with a fresh id. Fails with
	// ErrNotFound when customerID does not resolve to an existing customer
	// and with ErrValidation when weight is not strictly positive.
	AddCollection(ctx context.Context, date types.Date, customerID int64, weight float64) (*types.Collection, error)

	// UpdateCollection overwrites the date and weight of an existing
	// collection. The customer assignment never changes. Fails with
	// ErrNotFound when id does not exist.
	UpdateCollection(ctx context.Context, id int64, date types.Date, weight float64) (*types.Collection, error)

	// DeleteCollection removes the matching collection if present and
	// reports whether a record was actually removed. A missing id is a
	// normal false result, not an error.
	DeleteCollection(ctx context.Context, id int64) (bool, error)

	// Close releases the underlying store resources.
	Close() error
}
