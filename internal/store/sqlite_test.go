package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leaftrack/leaftrack/pkg/types"
)

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "leaftrack.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	c, err := s.AddCustomer(ctx, "Anil", "", "")
	if err != nil {
		t.Fatalf("failed to add customer: %v", err)
	}
	if _, err := s.AddCollection(ctx, mustDate(t, "2024-01-15"), c.ID, 7.5); err != nil {
		t.Fatalf("failed to add collection: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	collections, err := reopened.ListCollections(ctx)
	if err != nil {
		t.Fatalf("failed to list collections: %v", err)
	}
	if len(collections) != 1 {
		t.Fatalf("collection count mismatch after reopen: got %d, want 1", len(collections))
	}
	if collections[0].CustomerName != "Anil" || collections[0].Weight != 7.5 {
		t.Errorf("record mismatch after reopen: %+v", collections[0])
	}
}

func TestSQLiteStore_UpsertCustomerMergesByID(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "leaftrack.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	c := types.Customer{ID: 7, Name: "Anil", Contact: "077", Address: "Estate"}
	if err := s.UpsertCustomer(ctx, c); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	c.Contact = "071"
	if err := s.UpsertCustomer(ctx, c); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	customers, err := s.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("failed to list customers: %v", err)
	}
	if len(customers) != 1 {
		t.Fatalf("upsert duplicated customer: got %d records", len(customers))
	}
	if customers[0].ID != 7 || customers[0].Contact != "071" {
		t.Errorf("upsert did not overwrite: %+v", customers[0])
	}
}

func TestSQLiteStore_InsertCollectionIfNew(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "leaftrack.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	c, err := s.AddCustomer(ctx, "Anil", "", "")
	if err != nil {
		t.Fatalf("failed to add customer: %v", err)
	}

	date := mustDate(t, "2024-02-01")
	inserted, err := s.InsertCollectionIfNew(ctx, "key-1", date, c.ID, 3.0)
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if !inserted {
		t.Errorf("expected first insert to report true")
	}

	inserted, err = s.InsertCollectionIfNew(ctx, "key-1", date, c.ID, 3.0)
	if err != nil {
		t.Fatalf("repeat insert failed: %v", err)
	}
	if inserted {
		t.Errorf("expected repeated key to report false")
	}

	// Distinct key with identical content still inserts: genuine duplicate
	// deliveries are legitimate records.
	inserted, err = s.InsertCollectionIfNew(ctx, "key-2", date, c.ID, 3.0)
	if err != nil {
		t.Fatalf("distinct-key insert failed: %v", err)
	}
	if !inserted {
		t.Errorf("expected distinct key to insert")
	}

	collections, err := s.ListCollections(ctx)
	if err != nil {
		t.Fatalf("failed to list collections: %v", err)
	}
	if len(collections) != 2 {
		t.Errorf("collection count mismatch: got %d, want 2", len(collections))
	}
}
