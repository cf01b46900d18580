package migrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leaftrack/leaftrack/internal/store"
)

func writeLegacyFixture(t *testing.T, dir string) {
	t.Helper()

	customers := "customer_id,name,contact,address\n" +
		"1,Anil,077,Hill Estate\n" +
		"2,Bandula,,\n"
	if err := os.WriteFile(filepath.Join(dir, store.CustomersFile), []byte(customers), 0644); err != nil {
		t.Fatalf("failed to write customers fixture: %v", err)
	}

	// Rows 2 and 3 are a genuine duplicate delivery: same customer, day,
	// and weight. Both must survive migration.
	collections := "date,customer_id,customer_name,weight\n" +
		"2024-01-01,1,Anil,4\n" +
		"2024-01-02,2,Bandula,2.5\n" +
		"2024-01-02,2,Bandula,2.5\n"
	if err := os.WriteFile(filepath.Join(dir, store.CollectionsFile), []byte(collections), 0644); err != nil {
		t.Fatalf("failed to write collections fixture: %v", err)
	}
}

func TestRun_MigratesLegacyFiles(t *testing.T) {
	csvDir := t.TempDir()
	writeLegacyFixture(t, csvDir)

	dst, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "leaftrack.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	defer dst.Close()

	ctx := context.Background()
	res, err := Run(ctx, csvDir, dst)
	if err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	if res.CustomersMigrated != 2 {
		t.Errorf("customers migrated: got %d, want 2", res.CustomersMigrated)
	}
	if res.CollectionsCopied != 3 || res.CollectionsSkipped != 0 {
		t.Errorf("collections copied/skipped: got %d/%d, want 3/0", res.CollectionsCopied, res.CollectionsSkipped)
	}

	customers, err := dst.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("failed to list customers: %v", err)
	}
	if len(customers) != 2 || customers[0].Name != "Anil" || customers[1].Name != "Bandula" {
		t.Errorf("customers mismatch: %+v", customers)
	}

	collections, err := dst.ListCollections(ctx)
	if err != nil {
		t.Fatalf("failed to list collections: %v", err)
	}
	if len(collections) != 3 {
		t.Fatalf("collection count mismatch: got %d, want 3", len(collections))
	}
	if collections[0].CustomerName != "Anil" || collections[0].Weight != 4 {
		t.Errorf("first collection mismatch: %+v", collections[0])
	}
}

func TestRun_Idempotent(t *testing.T) {
	csvDir := t.TempDir()
	writeLegacyFixture(t, csvDir)

	dst, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "leaftrack.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	defer dst.Close()

	ctx := context.Background()
	if _, err := Run(ctx, csvDir, dst); err != nil {
		t.Fatalf("first migration failed: %v", err)
	}

	res, err := Run(ctx, csvDir, dst)
	if err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
	if res.CollectionsCopied != 0 {
		t.Errorf("re-run copied %d collections, want 0", res.CollectionsCopied)
	}
	if res.CollectionsSkipped != 3 {
		t.Errorf("re-run skipped %d collections, want 3", res.CollectionsSkipped)
	}

	customers, err := dst.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("failed to list customers: %v", err)
	}
	if len(customers) != 2 {
		t.Errorf("re-run duplicated customers: got %d, want 2", len(customers))
	}

	collections, err := dst.ListCollections(ctx)
	if err != nil {
		t.Fatalf("failed to list collections: %v", err)
	}
	if len(collections) != 3 {
		t.Errorf("re-run duplicated collections: got %d, want 3", len(collections))
	}
}

func TestRun_MissingFiles(t *testing.T) {
	dst, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "leaftrack.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	defer dst.Close()

	res, err := Run(context.Background(), t.TempDir(), dst)
	if err != nil {
		t.Fatalf("migration of empty dir failed: %v", err)
	}
	if res.CustomersMigrated != 0 || res.CollectionsCopied != 0 {
		t.Errorf("expected nothing migrated, got %+v", res)
	}
}

func TestHasLegacyFiles(t *testing.T) {
	dir := t.TempDir()
	if HasLegacyFiles(dir) {
		t.Errorf("empty dir must report no legacy files")
	}
	if err := os.WriteFile(filepath.Join(dir, store.CustomersFile), []byte("customer_id,name,contact,address\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if !HasLegacyFiles(dir) {
		t.Errorf("dir with customers file must report legacy files")
	}
}
