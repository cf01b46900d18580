package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCSVStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewCSVStore(dir)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	c, err := s.AddCustomer(ctx, "Anil", "077", "Estate")
	if err != nil {
		t.Fatalf("failed to add customer: %v", err)
	}
	if _, err := s.AddCollection(ctx, mustDate(t, "2024-01-15"), c.ID, 7.5); err != nil {
		t.Fatalf("failed to add collection: %v", err)
	}

	reopened, err := NewCSVStore(dir)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}

	customers, err := reopened.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("failed to list customers: %v", err)
	}
	if len(customers) != 1 || customers[0].Name != "Anil" || customers[0].ID != c.ID {
		t.Errorf("customers mismatch after reopen: %+v", customers)
	}

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

func TestCSVStore_FileLayout(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewCSVStore(dir)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	c, err := s.AddCustomer(ctx, "Anil", "077", "Estate")
	if err != nil {
		t.Fatalf("failed to add customer: %v", err)
	}
	if _, err := s.AddCollection(ctx, mustDate(t, "2024-01-15"), c.ID, 7.5); err != nil {
		t.Fatalf("failed to add collection: %v", err)
	}

	customersRaw, err := os.ReadFile(filepath.Join(dir, CustomersFile))
	if err != nil {
		t.Fatalf("failed to read customers file: %v", err)
	}
	customerLines := strings.Split(strings.TrimSpace(string(customersRaw)), "\n")
	if customerLines[0] != "customer_id,name,contact,address" {
		t.Errorf("customers header mismatch: %q", customerLines[0])
	}
	if customerLines[1] != "1,Anil,077,Estate" {
		t.Errorf("customers row mismatch: %q", customerLines[1])
	}

	collectionsRaw, err := os.ReadFile(filepath.Join(dir, CollectionsFile))
	if err != nil {
		t.Fatalf("failed to read collections file: %v", err)
	}
	collectionLines := strings.Split(strings.TrimSpace(string(collectionsRaw)), "\n")
	if collectionLines[0] != "date,customer_id,customer_name,weight" {
		t.Errorf("collections header mismatch: %q", collectionLines[0])
	}
	if collectionLines[1] != "2024-01-15,1,Anil,7.5" {
		t.Errorf("collections row mismatch: %q", collectionLines[1])
	}
}

func TestCSVStore_NoStrayTempFiles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewCSVStore(dir)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	c, err := s.AddCustomer(ctx, "Anil", "", "")
	if err != nil {
		t.Fatalf("failed to add customer: %v", err)
	}
	for i := 0; i < 10; i++ {
		if _, err := s.AddCollection(ctx, mustDate(t, "2024-01-15"), c.ID, 1.0); err != nil {
			t.Fatalf("add %d failed: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read data dir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != CustomersFile && e.Name() != CollectionsFile {
			t.Errorf("unexpected file left behind: %s", e.Name())
		}
	}
}

func TestLoadCollectionsCSV_AssignsPositionalIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CollectionsFile)
	content := "date,customer_id,customer_name,weight\n" +
		"2024-01-01,1,Anil,4\n" +
		"2024-01-03,2,Bandula,2\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	collections, err := LoadCollectionsCSV(path)
	if err != nil {
		t.Fatalf("failed to load collections: %v", err)
	}
	if len(collections) != 2 {
		t.Fatalf("row count mismatch: got %d, want 2", len(collections))
	}
	if collections[0].ID != 1 || collections[1].ID != 2 {
		t.Errorf("positional ids mismatch: %d, %d", collections[0].ID, collections[1].ID)
	}
	if collections[1].CustomerName != "Bandula" || collections[1].Weight != 2 {
		t.Errorf("row mismatch: %+v", collections[1])
	}
}

func TestLoadCustomersCSV_MissingFile(t *testing.T) {
	customers, err := LoadCustomersCSV(filepath.Join(t.TempDir(), "absent.csv"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if len(customers) != 0 {
		t.Errorf("expected no records, got %d", len(customers))
	}
}
