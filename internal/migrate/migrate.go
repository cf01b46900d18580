// Package migrate moves legacy flat-file records into the relational store.
//
// The migration is one-way and idempotent: customers are merged by id, and
// each collection row carries a content-derived dedup key, so a re-run
// overwrites customers and inserts no duplicate collections. The source CSV
// files are left in place as a backup.
package migrate

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spaolacci/murmur3"

	"github.com/leaftrack/leaftrack/internal/store"
	"github.com/leaftrack/leaftrack/pkg/types"
)

// Result summarizes one migration run.
type Result struct {
	CustomersMigrated  int
	CollectionsCopied  int
	CollectionsSkipped int
}

// HasLegacyFiles reports whether the legacy flat-file layout exists under dir.
func HasLegacyFiles(dir string) bool {
	for _, name := range []string{store.CustomersFile, store.CollectionsFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// Run migrates the legacy files under csvDir into dst. Missing files are
// skipped; a partially present layout (customers without collections, or the
// reverse) migrates what exists.
func Run(ctx context.Context, csvDir string, dst *store.SQLiteStore) (*Result, error) {
	res := &Result{}

	customers, err := store.LoadCustomersCSV(filepath.Join(csvDir, store.CustomersFile))
	if err != nil {
		return nil, fmt.Errorf("migrate: load legacy customers: %w", err)
	}
	for _, c := range customers {
		if err := dst.UpsertCustomer(ctx, c); err != nil {
			return nil, fmt.Errorf("migrate: customer %d: %w", c.ID, err)
		}
		res.CustomersMigrated++
	}

	collections, err := store.LoadCollectionsCSV(filepath.Join(csvDir, store.CollectionsFile))
	if err != nil {
		return nil, fmt.Errorf("migrate: load legacy collections: %w", err)
	}
	for i, rec := range collections {
		key := dedupKey(i, rec)
		inserted, err := dst.InsertCollectionIfNew(ctx, key, rec.Date, rec.CustomerID, rec.Weight)
		if err != nil {
			return nil, fmt.Errorf("migrate: collection row %d: %w", i+1, err)
		}
		if inserted {
			res.CollectionsCopied++
		} else {
			res.CollectionsSkipped++
		}
	}

	log.Printf("migrate: %d customers merged, %d collections copied, %d already present",
		res.CustomersMigrated, res.CollectionsCopied, res.CollectionsSkipped)
	return res, nil
}

// dedupKey derives a stable key from a row's file position and content.
// Including the ordinal keeps genuine duplicate rows (same customer, day and
// weight) distinct within one source file while making re-runs no-ops.
func dedupKey(ordinal int, rec types.Collection) string {
	payload := fmt.Sprintf("%d|%s|%d|%g", ordinal, rec.Date, rec.CustomerID, rec.Weight)
	h1, h2 := murmur3.Sum128([]byte(payload))
	return fmt.Sprintf("%016x%016x", h1, h2)
}
