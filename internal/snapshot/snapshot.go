// Package snapshot exports the record store to the canonical flat-file
// layout and ships the compressed result to object storage. This preserves
// the legacy CSV files' role as an off-box durable copy now that the
// relational backend is primary.
package snapshot

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/snappy"
	"github.com/google/uuid"

	"github.com/leaftrack/leaftrack/internal/storage"
	"github.com/leaftrack/leaftrack/internal/store"
	"github.com/leaftrack/leaftrack/pkg/types"
)

const objectPrefix = "snapshots/"

// Writer creates and lists snapshots of a record store.
type Writer struct {
	store   store.Store
	objects storage.ObjectStorage
	workDir string
}

// NewWriter returns a Writer that stages files under workDir before upload.
func NewWriter(s store.Store, objects storage.ObjectStorage, workDir string) *Writer {
	return &Writer{store: s, objects: objects, workDir: workDir}
}

// Create exports all records, compresses both files, and uploads them under
// snapshots/<id>/. Returns the snapshot id.
func (w *Writer) Create(ctx context.Context) (string, error) {
	customers, err := w.store.ListCustomers(ctx)
	if err != nil {
		return "", fmt.Errorf("snapshot: read customers: %w", err)
	}
	collections, err := w.store.ListCollections(ctx)
	if err != nil {
		return "", fmt.Errorf("snapshot: read collections: %w", err)
	}

	id := uuid.NewString()
	stageDir := filepath.Join(w.workDir, id)
	if err := os.MkdirAll(stageDir, 0755); err != nil {
		return "", fmt.Errorf("snapshot: create staging dir: %w", err)
	}
	defer os.RemoveAll(stageDir)

	files := []struct {
		name string
		rows [][]string
	}{
		{store.CustomersFile, customerRows(customers)},
		{store.CollectionsFile, collectionRows(collections)},
	}

	for _, f := range files {
		localPath := filepath.Join(stageDir, f.name+".sz")
		if err := writeCompressedCSV(localPath, f.rows); err != nil {
			return "", fmt.Errorf("snapshot: stage %s: %w", f.name, err)
		}
		objectPath := objectPrefix + id + "/" + f.name + ".sz"
		if err := w.objects.Put(ctx, localPath, objectPath); err != nil {
			return "", fmt.Errorf("snapshot: upload %s: %w", f.name, err)
		}
	}

	log.Printf("snapshot: %s created (%d customers, %d collections)", id, len(customers), len(collections))
	return id, nil
}

// List returns the ids of all stored snapshots, in lexical order.
func (w *Writer) List(ctx context.Context) ([]string, error) {
	objects, err := w.objects.List(ctx, objectPrefix)
	if err != nil {
		return nil, fmt.Errorf("snapshot: list objects: %w", err)
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, obj := range objects {
		rest := strings.TrimPrefix(obj, objectPrefix)
		id, _, ok := strings.Cut(rest, "/")
		if !ok || id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func customerRows(customers []types.Customer) [][]string {
	rows := [][]string{{"customer_id", "name", "contact", "address"}}
	for _, c := range customers {
		rows = append(rows, []string{
			strconv.FormatInt(c.ID, 10), c.Name, c.Contact, c.Address,
		})
	}
	return rows
}

func collectionRows(collections []types.Collection) [][]string {
	rows := [][]string{{"date", "customer_id", "customer_name", "weight"}}
	for _, rec := range collections {
		rows = append(rows, []string{
			rec.Date.String(),
			strconv.FormatInt(rec.CustomerID, 10),
			rec.CustomerName,
			strconv.FormatFloat(rec.Weight, 'f', -1, 64),
		})
	}
	return rows
}

func writeCompressedCSV(path string, rows [][]string) error {
	var sb strings.Builder
	cw := csv.NewWriter(&sb)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	compressed := snappy.Encode(nil, []byte(sb.String()))
	return os.WriteFile(path, compressed, 0644)
}
