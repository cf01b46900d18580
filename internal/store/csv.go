package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/leaftrack/leaftrack/pkg/types"
)

// File names for the flat-file backend. The collections file keeps the
// legacy column layout (no id column, denormalized customer_name) so the
// relational migration can consume it unchanged.
const (
	CustomersFile   = "customers.csv"
	CollectionsFile = "collections.csv"
)

var (
	customerHeader   = []string{"customer_id", "name", "contact", "address"}
	collectionHeader = []string{"date", "customer_id", "customer_name", "weight"}
)

// CSVStore implements Store on two character-separated tabular files, one per
// entity. Files are loaded once at open; every mutation rewrites the affected
// file atomically (temp file + rename).
//
// Collection ids are synthesized from row position at load time, so they are
// stable within a process lifetime but not across restarts once rows have
// been deleted. Concurrent multi-process writers are unsupported: the last
// writer wins and lost updates are not detected.
type CSVStore struct {
	dir string

	customers   []types.Customer
	collections []types.Collection

	nextCustomerID   int64
	nextCollectionID int64
}

// NewCSVStore opens a flat-file store rooted at dir, creating the directory
// and loading any existing files.
func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create data directory: %v", types.ErrStorage, err)
	}

	s := &CSVStore{dir: dir, nextCustomerID: 1, nextCollectionID: 1}

	customers, err := LoadCustomersCSV(filepath.Join(dir, CustomersFile))
	if err != nil {
		return nil, err
	}
	s.customers = customers
	for _, c := range customers {
		if c.ID >= s.nextCustomerID {
			s.nextCustomerID = c.ID + 1
		}
	}

	collections, err := LoadCollectionsCSV(filepath.Join(dir, CollectionsFile))
	if err != nil {
		return nil, err
	}
	s.collections = collections
	for _, rec := range collections {
		if rec.ID >= s.nextCollectionID {
			s.nextCollectionID = rec.ID + 1
		}
	}

	return s, nil
}

// ListCustomers returns all customers in file order.
func (s *CSVStore) ListCustomers(ctx context.Context) ([]types.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]types.Customer, len(s.customers))
	copy(out, s.customers)
	return out, nil
}

// ListCollections returns all collections in file order.
func (s *CSVStore) ListCollections(ctx context.Context) ([]types.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]types.Collection, len(s.collections))
	copy(out, s.collections)
	return out, nil
}

// AddCustomer creates a customer and rewrites the customers file.
func (s *CSVStore) AddCustomer(ctx context.Context, name, contact, address string) (*types.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: customer name is required", types.ErrValidation)
	}

	c := types.Customer{ID: s.nextCustomerID, Name: name, Contact: contact, Address: address}
	s.customers = append(s.customers, c)
	if err := s.rewriteCustomers(); err != nil {
		s.customers = s.customers[:len(s.customers)-1]
		return nil, err
	}
	s.nextCustomerID++
	return &c, nil
}

// AddCollection creates a collection and rewrites the collections file.
// The customer must exist; the legacy implementation skipped this check,
// which was a correctness gap, not a feature.
func (s *CSVStore) AddCollection(ctx context.Context, date types.Date, customerID int64, weight float64) (*types.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if weight <= 0 {
		return nil, fmt.Errorf("%w: weight must be greater than zero, got %g", types.ErrValidation, weight)
	}

	customer := s.customerByID(customerID)
	if customer == nil {
		return nil, fmt.Errorf("%w: customer %d", types.ErrNotFound, customerID)
	}

	rec := types.Collection{
		ID:           s.nextCollectionID,
		Date:         date,
		CustomerID:   customerID,
		CustomerName: customer.Name,
		Weight:       weight,
	}
	s.collections = append(s.collections, rec)
	if err := s.rewriteCollections(); err != nil {
		s.collections = s.collections[:len(s.collections)-1]
		return nil, err
	}
	s.nextCollectionID++
	return &rec, nil
}

// UpdateCollection overwrites the date and weight of an existing collection
// and rewrites the collections file.
func (s *CSVStore) UpdateCollection(ctx context.Context, id int64, date types.Date, weight float64) (*types.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if weight <= 0 {
		return nil, fmt.Errorf("%w: weight must be greater than zero, got %g", types.ErrValidation, weight)
	}

	for i := range s.collections {
		if s.collections[i].ID != id {
			continue
		}
		prev := s.collections[i]
		s.collections[i].Date = date
		s.collections[i].Weight = weight
		if err := s.rewriteCollections(); err != nil {
			s.collections[i] = prev
			return nil, err
		}
		rec := s.collections[i]
		return &rec, nil
	}
	return nil, fmt.Errorf("%w: collection %d", types.ErrNotFound, id)
}

// DeleteCollection removes the matching collection, rewrites the collections
// file, and reports whether a record was removed.
func (s *CSVStore) DeleteCollection(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	for i := range s.collections {
		if s.collections[i].ID != id {
			continue
		}
		removed := s.collections[i]
		s.collections = append(s.collections[:i], s.collections[i+1:]...)
		if err := s.rewriteCollections(); err != nil {
			s.collections = append(s.collections[:i], append([]types.Collection{removed}, s.collections[i:]...)...)
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// Close is a no-op for the flat-file backend; files are rewritten eagerly.
func (s *CSVStore) Close() error {
	return nil
}

func (s *CSVStore) customerByID(id int64) *types.Customer {
	for i := range s.customers {
		if s.customers[i].ID == id {
			return &s.customers[i]
		}
	}
	return nil
}

func (s *CSVStore) rewriteCustomers() error {
	rows := make([][]string, 0, len(s.customers))
	for _, c := range s.customers {
		rows = append(rows, []string{
			strconv.FormatInt(c.ID, 10), c.Name, c.Contact, c.Address,
		})
	}
	return writeCSVAtomic(filepath.Join(s.dir, CustomersFile), customerHeader, rows)
}

func (s *CSVStore) rewriteCollections() error {
	rows := make([][]string, 0, len(s.collections))
	for _, rec := range s.collections {
		rows = append(rows, []string{
			rec.Date.String(),
			strconv.FormatInt(rec.CustomerID, 10),
			rec.CustomerName,
			strconv.FormatFloat(rec.Weight, 'f', -1, 64),
		})
	}
	return writeCSVAtomic(filepath.Join(s.dir, CollectionsFile), collectionHeader, rows)
}

// writeCSVAtomic writes header+rows to a temp file in the same directory and
// renames it over path, so readers never observe a partial file.
func writeCSVAtomic(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", types.ErrStorage, err)
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	writeErr := w.Write(header)
	if writeErr == nil {
		writeErr = w.WriteAll(rows)
	}
	if writeErr == nil {
		w.Flush()
		writeErr = w.Error()
	}
	if writeErr == nil {
		writeErr = tmp.Sync()
	}
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write %s: %v", types.ErrStorage, filepath.Base(path), writeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: replace %s: %v", types.ErrStorage, filepath.Base(path), err)
	}
	return nil
}

// LoadCustomersCSV parses a customers file into typed records. A missing file
// yields an empty slice. The migration reads legacy files through this same
// path, so the generic tabular structure never crosses the store boundary.
func LoadCustomersCSV(path string) ([]types.Customer, error) {
	records, err := readCSVFile(path, len(customerHeader))
	if err != nil {
		return nil, err
	}

	customers := make([]types.Customer, 0, len(records))
	for i, row := range records {
		id, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: bad customer_id %q", types.ErrStorage, CustomersFile, i+1, row[0])
		}
		customers = append(customers, types.Customer{
			ID:      id,
			Name:    row[1],
			Contact: row[2],
			Address: row[3],
		})
	}
	return customers, nil
}

// LoadCollectionsCSV parses a collections file into typed records, assigning
// positional ids (row 1 gets id 1). A missing file yields an empty slice.
func LoadCollectionsCSV(path string) ([]types.Collection, error) {
	records, err := readCSVFile(path, len(collectionHeader))
	if err != nil {
		return nil, err
	}

	collections := make([]types.Collection, 0, len(records))
	for i, row := range records {
		date, err := types.ParseDate(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: bad date %q", types.ErrStorage, CollectionsFile, i+1, row[0])
		}
		customerID, err := strconv.ParseInt(strings.TrimSpace(row[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: bad customer_id %q", types.ErrStorage, CollectionsFile, i+1, row[1])
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: bad weight %q", types.ErrStorage, CollectionsFile, i+1, row[3])
		}
		collections = append(collections, types.Collection{
			ID:           int64(i + 1),
			Date:         date,
			CustomerID:   customerID,
			CustomerName: row[2],
			Weight:       weight,
		})
	}
	return collections, nil
}

// readCSVFile returns the data rows of a headered CSV file, or nil when the
// file does not exist.
func readCSVFile(path string, wantFields int) ([][]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", types.ErrStorage, filepath.Base(path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = wantFields

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil // empty file, treat as no records
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s header: %v", types.ErrStorage, filepath.Base(path), err)
	}
	_ = header

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", types.ErrStorage, filepath.Base(path), err)
	}
	return rows, nil
}
