// Package app wires configuration, the record store, and the snapshot
// machinery into the operation surface consumed by the presentation shell.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/leaftrack/leaftrack/internal/config"
	"github.com/leaftrack/leaftrack/internal/migrate"
	"github.com/leaftrack/leaftrack/internal/query"
	"github.com/leaftrack/leaftrack/internal/snapshot"
	"github.com/leaftrack/leaftrack/internal/storage"
	"github.com/leaftrack/leaftrack/internal/store"
	"github.com/leaftrack/leaftrack/pkg/types"
)

// App owns the shared resources and exposes every shell-facing operation.
// All operations are synchronous; each runs to completion before the next.
// Presentation state never enters this layer.
type App struct {
	cfg       *config.Config
	records   store.Store
	snapshots *snapshot.Writer
}

// New builds the configured store, runs the one-time legacy migration when
// applicable, and wires snapshot storage.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	records, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objects, err := openObjectStorage(ctx, cfg)
	if err != nil {
		records.Close()
		return nil, err
	}

	return &App{
		cfg:       cfg,
		records:   records,
		snapshots: snapshot.NewWriter(records, objects, cfg.Snapshot.WorkDir),
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Type {
	case config.StoreCSV:
		return store.NewCSVStore(cfg.Store.Path)
	default:
		s, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		// One-time legacy import: flat files from a previous installation
		// are merged into the database and left in place as a backup.
		if migrate.HasLegacyFiles(cfg.CSVDir()) {
			if _, err := migrate.Run(ctx, cfg.CSVDir(), s); err != nil {
				s.Close()
				return nil, fmt.Errorf("legacy migration failed: %w", err)
			}
		}
		return s, nil
	}
}

func openObjectStorage(ctx context.Context, cfg *config.Config) (storage.ObjectStorage, error) {
	if cfg.Snapshot.Storage.Type == "s3" {
		return storage.NewS3Storage(ctx, cfg.Snapshot.Storage.S3.Bucket, storage.S3Config{
			Region:       cfg.Snapshot.Storage.S3.Region,
			Endpoint:     cfg.Snapshot.Storage.S3.Endpoint,
			UsePathStyle: cfg.Snapshot.Storage.S3.UsePathStyle,
		})
	}
	return storage.NewLocalStorage(cfg.Snapshot.Storage.Path)
}

// Close releases the store.
func (a *App) Close() error {
	return a.records.Close()
}

// ListCustomers returns all customers.
func (a *App) ListCustomers(ctx context.Context) ([]types.Customer, error) {
	return a.records.ListCustomers(ctx)
}

// ListCollections returns all collections.
func (a *App) ListCollections(ctx context.Context) ([]types.Collection, error) {
	return a.records.ListCollections(ctx)
}

// AddCustomer registers a new customer.
func (a *App) AddCustomer(ctx context.Context, name, contact, address string) (*types.Customer, error) {
	return a.records.AddCustomer(ctx, name, contact, address)
}

// AddCollection records a weighed delivery.
func (a *App) AddCollection(ctx context.Context, date types.Date, customerID int64, weight float64) (*types.Collection, error) {
	return a.records.AddCollection(ctx, date, customerID, weight)
}

// UpdateCollection corrects the date and weight of an existing delivery.
func (a *App) UpdateCollection(ctx context.Context, id int64, date types.Date, weight float64) (*types.Collection, error) {
	return a.records.UpdateCollection(ctx, id, date, weight)
}

// DeleteCollection removes a delivery record. Reports false when the id is
// already absent.
func (a *App) DeleteCollection(ctx context.Context, id int64) (bool, error) {
	return a.records.DeleteCollection(ctx, id)
}

// FilterCollections returns the collections matching the given customer and
// date filters, optionally sorted newest first for display.
func (a *App) FilterCollections(ctx context.Context, customers query.CustomerFilter, dates query.DateFilter, sortDesc bool) ([]types.Collection, error) {
	records, err := a.records.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	matched := query.Filter(records, customers, dates)
	if sortDesc {
		matched = query.SortByDateDesc(matched)
	}
	return matched, nil
}

// Stats holds the summary figures for the statistics view.
type Stats struct {
	// TotalCustomers counts all registered customers, independent of
	// whether they have collections.
	TotalCustomers int

	// GrandTotal is the summed weight of all collections.
	GrandTotal float64

	// AverageDailyTotal is the mean of per-day totals. Meaningless when
	// HasData is false.
	AverageDailyTotal float64

	// HasData reports whether any collections exist.
	HasData bool

	// TotalsByCustomer maps customer name to summed weight.
	TotalsByCustomer map[string]float64

	// TotalsByDate maps calendar day to summed weight.
	TotalsByDate map[types.Date]float64
}

// Stats computes the full statistics summary over all collections.
func (a *App) Stats(ctx context.Context) (*Stats, error) {
	customers, err := a.records.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	records, err := a.records.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	avg, hasData := query.AverageDailyTotal(records)
	return &Stats{
		TotalCustomers:    len(customers),
		GrandTotal:        query.GrandTotal(records),
		AverageDailyTotal: avg,
		HasData:           hasData,
		TotalsByCustomer:  query.TotalsByCustomer(records),
		TotalsByDate:      query.TotalsByDate(records),
	}, nil
}

// Snapshot exports the current records to compressed flat files in object
// storage and returns the snapshot id.
func (a *App) Snapshot(ctx context.Context) (string, error) {
	id, err := a.snapshots.Create(ctx)
	if err != nil {
		return "", err
	}
	log.Printf("app: snapshot %s written to %s storage", id, a.cfg.Snapshot.Storage.Type)
	return id, nil
}

// ListSnapshots returns the ids of all stored snapshots.
func (a *App) ListSnapshots(ctx context.Context) ([]string, error) {
	return a.snapshots.List(ctx)
}
