// Package main implements the leaftrack binary, the command-line shell over
// the tracker's operation surface. Each subcommand is one synchronous
// user action: register a customer, record a delivery, browse history,
// view statistics, export a snapshot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/leaftrack/leaftrack/internal/app"
	"github.com/leaftrack/leaftrack/internal/config"
	"github.com/leaftrack/leaftrack/internal/query"
	"github.com/leaftrack/leaftrack/pkg/types"
)

var (
	version = "dev"
	commit  = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, "leaftrack - Tea Leaf Collection Tracker\n\n")
	fmt.Fprintf(os.Stderr, "Usage: leaftrack [global options] <command> [command options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  add-customer       Register a new customer\n")
	fmt.Fprintf(os.Stderr, "  customers          List all customers\n")
	fmt.Fprintf(os.Stderr, "  add-collection     Record a weighed delivery\n")
	fmt.Fprintf(os.Stderr, "  collections        List/filter delivery history\n")
	fmt.Fprintf(os.Stderr, "  update-collection  Correct a delivery's date and weight\n")
	fmt.Fprintf(os.Stderr, "  delete-collection  Remove a delivery record\n")
	fmt.Fprintf(os.Stderr, "  stats              Show collection statistics\n")
	fmt.Fprintf(os.Stderr, "  snapshot           Export a compressed flat-file snapshot\n")
	fmt.Fprintf(os.Stderr, "  snapshots          List stored snapshots\n")
	fmt.Fprintf(os.Stderr, "  version            Show version information\n\n")
	fmt.Fprintf(os.Stderr, "Global options:\n")
	fmt.Fprintf(os.Stderr, "  --config PATH      Configuration file (YAML or JSON)\n")
	fmt.Fprintf(os.Stderr, "  --data-dir PATH    Base directory for data files\n")
	fmt.Fprintf(os.Stderr, "  --store TYPE       Store backend: sqlite, csv\n\n")
	fmt.Fprintf(os.Stderr, "Environment Variables:\n")
	fmt.Fprintf(os.Stderr, "  LEAFTRACK_DATA_DIR               Base directory for data files\n")
	fmt.Fprintf(os.Stderr, "  LEAFTRACK_STORE_TYPE             Store backend (sqlite, csv)\n")
	fmt.Fprintf(os.Stderr, "  LEAFTRACK_SNAPSHOT_STORAGE_TYPE  Snapshot storage (local, s3)\n")
	fmt.Fprintf(os.Stderr, "  LEAFTRACK_S3_BUCKET              S3 bucket for snapshots\n")
}

func main() {
	// A .env file next to the binary is a convenience for local setups.
	_ = godotenv.Load()

	global := flag.NewFlagSet("leaftrack", flag.ExitOnError)
	configFile := global.String("config", "", "Path to configuration file (YAML or JSON)")
	dataDir := global.String("data-dir", "", "Base directory for data files")
	storeType := global.String("store", "", "Store backend: sqlite, csv")
	global.Usage = usage

	// Global flags come before the subcommand.
	args := os.Args[1:]
	if err := global.Parse(args); err != nil {
		os.Exit(2)
	}
	rest := global.Args()
	if len(rest) == 0 {
		usage()
		os.Exit(2)
	}
	command, cmdArgs := rest[0], rest[1:]

	if command == "version" {
		fmt.Printf("leaftrack version %s (commit: %s)\n", version, commit)
		return
	}
	if command == "help" {
		usage()
		return
	}

	cfg, err := loadConfig(*configFile, *dataDir, *storeType)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer application.Close()

	if err := run(ctx, application, command, cmdArgs); err != nil {
		// Domain errors are user mistakes, not crashes.
		if errors.Is(err, types.ErrValidation) || errors.Is(err, types.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		log.Fatalf("Command failed: %v", err)
	}
}

func loadConfig(configFile, dataDir, storeType string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	config.LoadFromEnv(cfg)
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if storeType != "" {
		cfg.Store.Type = config.StoreType(storeType)
	}
	return cfg, nil
}

func run(ctx context.Context, a *app.App, command string, args []string) error {
	switch command {
	case "add-customer":
		return cmdAddCustomer(ctx, a, args)
	case "customers":
		return cmdCustomers(ctx, a)
	case "add-collection":
		return cmdAddCollection(ctx, a, args)
	case "collections":
		return cmdCollections(ctx, a, args)
	case "update-collection":
		return cmdUpdateCollection(ctx, a, args)
	case "delete-collection":
		return cmdDeleteCollection(ctx, a, args)
	case "stats":
		return cmdStats(ctx, a)
	case "snapshot":
		return cmdSnapshot(ctx, a)
	case "snapshots":
		return cmdSnapshotList(ctx, a)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func cmdAddCustomer(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("add-customer", flag.ExitOnError)
	name := fs.String("name", "", "Customer name (required)")
	contact := fs.String("contact", "", "Contact number")
	address := fs.String("address", "", "Address")
	fs.Parse(args)

	c, err := a.AddCustomer(ctx, *name, *contact, *address)
	if err != nil {
		return err
	}
	fmt.Printf("Added customer %d: %s\n", c.ID, c.Name)
	return nil
}

func cmdCustomers(ctx context.Context, a *app.App) error {
	customers, err := a.ListCustomers(ctx)
	if err != nil {
		return err
	}
	if len(customers) == 0 {
		fmt.Println("No customers registered.")
		return nil
	}
	fmt.Printf("%-6s %-24s %-16s %s\n", "ID", "NAME", "CONTACT", "ADDRESS")
	for _, c := range customers {
		fmt.Printf("%-6d %-24s %-16s %s\n", c.ID, c.Name, c.Contact, c.Address)
	}
	return nil
}

func cmdAddCollection(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("add-collection", flag.ExitOnError)
	dateStr := fs.String("date", types.Today().String(), "Collection date (YYYY-MM-DD)")
	customerID := fs.Int64("customer", 0, "Customer id (required)")
	weight := fs.Float64("weight", 0, "Weight in kg (required)")
	fs.Parse(args)

	date, err := types.ParseDate(*dateStr)
	if err != nil {
		return err
	}
	rec, err := a.AddCollection(ctx, date, *customerID, *weight)
	if err != nil {
		return err
	}
	fmt.Printf("Recorded collection %d: %s, %s, %.2f kg\n", rec.ID, rec.Date, rec.CustomerName, rec.Weight)
	return nil
}

func cmdCollections(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("collections", flag.ExitOnError)
	customers := fs.String("customer", "", "Comma-separated customer names, or All")
	dateStr := fs.String("date", "", "Exact day (YYYY-MM-DD)")
	fromStr := fs.String("from", "", "Range start (YYYY-MM-DD)")
	toStr := fs.String("to", "", "Range end (YYYY-MM-DD)")
	sortDesc := fs.Bool("sort-desc", false, "Sort newest first")
	fs.Parse(args)

	var customerFilter query.CustomerFilter
	if *customers == "" {
		customerFilter = query.NewCustomerFilter()
	} else {
		customerFilter = query.NewCustomerFilter(strings.Split(*customers, ",")...)
	}

	dateFilter, err := buildDateFilter(*dateStr, *fromStr, *toStr)
	if err != nil {
		return err
	}

	records, err := a.FilterCollections(ctx, customerFilter, dateFilter, *sortDesc)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No collections match.")
		return nil
	}
	fmt.Printf("%-6s %-12s %-24s %s\n", "ID", "DATE", "CUSTOMER", "WEIGHT (KG)")
	for _, rec := range records {
		fmt.Printf("%-6d %-12s %-24s %.2f\n", rec.ID, rec.Date, rec.CustomerName, rec.Weight)
	}
	return nil
}

// buildDateFilter turns the flag values into a single tagged filter. An
// exact day and a range are mutually exclusive.
func buildDateFilter(dateStr, fromStr, toStr string) (query.DateFilter, error) {
	if dateStr != "" {
		if fromStr != "" || toStr != "" {
			return query.DateFilter{}, fmt.Errorf("%w: --date cannot be combined with --from/--to", types.ErrValidation)
		}
		day, err := types.ParseDate(dateStr)
		if err != nil {
			return query.DateFilter{}, err
		}
		return query.ExactDay(day), nil
	}
	if fromStr == "" && toStr == "" {
		return query.DateFilter{}, nil
	}
	if fromStr == "" || toStr == "" {
		return query.DateFilter{}, fmt.Errorf("%w: --from and --to must be given together", types.ErrValidation)
	}
	from, err := types.ParseDate(fromStr)
	if err != nil {
		return query.DateFilter{}, err
	}
	to, err := types.ParseDate(toStr)
	if err != nil {
		return query.DateFilter{}, err
	}
	return query.Range(from, to)
}

func cmdUpdateCollection(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("update-collection", flag.ExitOnError)
	id := fs.Int64("id", 0, "Collection id (required)")
	dateStr := fs.String("date", "", "New date (YYYY-MM-DD, required)")
	weight := fs.Float64("weight", 0, "New weight in kg (required)")
	fs.Parse(args)

	date, err := types.ParseDate(*dateStr)
	if err != nil {
		return err
	}
	rec, err := a.UpdateCollection(ctx, *id, date, *weight)
	if err != nil {
		return err
	}
	fmt.Printf("Updated collection %d: %s, %s, %.2f kg\n", rec.ID, rec.Date, rec.CustomerName, rec.Weight)
	return nil
}

func cmdDeleteCollection(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("delete-collection", flag.ExitOnError)
	id := fs.Int64("id", 0, "Collection id (required)")
	fs.Parse(args)

	removed, err := a.DeleteCollection(ctx, *id)
	if err != nil {
		return err
	}
	if removed {
		fmt.Printf("Deleted collection %d\n", *id)
	} else {
		fmt.Printf("Collection %d not found; nothing deleted\n", *id)
	}
	return nil
}

func cmdStats(ctx context.Context, a *app.App) error {
	stats, err := a.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Total customers:        %d\n", stats.TotalCustomers)
	if !stats.HasData {
		fmt.Println("No collection data available yet.")
		return nil
	}
	fmt.Printf("Total collections (kg): %.2f\n", stats.GrandTotal)
	fmt.Printf("Average daily (kg):     %.2f\n", stats.AverageDailyTotal)

	fmt.Println("\nTotals by customer:")
	for _, name := range sortedKeys(stats.TotalsByCustomer) {
		fmt.Printf("  %-24s %.2f\n", name, stats.TotalsByCustomer[name])
	}

	fmt.Println("\nTotals by date:")
	dates := make([]types.Date, 0, len(stats.TotalsByDate))
	for d := range stats.TotalsByDate {
		dates = append(dates, d)
	}
	sortDates(dates)
	for _, d := range dates {
		fmt.Printf("  %s   %.2f\n", d, stats.TotalsByDate[d])
	}
	return nil
}

func cmdSnapshot(ctx context.Context, a *app.App) error {
	id, err := a.Snapshot(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Snapshot created: %s\n", id)
	return nil
}

func cmdSnapshotList(ctx context.Context, a *app.App) error {
	ids, err := a.ListSnapshots(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No snapshots stored.")
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortDates(dates []types.Date) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}
