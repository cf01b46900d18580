// Package config provides unified configuration for the leaf collection tracker.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// StoreType selects the record store backend.
type StoreType string

const (
	// StoreSQLite is the relational backend (preferred).
	StoreSQLite StoreType = "sqlite"

	// StoreCSV is the flat tabular file backend.
	StoreCSV StoreType = "csv"
)

// Config holds the full application configuration.
type Config struct {
	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Store configuration
	Store StoreConfig `json:"store" yaml:"store"`

	// Snapshot configuration
	Snapshot SnapshotConfig `json:"snapshot" yaml:"snapshot"`
}

// StoreConfig holds record store configuration.
type StoreConfig struct {
	// Type is the backend type: sqlite, csv
	Type StoreType `json:"type" yaml:"type"`

	// Path locates the backend: the database file for sqlite, the CSV
	// directory for csv. Derived from DataDir when empty.
	Path string `json:"path" yaml:"path"`
}

// SnapshotConfig holds snapshot export configuration.
type SnapshotConfig struct {
	// WorkDir is the staging directory for snapshot files
	WorkDir string `json:"work_dir" yaml:"work_dir"`

	// Storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// StorageConfig holds object storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle enables path-style addressing (required for MinIO)
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`
}

// DefaultConfig returns the default configuration for local use.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/leaftrack",
		Store: StoreConfig{
			Type: StoreSQLite,
		},
		Snapshot: SnapshotConfig{
			Storage: StorageConfig{
				Type: "local",
			},
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/leaftrack"
	}
	if c.Store.Path == "" {
		switch c.Store.Type {
		case StoreCSV:
			c.Store.Path = c.CSVDir()
		default:
			c.Store.Path = c.DatabasePath()
		}
	}
	if c.Snapshot.WorkDir == "" {
		c.Snapshot.WorkDir = filepath.Join(c.DataDir, "snapshot-staging")
	}
	if c.Snapshot.Storage.Path == "" {
		c.Snapshot.Storage.Path = filepath.Join(c.DataDir, "snapshots")
	}
}

// DatabasePath returns the default path of the SQLite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "leaftrack.db")
}

// CSVDir returns the default directory of the flat-file backend, which is
// also where legacy files are looked for at migration time.
func (c *Config) CSVDir() string {
	return filepath.Join(c.DataDir, "csv")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Store.Type {
	case StoreSQLite, StoreCSV:
		// Valid backends
	default:
		return fmt.Errorf("invalid store type: %s (must be sqlite or csv)", c.Store.Type)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Snapshot.Storage.Type != "local" && c.Snapshot.Storage.Type != "s3" {
		return fmt.Errorf("invalid snapshot storage type: %s (must be local or s3)", c.Snapshot.Storage.Type)
	}

	if c.Snapshot.Storage.Type == "s3" && c.Snapshot.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when snapshot storage type is s3")
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the LEAFTRACK_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("LEAFTRACK_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("LEAFTRACK_STORE_TYPE"); v != "" {
		cfg.Store.Type = StoreType(v)
	}
	if v := os.Getenv("LEAFTRACK_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("LEAFTRACK_SNAPSHOT_STORAGE_TYPE"); v != "" {
		cfg.Snapshot.Storage.Type = v
	}
	if v := os.Getenv("LEAFTRACK_SNAPSHOT_STORAGE_PATH"); v != "" {
		cfg.Snapshot.Storage.Path = v
	}
	if v := os.Getenv("LEAFTRACK_S3_BUCKET"); v != "" {
		cfg.Snapshot.Storage.S3.Bucket = v
	}
	if v := os.Getenv("LEAFTRACK_S3_REGION"); v != "" {
		cfg.Snapshot.Storage.S3.Region = v
	}
	if v := os.Getenv("LEAFTRACK_S3_ENDPOINT"); v != "" {
		cfg.Snapshot.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("LEAFTRACK_S3_PATH_STYLE"); v != "" {
		cfg.Snapshot.Storage.S3.UsePathStyle = v == "true" || v == "1"
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.Snapshot.WorkDir,
	}
	if c.Store.Type == StoreCSV {
		dirs = append(dirs, c.Store.Path)
	}
	if c.Snapshot.Storage.Type == "local" {
		dirs = append(dirs, c.Snapshot.Storage.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
