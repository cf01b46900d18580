package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, StoreSQLite, cfg.Store.Type)
	assert.Equal(t, cfg.DatabasePath(), cfg.Store.Path)
}

func TestResolve_CSVBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Type = StoreCSV
	cfg.Resolve()
	assert.Equal(t, cfg.CSVDir(), cfg.Store.Path)
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store type", func(c *Config) { c.Store.Type = "postgres" }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"unknown storage type", func(c *Config) { c.Snapshot.Storage.Type = "gcs" }},
		{"s3 without bucket", func(c *Config) { c.Snapshot.Storage.Type = "s3" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data_dir: /var/lib/leaftrack
store:
  type: csv
snapshot:
  storage:
    type: s3
    s3:
      bucket: leaf-snapshots
      region: ap-south-1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/leaftrack", cfg.DataDir)
	assert.Equal(t, StoreCSV, cfg.Store.Type)
	assert.Equal(t, "leaf-snapshots", cfg.Snapshot.Storage.S3.Bucket)
	assert.Equal(t, "ap-south-1", cfg.Snapshot.Storage.S3.Region)
}

func TestLoadFromFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LEAFTRACK_DATA_DIR", "/tmp/leaf")
	t.Setenv("LEAFTRACK_STORE_TYPE", "csv")
	t.Setenv("LEAFTRACK_S3_BUCKET", "bucket-from-env")
	t.Setenv("LEAFTRACK_S3_PATH_STYLE", "true")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	assert.Equal(t, "/tmp/leaf", cfg.DataDir)
	assert.Equal(t, StoreCSV, cfg.Store.Type)
	assert.Equal(t, "bucket-from-env", cfg.Snapshot.Storage.S3.Bucket)
	assert.True(t, cfg.Snapshot.Storage.S3.UsePathStyle)
}
