package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "bito/concertworker/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://mticket.interpark.com/Genre/ConcertMain?invisible=N", config.TargetURL)
	assert.Equal(t, DriverPlaywright, config.FetchDriver)
	assert.Equal(t, 20, config.MaxRecords)
	assert.Equal(t, 3*time.Second, config.SettleTimeout)
	assert.Equal(t, 1920, config.ViewportWidth)
	assert.Equal(t, StorageMemory, config.StorageDriver)
	assert.Equal(t, 10000, config.CheapMaxPrice)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	t.Setenv("CONCERT_URL", "https://example.com/concerts")
	t.Setenv("FETCH_DRIVER", "HTTP")
	t.Setenv("SETTLE_TIMEOUT_SECONDS", "5")
	t.Setenv("REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file:concerts.db")
	t.Setenv("SCRAPE_INTERVAL_SECONDS", "600")
	t.Setenv("MAX_RECORDS", "not-a-number")

	config, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/concerts", config.TargetURL)
	assert.Equal(t, DriverHTTP, config.FetchDriver)
	assert.Equal(t, 5*time.Second, config.SettleTimeout)
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, 2, config.RedisDB)
	assert.Equal(t, StorageSQLite, config.StorageDriver)
	assert.Equal(t, 10*time.Minute, config.ScrapeInterval)
	assert.Equal(t, 20, config.MaxRecords)
	assert.NoError(t, config.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "concertworker.yaml")
	content := `
target_url: https://file.example.com/list
fetch_driver: browserless
browserless_addr: http://chrome:3000
settle_timeout: 4s
max_records: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MAX_RECORDS", "15")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com/list", config.TargetURL)
	assert.Equal(t, DriverBrowserless, config.FetchDriver)
	assert.Equal(t, "http://chrome:3000", config.BrowserlessAddr)
	assert.Equal(t, 4*time.Second, config.SettleTimeout)
	assert.Equal(t, 15, config.MaxRecords, "environment overrides the file")
	assert.Equal(t, "Interpark", config.SourceName, "defaults survive the overlay")
}

func TestLoadConfigFileMissing(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConfiguration))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"empty url", func(c *Config) { c.TargetURL = "" }, false},
		{"zero max records", func(c *Config) { c.MaxRecords = 0 }, false},
		{"max records at limit", func(c *Config) { c.MaxRecords = MaxRecordsLimit }, true},
		{"max records above limit", func(c *Config) { c.MaxRecords = MaxRecordsLimit + 1 }, false},
		{"unknown driver", func(c *Config) { c.FetchDriver = "selenium" }, false},
		{"browserless without addr", func(c *Config) {
			c.FetchDriver = DriverBrowserless
			c.BrowserlessAddr = ""
		}, false},
		{"sqlite without dsn", func(c *Config) { c.StorageDriver = StorageSQLite }, false},
		{"postgres with dsn", func(c *Config) {
			c.StorageDriver = StoragePostgres
			c.DatabaseDSN = "postgres://localhost/concerts"
		}, true},
		{"unknown storage", func(c *Config) { c.StorageDriver = "mongo" }, false},
		{"negative settle", func(c *Config) { c.SettleTimeout = -time.Second }, false},
		{"zero settle", func(c *Config) { c.SettleTimeout = 0 }, true},
		{"bad viewport", func(c *Config) { c.ViewportHeight = 0 }, false},
		{"redis without streams", func(c *Config) {
			c.RedisAddr = "localhost:6379"
			c.RedisStreamCount = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	c := Default()
	assert.False(t, c.IsProduction())
	c.Environment = "Production"
	assert.True(t, c.IsProduction())
}
